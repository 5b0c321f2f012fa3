package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jrsteele09/storefront-auth/authflow"
	"github.com/jrsteele09/storefront-auth/internal/config"
	"github.com/jrsteele09/storefront-auth/internal/sealer"
	"github.com/jrsteele09/storefront-auth/sessions"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type stores struct {
	pending  authflow.Repo
	sessions sessions.Store
	closers  []func() error
}

func (s *stores) Close() {
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil {
			log.Warn().Err(err).Msg("failed to close store")
		}
	}
}

// openStores builds the pending request repo and session store for the configured backend
func openStores(ctx context.Context, c config.Config) (*stores, error) {
	switch c.GetStoreBackend() {
	case config.StoreBackendMemory:
		pending := authflow.NewInMemoryRepo(c.GetPendingAuthTTL())
		sessionStore := sessions.NewInMemoryStore(c.GetSessionMaxAge())
		log.Warn().Msg("using in-memory stores, sessions are lost on restart and not shared between instances")
		return &stores{
			pending:  pending,
			sessions: sessionStore,
			closers:  []func() error{pending.Close, sessionStore.Close},
		}, nil

	case config.StoreBackendRedis:
		if c.GetSealingKey() == "" {
			return nil, errors.New("[openStores] a session sealing key is required with the redis backend")
		}
		tokenSealer, err := sealer.New(c.GetSealingKey())
		if err != nil {
			return nil, fmt.Errorf("[openStores] %w", err)
		}

		client := redis.NewClient(&redis.Options{
			Addr:     c.GetRedisAddr(),
			Password: c.GetRedisPassword(),
			DB:       c.GetRedisDB(),
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("[openStores] redis %s: %w", c.GetRedisAddr(), err)
		}
		log.Info().Str("addr", c.GetRedisAddr()).Int("db", c.GetRedisDB()).Msg("using redis stores")

		return &stores{
			pending:  authflow.NewRedisRepo(client, c.GetRedisPrefix(), c.GetPendingAuthTTL()),
			sessions: sessions.NewRedisStore(client, tokenSealer, c.GetRedisPrefix(), c.GetSessionMaxAge()),
			closers:  []func() error{client.Close},
		}, nil

	default:
		return nil, fmt.Errorf("[openStores] unknown store backend %q", c.GetStoreBackend())
	}
}

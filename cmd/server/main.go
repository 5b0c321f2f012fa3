package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/storefront-auth/api"
	"github.com/jrsteele09/storefront-auth/auth"
	"github.com/jrsteele09/storefront-auth/internal/config"
	"github.com/jrsteele09/storefront-auth/internal/logging"
	"github.com/jrsteele09/storefront-auth/internal/metrics"
	"github.com/jrsteele09/storefront-auth/pkce"
	"github.com/jrsteele09/storefront-auth/server"
	"github.com/jrsteele09/storefront-auth/token"
	"github.com/jrsteele09/storefront-auth/token/refresh"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const discoveryTimeout = 15 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "storefront-auth",
		Short:         "Storefront sign-in and session service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return run(cmd.Context(), c)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_FILE"), "path to a YAML config file")
	return cmd
}

func run(ctx context.Context, c config.Config) error {
	logging.Setup(c.GetEnv(), c.GetLogLevel())
	displayAppname(c.GetAppName())

	// Without a working randomness source no login can be started safely
	if _, err := pkce.NewGenerator().Token(); err != nil {
		return err
	}

	discoverCtx, cancel := context.WithTimeout(ctx, discoveryTimeout)
	endpoints, err := server.DiscoverProvider(discoverCtx, c)
	cancel()
	if err != nil {
		return err
	}

	stores, err := openStores(ctx, c)
	if err != nil {
		return err
	}
	defer stores.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(registry)

	tokenOpts := []token.ClientOption{
		token.WithTimeout(c.GetTokenTimeout()),
		token.WithPendingTTL(c.GetPendingAuthTTL()),
		token.WithSessionMaxAge(c.GetSessionMaxAge()),
		token.WithMetrics(m),
	}
	if endpoints.Verifier != nil {
		tokenOpts = append(tokenOpts, token.WithVerifier(token.NewOIDCVerifier(endpoints.Verifier)))
	}
	tokens := token.NewClient(token.ClientConfig{
		ClientID:     c.GetClientID(),
		ClientSecret: c.GetClientSecret(),
		TokenURL:     endpoints.TokenURL,
	}, tokenOpts...)

	handler, err := server.New(c, server.Deps{
		Authorizer: auth.NewAuthorizer(auth.ClientConfig{
			ClientID:    c.GetClientID(),
			AuthURL:     endpoints.AuthURL,
			RedirectURI: c.GetRedirectURL(),
			Scopes:      c.GetScopes(),
		}),
		PendingRequests: stores.pending,
		Tokens:          tokens,
		Sessions:        stores.sessions,
		Refresher:       refresh.NewManager(stores.sessions, tokens, m, refresh.WithLockTTL(c.GetTokenTimeout()+5*time.Second)),
		API:             api.NewClient(c.GetAPIBaseURL()),
		Metrics:         m,
		EndSessionURL:   endpoints.EndSessionURL,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- listenAndServe(httpServer)
	}()

	stopCtx, stop := waitForStopSignal(ctx)
	defer stop()

	select {
	case err := <-serveErr:
		return err
	case <-stopCtx.Done():
	}
	return shutdown(httpServer)
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

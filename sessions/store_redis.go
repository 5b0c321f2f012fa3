package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/storefront-auth/internal/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var _ Store = (*RedisStore)(nil)

const maxTouchRetries = 16

// releaseLockScript deletes a refresh lock only while it still carries the holder's token
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// TokenSealer encrypts the refresh token before it leaves the process
type TokenSealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

// redisRecord is the stored form of a session. The refresh token is only ever written sealed.
type redisRecord struct {
	Session            *AuthSession `json:"session"`
	SealedRefreshToken string       `json:"sealedRefreshToken,omitempty"`
}

// RedisStore keeps sessions in Redis so several storefront instances can share them.
// Touch runs inside WATCH/MULTI so a concurrent writer forces a retry instead of a lost update.
type RedisStore struct {
	client  redis.UniversalClient
	sealer  TokenSealer
	prefix  string
	maxAge  time.Duration
	nowTime func() time.Time
}

// RedisOption configures a RedisStore
type RedisOption func(*RedisStore)

// WithRedisNowTime sets the now time function (primarily for testing)
func WithRedisNowTime(nowFunc func() time.Time) RedisOption {
	return func(s *RedisStore) {
		s.nowTime = nowFunc
	}
}

// NewRedisStore creates a Redis backed session store
func NewRedisStore(client redis.UniversalClient, sealer TokenSealer, prefix string, maxAge time.Duration, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:  client,
		sealer:  sealer,
		prefix:  prefix,
		maxAge:  maxAge,
		nowTime: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(id string) string {
	return fmt.Sprintf("%s:session:%s", s.prefix, id)
}

func (s *RedisStore) lockKey(id string) string {
	return fmt.Sprintf("%s:refresh:%s", s.prefix, id)
}

// Put stores the session with a ttl matching its lifetime
func (s *RedisStore) Put(ctx context.Context, session *AuthSession) error {
	if session == nil || session.ID == "" {
		return errors.New("session with an id is required")
	}

	data, err := s.encode(session)
	if err != nil {
		return fmt.Errorf("[RedisStore Put] %w", err)
	}
	if err := s.client.Set(ctx, s.key(session.ID), data, s.ttlFor(session)).Err(); err != nil {
		return fmt.Errorf("[RedisStore Put] failed to store session: %w", err)
	}
	return nil
}

// Get returns the session
func (s *RedisStore) Get(ctx context.Context, id string) (*AuthSession, error) {
	if id == "" {
		return nil, apperrors.ErrNotFound
	}
	return s.read(ctx, s.client, id)
}

// Delete removes the session
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("[RedisStore Delete] failed to delete session: %w", err)
	}
	return nil
}

// Touch applies patch with optimistic locking, retrying when another writer got there first
func (s *RedisStore) Touch(ctx context.Context, id string, patch Patch) (*AuthSession, error) {
	key := s.key(id)
	var updated *AuthSession

	txf := func(tx *redis.Tx) error {
		current, err := s.read(ctx, tx, id)
		if err != nil {
			return err
		}

		next := patch.Apply(current)
		data, err := s.encode(next)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, redis.KeepTTL)
			return nil
		})
		if err == nil {
			updated = next
		}
		return err
	}

	for i := 0; i < maxTouchRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("[RedisStore Touch] %w", err)
		}
		return updated, nil
	}
	return nil, fmt.Errorf("[RedisStore Touch] too much contention on session %s", id)
}

// LockRefresh takes the refresh lock for a session with SET NX PX. The lock lapses after ttl
// so a crashed holder cannot block other instances for longer than that.
func (s *RedisStore) LockRefresh(ctx context.Context, id string, ttl time.Duration) (func(), bool, error) {
	key := s.lockKey(id)
	holder := uuid.NewString()

	acquired, err := s.client.SetNX(ctx, key, holder, ttl).Result()
	if err != nil {
		return nil, false, apperrors.Wrapf(err, "[RedisStore LockRefresh] failed to take lock")
	}
	if !acquired {
		return nil, false, nil
	}

	release := func() {
		if err := releaseLockScript.Run(context.WithoutCancel(ctx), s.client, []string{key}, holder).Err(); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to release refresh lock")
		}
	}
	return release, true, nil
}

func (s *RedisStore) read(ctx context.Context, c redis.Cmdable, id string) (*AuthSession, error) {
	data, err := c.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[RedisStore read] failed to read session: %w", err)
	}

	session, err := s.decode(data)
	if err != nil {
		return nil, err
	}
	if session.Expired(s.nowTime()) {
		return nil, apperrors.ErrNotFound
	}
	return session, nil
}

func (s *RedisStore) encode(session *AuthSession) ([]byte, error) {
	sealed, err := s.sealer.Seal(session.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to seal refresh token: %w", err)
	}
	data, err := json.Marshal(redisRecord{Session: session, SealedRefreshToken: sealed})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	return data, nil
}

func (s *RedisStore) decode(data []byte) (*AuthSession, error) {
	var rec redisRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("[RedisStore decode] failed to unmarshal session: %w", err)
	}
	if rec.Session == nil {
		return nil, errors.New("[RedisStore decode] session record is empty")
	}
	rt, err := s.sealer.Open(rec.SealedRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("[RedisStore decode] failed to open refresh token: %w", err)
	}
	rec.Session.RefreshToken = rt
	return rec.Session, nil
}

func (s *RedisStore) ttlFor(session *AuthSession) time.Duration {
	if session.ExpiresAt.IsZero() {
		return s.maxAge
	}
	if ttl := session.ExpiresAt.Sub(s.nowTime()); ttl > 0 {
		return ttl
	}
	return time.Second
}

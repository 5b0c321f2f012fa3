package sessions

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	apperrors "github.com/jrsteele09/storefront-auth/internal/errors"
)

var _ Store = (*InMemoryStore)(nil)

// InMemoryStore keeps sessions in process. Stored values are immutable; every write replaces the
// entry with a fresh copy so readers never see a partially applied patch.
type InMemoryStore struct {
	mu      sync.Mutex // serialises read-modify-write in Touch
	cache   *ttlcache.Cache[string, *AuthSession]
	nowTime func() time.Time
}

// Option configures an InMemoryStore
type Option func(*InMemoryStore)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *InMemoryStore) {
		s.nowTime = nowFunc
	}
}

// NewInMemoryStore creates a session store whose entries are evicted after maxAge
// unless the session carries its own ExpiresAt.
func NewInMemoryStore(maxAge time.Duration, opts ...Option) *InMemoryStore {
	s := &InMemoryStore{
		cache: ttlcache.New(
			ttlcache.WithTTL[string, *AuthSession](maxAge),
			ttlcache.WithDisableTouchOnHit[string, *AuthSession](),
		),
		nowTime: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	go s.cache.Start()

	return s
}

// Put stores a copy of the session
func (s *InMemoryStore) Put(_ context.Context, session *AuthSession) error {
	if session == nil || session.ID == "" {
		return errors.New("session with an id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Set(session.ID, session.Clone(), s.ttlFor(session))
	return nil
}

// Get returns a copy of the session
func (s *InMemoryStore) Get(_ context.Context, id string) (*AuthSession, error) {
	session, err := s.load(id)
	if err != nil {
		return nil, err
	}
	return session.Clone(), nil
}

// Delete removes the session
func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Delete(id)
	return nil
}

// Touch applies patch under the store lock. Like RedisStore.Touch it keeps the existing expiry.
func (s *InMemoryStore) Touch(_ context.Context, id string, patch Patch) (*AuthSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(id)
	if err != nil {
		return nil, err
	}

	next := patch.Apply(current)
	s.cache.Set(id, next, ttlcache.PreviousOrDefaultTTL)
	return next.Clone(), nil
}

// Len returns the number of stored sessions
func (s *InMemoryStore) Len() int {
	return s.cache.Len()
}

// Close stops the cleanup goroutine
func (s *InMemoryStore) Close() error {
	s.cache.Stop()
	return nil
}

func (s *InMemoryStore) load(id string) (*AuthSession, error) {
	if id == "" {
		return nil, apperrors.ErrNotFound
	}
	item := s.cache.Get(id)
	if item == nil {
		return nil, apperrors.ErrNotFound
	}
	session := item.Value()
	if session.Expired(s.nowTime()) {
		return nil, apperrors.ErrNotFound
	}
	return session, nil
}

func (s *InMemoryStore) ttlFor(session *AuthSession) time.Duration {
	if session.ExpiresAt.IsZero() {
		return ttlcache.DefaultTTL
	}
	if ttl := session.ExpiresAt.Sub(s.nowTime()); ttl > 0 {
		return ttl
	}
	// Already expired; keep it briefly so Get reports NotFound via Expired
	return time.Second
}

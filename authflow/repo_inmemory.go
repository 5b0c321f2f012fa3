package authflow

import (
	"context"
	"errors"
	"time"

	"github.com/jellydator/ttlcache/v3"
	apperrors "github.com/jrsteele09/storefront-auth/internal/errors"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface.
// Expired entries are evicted by the ttlcache cleanup loop.
type InMemoryRepo struct {
	cache   *ttlcache.Cache[string, PendingAuthRequest]
	ttl     time.Duration
	nowTime func() time.Time
}

// InMemoryOption configures an InMemoryRepo
type InMemoryOption func(*InMemoryRepo)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) InMemoryOption {
	return func(r *InMemoryRepo) {
		r.nowTime = nowFunc
	}
}

// NewInMemoryRepo creates a new in-memory pending request repository.
// Call Close to stop the cleanup goroutine.
func NewInMemoryRepo(ttl time.Duration, opts ...InMemoryOption) *InMemoryRepo {
	r := &InMemoryRepo{
		cache: ttlcache.New(
			ttlcache.WithTTL[string, PendingAuthRequest](ttl),
			ttlcache.WithDisableTouchOnHit[string, PendingAuthRequest](),
		),
		ttl:     ttl,
		nowTime: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	go r.cache.Start()

	return r
}

// Put stores a copy of the pending request
func (r *InMemoryRepo) Put(_ context.Context, req *PendingAuthRequest) error {
	if req == nil {
		return errors.New("pending request cannot be nil")
	}
	if req.State == "" {
		return errors.New("state cannot be empty")
	}
	r.cache.Set(req.State, *req, ttlcache.DefaultTTL)
	return nil
}

// Consume returns the pending request for state and removes it
func (r *InMemoryRepo) Consume(_ context.Context, state string) (*PendingAuthRequest, error) {
	if state == "" {
		return nil, apperrors.ErrNotFound
	}

	item, ok := r.cache.GetAndDelete(state)
	if !ok || item == nil {
		return nil, apperrors.ErrNotFound
	}

	req := item.Value()
	if req.Expired(r.nowTime(), r.ttl) {
		return nil, apperrors.ErrNotFound
	}
	return &req, nil
}

// Delete removes a pending request
func (r *InMemoryRepo) Delete(_ context.Context, state string) error {
	r.cache.Delete(state)
	return nil
}

// Len returns the number of stored requests
func (r *InMemoryRepo) Len() int {
	return r.cache.Len()
}

// Close stops the cleanup goroutine
func (r *InMemoryRepo) Close() error {
	r.cache.Stop()
	return nil
}

package authflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/jrsteele09/storefront-auth/internal/errors"
	"github.com/redis/go-redis/v9"
)

var _ Repo = (*RedisRepo)(nil)

// RedisRepo stores pending requests as JSON strings that expire with the repo ttl.
// Consume uses GETDEL so two concurrent callbacks cannot both redeem the same state.
type RedisRepo struct {
	client  redis.Cmdable
	prefix  string
	ttl     time.Duration
	nowTime func() time.Time
}

// RedisOption configures a RedisRepo
type RedisOption func(*RedisRepo)

// WithRedisNowTime sets the now time function (primarily for testing)
func WithRedisNowTime(nowFunc func() time.Time) RedisOption {
	return func(r *RedisRepo) {
		r.nowTime = nowFunc
	}
}

// NewRedisRepo creates a new Redis backed pending request repository
func NewRedisRepo(client redis.Cmdable, prefix string, ttl time.Duration, opts ...RedisOption) *RedisRepo {
	r := &RedisRepo{
		client:  client,
		prefix:  prefix,
		ttl:     ttl,
		nowTime: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisRepo) key(state string) string {
	return fmt.Sprintf("%s:authflow:%s", r.prefix, state)
}

// Put stores the pending request
func (r *RedisRepo) Put(ctx context.Context, req *PendingAuthRequest) error {
	if req == nil || req.State == "" {
		return errors.New("pending request with a state is required")
	}

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("[RedisRepo Put] failed to marshal pending request: %w", err)
	}
	if err := r.client.Set(ctx, r.key(req.State), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("[RedisRepo Put] failed to store pending request: %w", err)
	}
	return nil
}

// Consume atomically reads and deletes the pending request
func (r *RedisRepo) Consume(ctx context.Context, state string) (*PendingAuthRequest, error) {
	if state == "" {
		return nil, apperrors.ErrNotFound
	}

	data, err := r.client.GetDel(ctx, r.key(state)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[RedisRepo Consume] failed to read pending request: %w", err)
	}

	var req PendingAuthRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("[RedisRepo Consume] failed to unmarshal pending request: %w", err)
	}
	if req.Expired(r.nowTime(), r.ttl) {
		return nil, apperrors.ErrNotFound
	}
	return &req, nil
}

// Delete removes a pending request
func (r *RedisRepo) Delete(ctx context.Context, state string) error {
	return r.client.Del(ctx, r.key(state)).Err()
}

package refresh

import (
	"context"
	"time"

	"github.com/jrsteele09/storefront-auth/sessions"
)

// Refresher exchanges a session's refresh token for a new token set.
// *token.Client satisfies it. Failures must unwrap to apperrors.ErrRefreshFailed.
type Refresher interface {
	Refresh(ctx context.Context, session *sessions.AuthSession) (*sessions.AuthSession, error)
}

// Locker serialises refreshes of one session across processes. *sessions.RedisStore satisfies it.
// release must only drop the lock if it is still held by this caller.
type Locker interface {
	LockRefresh(ctx context.Context, id string, ttl time.Duration) (release func(), acquired bool, err error)
}

package refresh

import (
	"context"
	"time"

	apperrors "github.com/jrsteele09/storefront-auth/internal/errors"
	"github.com/jrsteele09/storefront-auth/internal/metrics"
	"github.com/jrsteele09/storefront-auth/sessions"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	defaultLockTTL      = 15 * time.Second
	defaultPollInterval = 50 * time.Millisecond
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Manager keeps access tokens fresh before they are sent to the downstream API.
// At most one refresh per session id is in flight; concurrent callers share its result.
// When the store is a Locker the guarantee also holds across every instance sharing that store.
type Manager struct {
	store        sessions.Store
	refresher    Refresher
	metrics      *metrics.Metrics
	locker       Locker
	lockTTL      time.Duration
	pollInterval time.Duration
	group        singleflight.Group
}

// Option configures a Manager
type Option func(*Manager)

// WithLockTTL bounds how long a refresh lock is held. It should exceed the token endpoint timeout.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLockPollInterval sets how often a waiting instance checks for the holder's result
func WithLockPollInterval(d time.Duration) Option {
	return func(m *Manager) {
		m.pollInterval = d
	}
}

// NewManager creates a new refresh manager
func NewManager(store sessions.Store, refresher Refresher, m *metrics.Metrics, opts ...Option) *Manager {
	manager := &Manager{
		store:        store,
		refresher:    refresher,
		metrics:      m,
		lockTTL:      defaultLockTTL,
		pollInterval: defaultPollInterval,
	}
	if l, ok := store.(Locker); ok {
		manager.locker = l
	}
	for _, opt := range opts {
		opt(manager)
	}
	return manager
}

// NeedsRefresh reports whether the access token expires within skew
func NeedsRefresh(session *sessions.AuthSession, skew time.Duration) bool {
	return session.AccessTokenExpiry.Sub(NowTimeFunc()) <= skew
}

// EnsureFresh returns session unchanged when its access token is valid for longer than skew.
// Otherwise it refreshes, persists the new token set through the store and returns the result.
// On failure the session is deleted and the error unwraps to ErrRefreshFailed: the user must sign in again.
func (m *Manager) EnsureFresh(ctx context.Context, session *sessions.AuthSession, skew time.Duration) (*sessions.AuthSession, error) {
	if session == nil {
		return nil, apperrors.ErrNotFound
	}
	if !NeedsRefresh(session, skew) {
		return session, nil
	}

	// The flight outlives any single caller so one cancelled request cannot fail the others
	flightCtx := context.WithoutCancel(ctx)
	v, err, shared := m.group.Do(session.ID, func() (any, error) {
		return m.refresh(flightCtx, session.ID, skew)
	})
	if err != nil {
		return nil, err
	}

	if shared {
		zerolog.Ctx(ctx).Debug().Str("session_id_prefix", idPrefix(session.ID)).Msg("joined in-flight refresh")
	}
	return v.(*sessions.AuthSession).Clone(), nil
}

func (m *Manager) refresh(ctx context.Context, id string, skew time.Duration) (*sessions.AuthSession, error) {
	logger := zerolog.Ctx(ctx).With().Str("session_id_prefix", idPrefix(id)).Logger()

	// Re-read inside the flight: a refresh that completed just before this one started has
	// already rotated the tokens, and repeating it would present a spent refresh token.
	current, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[refresh Manager] %w", apperrors.ErrRefreshFailed)
	}
	if !NeedsRefresh(current, skew) {
		return current, nil
	}

	if m.locker != nil {
		release, refreshed, err := m.lockOrWait(ctx, id, skew)
		if err != nil {
			logger.Warn().Err(err).Msg("could not take the refresh lock")
			return nil, apperrors.Wrapf(err, "[refresh Manager] %w", apperrors.ErrRefreshFailed)
		}
		if refreshed != nil {
			logger.Debug().Msg("refresh completed by another instance")
			return refreshed, nil
		}
		defer release()

		// The previous holder may have finished between our read and taking the lock
		if current, err = m.store.Get(ctx, id); err != nil {
			return nil, apperrors.Wrapf(err, "[refresh Manager] %w", apperrors.ErrRefreshFailed)
		}
		if !NeedsRefresh(current, skew) {
			return current, nil
		}
	}

	updated, err := m.refresher.Refresh(ctx, current)
	if err != nil {
		m.metrics.RecordRefresh(false)
		if latest := m.rotatedElsewhere(ctx, current, skew); latest != nil {
			logger.Info().Err(err).Msg("refresh token already rotated by a concurrent refresh, using its result")
			return latest, nil
		}
		logger.Warn().Err(err).Msg("access token refresh failed, invalidating session")
		if delErr := m.store.Delete(ctx, id); delErr != nil {
			logger.Err(delErr).Msg("failed to delete session after refresh failure")
		} else {
			m.metrics.RecordSessionDeleted("refresh_failed")
		}
		if !apperrors.Is(err, apperrors.ErrRefreshFailed) {
			err = apperrors.Wrapf(err, "[refresh Manager] %w", apperrors.ErrRefreshFailed)
		}
		return nil, err
	}

	touched, err := m.store.Touch(ctx, id, sessions.Patch{
		AccessToken:       updated.AccessToken,
		RefreshToken:      updated.RefreshToken,
		AccessTokenExpiry: updated.AccessTokenExpiry,
		IDToken:           updated.IDToken,
		IDTokenClaims:     updated.IDTokenClaims,
	})
	if err != nil {
		m.metrics.RecordRefresh(false)
		return nil, apperrors.Wrapf(err, "[refresh Manager] %w: failed to persist refreshed tokens", apperrors.ErrRefreshFailed)
	}

	m.metrics.RecordRefresh(true)
	logger.Debug().Time("access_token_expiry", touched.AccessTokenExpiry).Msg("access token refreshed")
	return touched, nil
}

// lockOrWait takes the refresh lock for id. While another instance holds it, the store is polled
// and the session that instance refreshed is returned instead of a release func.
func (m *Manager) lockOrWait(ctx context.Context, id string, skew time.Duration) (func(), *sessions.AuthSession, error) {
	// A holder's lock lapses after lockTTL, so waiting twice as long means something is wrong
	deadline := time.NewTimer(2 * m.lockTTL)
	defer deadline.Stop()
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		release, acquired, err := m.locker.LockRefresh(ctx, id, m.lockTTL)
		if err != nil {
			return nil, nil, err
		}
		if acquired {
			return release, nil, nil
		}

		latest, err := m.store.Get(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		if !NeedsRefresh(latest, skew) {
			return nil, latest, nil
		}

		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-deadline.C:
			return nil, nil, apperrors.Wrapf(apperrors.ErrRefreshLocked, "waited %s", 2*m.lockTTL)
		case <-ticker.C:
		}
	}
}

// rotatedElsewhere returns the stored session when its tokens changed while our refresh was failing.
// The provider then rejected a refresh token that had already been spent, not the user's grant.
func (m *Manager) rotatedElsewhere(ctx context.Context, presented *sessions.AuthSession, skew time.Duration) *sessions.AuthSession {
	latest, err := m.store.Get(ctx, presented.ID)
	if err != nil {
		return nil
	}
	if latest.RefreshToken == presented.RefreshToken && latest.AccessToken == presented.AccessToken {
		return nil
	}
	if NeedsRefresh(latest, skew) {
		return nil
	}
	return latest
}

// idPrefix keeps session ids out of logs while still allowing correlation
func idPrefix(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

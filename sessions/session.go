package sessions

import (
	"context"
	"maps"
	"time"
)

// AuthSession is the server-side record of a signed-in user, keyed by an opaque session id.
// The browser only ever holds ID; the token set stays in the Store.
type AuthSession struct {
	ID                string         `json:"id"`                // Opaque, unguessable session identifier (cookie value)
	UserID            string         `json:"userId"`            // Subject claim of the ID token
	AccessToken       string         `json:"accessToken"`       // Bearer token for the downstream API
	RefreshToken      string         `json:"-"`                 // Never serialised; stores seal it separately
	IDToken           string         `json:"idToken,omitempty"` // Raw ID token, used as id_token_hint on logout
	IDTokenClaims     map[string]any `json:"idTokenClaims,omitempty"`
	AccessTokenExpiry time.Time      `json:"accessTokenExpiry"`
	CreatedAt         time.Time      `json:"createdAt"`
	ExpiresAt         time.Time      `json:"expiresAt"` // Absolute session lifetime, zero for none
}

// Clone returns a deep copy so callers never share mutable state with a store
func (s *AuthSession) Clone() *AuthSession {
	if s == nil {
		return nil
	}
	c := *s
	if s.IDTokenClaims != nil {
		c.IDTokenClaims = maps.Clone(s.IDTokenClaims)
	}
	return &c
}

// Expired reports whether the session lifetime has elapsed at now
func (s *AuthSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// StringClaim returns a string claim from the ID token, or "" when absent
func (s *AuthSession) StringClaim(name string) string {
	if v, ok := s.IDTokenClaims[name].(string); ok {
		return v
	}
	return ""
}

// Patch is an in-place update produced by a token refresh.
// AccessToken, RefreshToken and AccessTokenExpiry are always applied together.
type Patch struct {
	AccessToken       string
	RefreshToken      string // Empty keeps the current refresh token (provider did not rotate it)
	AccessTokenExpiry time.Time
	IDToken           string         // Empty keeps the current ID token
	IDTokenClaims     map[string]any // Nil keeps the current claims
}

// Apply returns a copy of s with the patch applied
func (p Patch) Apply(s *AuthSession) *AuthSession {
	next := s.Clone()
	next.AccessToken = p.AccessToken
	next.AccessTokenExpiry = p.AccessTokenExpiry
	if p.RefreshToken != "" {
		next.RefreshToken = p.RefreshToken
	}
	if p.IDToken != "" {
		next.IDToken = p.IDToken
	}
	if p.IDTokenClaims != nil {
		next.IDTokenClaims = maps.Clone(p.IDTokenClaims)
	}
	return next
}

// Store exclusively owns AuthSession records. All mutation goes through Put, Touch and Delete.
type Store interface {
	// Put stores a new or replacement session
	Put(ctx context.Context, session *AuthSession) error

	// Get returns a copy of the session. Unknown or expired ids return apperrors.ErrNotFound.
	Get(ctx context.Context, id string) (*AuthSession, error)

	// Delete removes the session. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error

	// Touch atomically applies patch and returns the updated copy.
	// Readers observe either the old or the new token pair and expiry, never a mix.
	Touch(ctx context.Context, id string, patch Patch) (*AuthSession, error)
}

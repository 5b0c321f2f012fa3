package authflow

import (
	"context"
	"time"
)

// PendingAuthRequest is the server-side half of an in-flight login attempt.
// It is created when the authorization URL is issued and consumed exactly once at callback time.
type PendingAuthRequest struct {
	State        string    `json:"state"`        // Opaque, unguessable, single-use
	CodeVerifier string    `json:"codeVerifier"` // PKCE verifier, never sent to the provider before the exchange
	Nonce        string    `json:"nonce"`        // Checked against the ID token nonce claim
	RedirectURI  string    `json:"redirectUri"`  // Must be repeated verbatim at the token endpoint
	ReturnTo     string    `json:"returnTo"`     // Local path to send the user to after login
	CreatedAt    time.Time `json:"createdAt"`
}

// Expired reports whether the request is older than ttl at now
func (p *PendingAuthRequest) Expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(p.CreatedAt) > ttl
}

// Repo stores pending authorization requests keyed by state.
// Entries that are never consumed are reclaimed after the repo's expiry window.
type Repo interface {
	// Put stores a pending request under its state
	Put(ctx context.Context, req *PendingAuthRequest) error

	// Consume atomically returns and removes the request for state. A second Consume for the
	// same state, an unknown state or an expired request returns apperrors.ErrNotFound.
	Consume(ctx context.Context, state string) (*PendingAuthRequest, error)

	// Delete discards a pending request without returning it
	Delete(ctx context.Context, state string) error
}

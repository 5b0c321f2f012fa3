package oauthmodel

import (
	"net/url"
	"strings"
)

// AuthorizationParameters holds the query parameters the storefront sends to the
// identity provider's authorization endpoint.
type AuthorizationParameters struct {
	// ClientID identifies the storefront at the identity provider.
	// Example: "storefront"
	ClientID string

	// RedirectURI is where the provider sends the user agent back with code and state.
	// Must exactly match a URI registered for the client at the provider.
	// Example: "https://shop.example.com/auth/callback"
	RedirectURI string

	// ResponseType is always "code" for the authorization code flow.
	ResponseType ResponseType

	// Scopes requested. Must include "openid".
	// Example: ["openid", "profile", "email", "offline_access"]
	Scopes []string

	// State is the opaque, single-use CSRF token round-tripped through the provider.
	State string

	// Nonce binds the ID token to this login attempt.
	Nonce string

	// CodeChallenge is BASE64URL(SHA256(code_verifier)), 43 characters for S256.
	CodeChallenge string

	// CodeChallengeMethod is always S256 for this client.
	CodeChallengeMethod CodeMethodType
}

// HasScope reports whether scope was requested
func (p *AuthorizationParameters) HasScope(scope string) bool {
	for _, s := range p.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Validate checks the parameters before any URL is composed.
func (p *AuthorizationParameters) Validate() error {
	if strings.TrimSpace(p.ClientID) == "" {
		return ErrMissingClientID
	}
	if !p.HasScope(ScopeOpenID) {
		return ErrMissingOpenIDScope
	}
	if !redirectURIValid(p.RedirectURI) {
		return ErrInvalidRedirectUri
	}
	if p.ResponseType != CodeResponseType {
		return ErrInvalidResponseType
	}
	if p.State == "" {
		return ErrMissingState
	}
	if len(p.CodeChallenge) < 43 || len(p.CodeChallenge) > 128 {
		return ErrInvalidCodeChallenge
	}
	if p.CodeChallengeMethod != CodeMethodTypeS256 {
		return ErrInvalidCodeChallengeMethod
	}
	return nil
}

func redirectURIValid(redirectURI string) bool {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return false
	}
	return u.IsAbs() && u.Host != "" && u.Fragment == ""
}

package auth

import (
	"fmt"
	"time"

	"github.com/jrsteele09/storefront-auth/authflow"
	apperrors "github.com/jrsteele09/storefront-auth/internal/errors"
	"github.com/jrsteele09/storefront-auth/oauthmodel"
	"github.com/jrsteele09/storefront-auth/pkce"
	"golang.org/x/oauth2"
)

// ClientConfig is the identity provider client registration used to build authorization URLs.
type ClientConfig struct {
	ClientID    string   // Client registered at the provider
	AuthURL     string   // Provider authorization endpoint
	RedirectURI string   // Callback registered for the client
	Scopes      []string // Must include "openid"
}

// AuthorizationRequest is the result of BuildAuthorizationURL.
// Pending must be persisted by the caller before the user agent is redirected to URL.
type AuthorizationRequest struct {
	URL     string
	State   string
	Pending *authflow.PendingAuthRequest
}

// Authorizer composes identity provider authorization URLs for the authorization code + PKCE flow.
// It generates but never stores anything.
type Authorizer struct {
	config    ClientConfig
	generator *pkce.Generator
	nowTime   func() time.Time
}

// AuthorizerOption defines a function type to modify the Authorizer instance.
type AuthorizerOption func(*Authorizer)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) AuthorizerOption {
	return func(a *Authorizer) {
		a.nowTime = nowFunc
	}
}

// WithGenerator replaces the default crypto/rand backed generator
func WithGenerator(g *pkce.Generator) AuthorizerOption {
	return func(a *Authorizer) {
		a.generator = g
	}
}

// NewAuthorizer creates an Authorizer for the given client registration
func NewAuthorizer(cfg ClientConfig, opts ...AuthorizerOption) *Authorizer {
	a := &Authorizer{
		config:    cfg,
		generator: pkce.NewGenerator(),
		nowTime:   time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BuildAuthorizationURL generates a fresh state, nonce and PKCE pair and composes the authorization
// endpoint URL. returnTo is carried in the pending request for use after the callback.
func (a *Authorizer) BuildAuthorizationURL(returnTo string) (*AuthorizationRequest, error) {
	params := oauthmodel.AuthorizationParameters{
		ClientID:     a.config.ClientID,
		RedirectURI:  a.config.RedirectURI,
		ResponseType: oauthmodel.CodeResponseType,
		Scopes:       a.config.Scopes,
	}
	// Scope is checked before any randomness is drawn so misconfiguration fails fast
	if !params.HasScope(oauthmodel.ScopeOpenID) {
		return nil, apperrors.Wrapf(oauthmodel.ErrMissingOpenIDScope, "[Authorizer BuildAuthorizationURL] %w", apperrors.ErrInvalidScope)
	}

	state, err := a.generator.Token()
	if err != nil {
		return nil, err
	}
	nonce, err := a.generator.Token()
	if err != nil {
		return nil, err
	}
	challenge, err := a.generator.Generate()
	if err != nil {
		return nil, err
	}
	params.State = state
	params.Nonce = nonce
	params.CodeChallenge = challenge.Challenge
	params.CodeChallengeMethod = challenge.Method

	if err := params.Validate(); err != nil {
		return nil, classifyValidation(err)
	}
	if a.config.AuthURL == "" {
		return nil, fmt.Errorf("[Authorizer BuildAuthorizationURL] %w: authorization endpoint is not configured", apperrors.ErrInvalidRequest)
	}

	oauthCfg := oauth2.Config{
		ClientID:    params.ClientID,
		RedirectURL: params.RedirectURI,
		Scopes:      params.Scopes,
		Endpoint:    oauth2.Endpoint{AuthURL: a.config.AuthURL},
	}
	authURL := oauthCfg.AuthCodeURL(params.State,
		oauth2.SetAuthURLParam(oauthmodel.ParamNonce, params.Nonce),
		oauth2.SetAuthURLParam(oauthmodel.ParamCodeChallenge, params.CodeChallenge),
		oauth2.SetAuthURLParam(oauthmodel.ParamCodeChallengeMethod, string(params.CodeChallengeMethod)),
	)

	return &AuthorizationRequest{
		URL:   authURL,
		State: state,
		Pending: &authflow.PendingAuthRequest{
			State:        state,
			CodeVerifier: challenge.Verifier,
			Nonce:        nonce,
			RedirectURI:  params.RedirectURI,
			ReturnTo:     returnTo,
			CreatedAt:    a.nowTime(),
		},
	}, nil
}

func classifyValidation(err error) error {
	switch {
	case apperrors.Is(err, oauthmodel.ErrInvalidRedirectUri):
		return apperrors.Wrapf(err, "[Authorizer BuildAuthorizationURL] %w", apperrors.ErrInvalidRedirectURI)
	default:
		return apperrors.Wrapf(err, "[Authorizer BuildAuthorizationURL] %w", apperrors.ErrInvalidRequest)
	}
}

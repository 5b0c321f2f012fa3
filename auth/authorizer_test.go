package auth_test

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/jrsteele09/storefront-auth/auth"
	apperrors "github.com/jrsteele09/storefront-auth/internal/errors"
	"github.com/jrsteele09/storefront-auth/pkce"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testClientID    = "storefront"
	testAuthURL     = "https://idp.example.com/realms/shop/protocol/openid-connect/auth"
	testRedirectURI = "https://shop.example.com/auth/callback"
)

func validConfig() auth.ClientConfig {
	return auth.ClientConfig{
		ClientID:    testClientID,
		AuthURL:     testAuthURL,
		RedirectURI: testRedirectURI,
		Scopes:      []string{"openid", "profile", "email"},
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy pool closed") }

func TestBuildAuthorizationURL(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	a := auth.NewAuthorizer(validConfig(), auth.WithNowTime(func() time.Time { return now }))

	req, err := a.BuildAuthorizationURL("/dashboard/products")
	require.NoError(t, err)

	u, err := url.Parse(req.URL)
	require.NoError(t, err)
	require.Equal(t, "idp.example.com", u.Host)
	require.Equal(t, "/realms/shop/protocol/openid-connect/auth", u.Path)

	q := u.Query()
	assert.Equal(t, testClientID, q.Get("client_id"))
	assert.Equal(t, testRedirectURI, q.Get("redirect_uri"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "openid profile email", q.Get("scope"))
	assert.Equal(t, req.State, q.Get("state"))
	assert.Equal(t, req.Pending.Nonce, q.Get("nonce"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, pkce.ChallengeFromVerifier(req.Pending.CodeVerifier), q.Get("code_challenge"))

	require.NotNil(t, req.Pending)
	assert.Equal(t, req.State, req.Pending.State)
	assert.Equal(t, testRedirectURI, req.Pending.RedirectURI)
	assert.Equal(t, "/dashboard/products", req.Pending.ReturnTo)
	assert.Equal(t, now, req.Pending.CreatedAt)
	assert.Empty(t, q.Get("code_verifier"), "verifier must never appear in the authorization URL")
}

func TestBuildAuthorizationURL_FreshStatePerCall(t *testing.T) {
	a := auth.NewAuthorizer(validConfig())

	first, err := a.BuildAuthorizationURL("/")
	require.NoError(t, err)
	second, err := a.BuildAuthorizationURL("/")
	require.NoError(t, err)

	require.NotEqual(t, first.State, second.State)
	require.NotEqual(t, first.Pending.CodeVerifier, second.Pending.CodeVerifier)
	require.NotEqual(t, first.Pending.Nonce, second.Pending.Nonce)
}

func TestBuildAuthorizationURL_Validation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *auth.ClientConfig)
		wantErr error
	}{
		{
			name:    "missing openid scope",
			modify:  func(c *auth.ClientConfig) { c.Scopes = []string{"profile", "email"} },
			wantErr: apperrors.ErrInvalidScope,
		},
		{
			name:    "no scopes",
			modify:  func(c *auth.ClientConfig) { c.Scopes = nil },
			wantErr: apperrors.ErrInvalidScope,
		},
		{
			name:    "relative redirect uri",
			modify:  func(c *auth.ClientConfig) { c.RedirectURI = "/auth/callback" },
			wantErr: apperrors.ErrInvalidRedirectURI,
		},
		{
			name:    "missing client id",
			modify:  func(c *auth.ClientConfig) { c.ClientID = "" },
			wantErr: apperrors.ErrInvalidRequest,
		},
		{
			name:    "missing authorization endpoint",
			modify:  func(c *auth.ClientConfig) { c.AuthURL = "" },
			wantErr: apperrors.ErrInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			req, err := auth.NewAuthorizer(cfg).BuildAuthorizationURL("/")
			require.ErrorIs(t, err, tt.wantErr)
			require.Nil(t, req)
		})
	}
}

func TestBuildAuthorizationURL_MissingOpenIDDrawsNoRandomness(t *testing.T) {
	cfg := validConfig()
	cfg.Scopes = []string{"profile"}
	// A failing source would surface RandomnessUnavailable if the scope check ran late
	a := auth.NewAuthorizer(cfg, auth.WithGenerator(pkce.NewGenerator(pkce.WithRandom(failingReader{}))))

	_, err := a.BuildAuthorizationURL("/")
	require.ErrorIs(t, err, apperrors.ErrInvalidScope)
}

func TestBuildAuthorizationURL_RandomnessUnavailable(t *testing.T) {
	a := auth.NewAuthorizer(validConfig(), auth.WithGenerator(pkce.NewGenerator(pkce.WithRandom(failingReader{}))))

	_, err := a.BuildAuthorizationURL("/")
	require.ErrorIs(t, err, apperrors.ErrRandomnessUnavailable)
}

package token_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/storefront-auth/authflow"
	apperrors "github.com/jrsteele09/storefront-auth/internal/errors"
	"github.com/jrsteele09/storefront-auth/internal/idptest"
	"github.com/jrsteele09/storefront-auth/oauthmodel"
	"github.com/jrsteele09/storefront-auth/sessions"
	"github.com/jrsteele09/storefront-auth/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testClientID    = "storefront"
	testRedirectURI = "https://shop.example.com/auth/callback"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newClient(t *testing.T, p *idptest.Provider, opts ...token.ClientOption) *token.Client {
	t.Helper()
	opts = append([]token.ClientOption{token.WithNowTime(func() time.Time { return testNow })}, opts...)
	return token.NewClient(token.ClientConfig{ClientID: testClientID, TokenURL: p.TokenURL()}, opts...)
}

func pending(state, verifier string) *authflow.PendingAuthRequest {
	return &authflow.PendingAuthRequest{
		State:        state,
		CodeVerifier: verifier,
		Nonce:        "nonce-1",
		RedirectURI:  testRedirectURI,
		CreatedAt:    testNow.Add(-time.Minute),
	}
}

func TestExchange_Success(t *testing.T) {
	p := idptest.NewProvider(idptest.Tokens(oauthmodel.TokenResponse{AccessToken: "AT1", ExpiresIn: 3600, TokenType: "Bearer"}))
	t.Cleanup(p.Close)

	session, err := newClient(t, p).Exchange(context.Background(), "abc", "s1", pending("s1", "v1"))
	require.NoError(t, err)

	form := p.LastRequest()
	assert.Equal(t, "authorization_code", form.Get("grant_type"))
	assert.Equal(t, "abc", form.Get("code"))
	assert.Equal(t, "v1", form.Get("code_verifier"))
	assert.Equal(t, testClientID, form.Get("client_id"))
	assert.Equal(t, testRedirectURI, form.Get("redirect_uri"))

	assert.Equal(t, "AT1", session.AccessToken)
	assert.Equal(t, testNow.Add(3600*time.Second), session.AccessTokenExpiry)
	assert.Equal(t, testNow, session.CreatedAt)
	assert.Equal(t, testNow.Add(24*time.Hour), session.ExpiresAt)
	assert.Len(t, session.ID, 43)
}

func TestExchange_IDTokenClaims(t *testing.T) {
	idToken := idptest.MintIDToken(jwt.MapClaims{"sub": "user-42", "email": "jane@example.com", "nonce": "nonce-1"})
	p := idptest.NewProvider(idptest.Tokens(oauthmodel.TokenResponse{
		AccessToken: "AT1", RefreshToken: "RT1", IdToken: idToken, ExpiresIn: 300,
	}))
	t.Cleanup(p.Close)

	session, err := newClient(t, p).Exchange(context.Background(), "abc", "s1", pending("s1", "v1"))
	require.NoError(t, err)
	assert.Equal(t, "user-42", session.UserID)
	assert.Equal(t, "RT1", session.RefreshToken)
	assert.Equal(t, idToken, session.IDToken)
	assert.Equal(t, "jane@example.com", session.StringClaim("email"))
}

func TestExchange_NonceMismatch(t *testing.T) {
	idToken := idptest.MintIDToken(jwt.MapClaims{"sub": "user-42", "nonce": "someone-else"})
	p := idptest.NewProvider(idptest.Tokens(oauthmodel.TokenResponse{AccessToken: "AT1", IdToken: idToken, ExpiresIn: 300}))
	t.Cleanup(p.Close)

	_, err := newClient(t, p).Exchange(context.Background(), "abc", "s1", pending("s1", "v1"))
	require.ErrorIs(t, err, apperrors.ErrInvalidState)
}

type stubVerifier struct {
	claims map[string]any
	err    error
	raw    string
}

func (s *stubVerifier) Verify(_ context.Context, raw string) (map[string]any, error) {
	s.raw = raw
	return s.claims, s.err
}

func TestExchange_UsesVerifier(t *testing.T) {
	p := idptest.NewProvider(idptest.Tokens(oauthmodel.TokenResponse{AccessToken: "AT1", IdToken: "opaque.id.token", ExpiresIn: 300}))
	t.Cleanup(p.Close)

	v := &stubVerifier{claims: map[string]any{"sub": "verified-user", "nonce": "nonce-1"}}
	session, err := newClient(t, p, token.WithVerifier(v)).Exchange(context.Background(), "abc", "s1", pending("s1", "v1"))
	require.NoError(t, err)
	require.Equal(t, "opaque.id.token", v.raw)
	require.Equal(t, "verified-user", session.UserID)

	v.err = errors.New("bad signature")
	_, err = newClient(t, p, token.WithVerifier(v)).Exchange(context.Background(), "abc", "s1", pending("s1", "v1"))
	require.ErrorIs(t, err, apperrors.ErrMalformedTokenResponse)
}

func TestExchange_InvalidStateMakesNoNetworkCall(t *testing.T) {
	p := idptest.NewProvider(idptest.Tokens(oauthmodel.TokenResponse{AccessToken: "AT1", ExpiresIn: 3600}))
	t.Cleanup(p.Close)
	c := newClient(t, p)

	expired := pending("s1", "v1")
	expired.CreatedAt = testNow.Add(-11 * time.Minute)

	tests := []struct {
		name    string
		state   string
		pending *authflow.PendingAuthRequest
	}{
		{name: "no pending request", state: "s1", pending: nil},
		{name: "state mismatch", state: "s2", pending: pending("s1", "v1")},
		{name: "case differs", state: "S1", pending: pending("s1", "v1")},
		{name: "empty state", state: "", pending: pending("s1", "v1")},
		{name: "expired", state: "s1", pending: expired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Exchange(context.Background(), "abc", tt.state, tt.pending)
			require.ErrorIs(t, err, apperrors.ErrInvalidState)
		})
	}
	require.Zero(t, p.Calls())
}

func TestExchange_ProviderError(t *testing.T) {
	p := idptest.NewProvider(idptest.Error(http.StatusBadRequest, "invalid_grant"))
	t.Cleanup(p.Close)

	_, err := newClient(t, p).Exchange(context.Background(), "abc", "s1", pending("s1", "v1"))
	require.ErrorIs(t, err, apperrors.ErrTokenExchangeFailed)

	var exErr *token.ExchangeError
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, http.StatusBadRequest, exErr.StatusCode)
	assert.Equal(t, "invalid_grant", exErr.ProviderError)
	assert.Equal(t, token.OpExchange, exErr.Op)
	assert.Equal(t, 1, p.Calls(), "codes are single-use, never retried")
}

func TestExchange_MalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		resp oauthmodel.TokenResponse
	}{
		{name: "missing access_token", resp: oauthmodel.TokenResponse{ExpiresIn: 3600}},
		{name: "missing expires_in", resp: oauthmodel.TokenResponse{AccessToken: "AT1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := idptest.NewProvider(idptest.Tokens(tt.resp))
			t.Cleanup(p.Close)

			_, err := newClient(t, p).Exchange(context.Background(), "abc", "s1", pending("s1", "v1"))
			require.ErrorIs(t, err, apperrors.ErrMalformedTokenResponse)
			require.NotErrorIs(t, err, apperrors.ErrTokenExchangeFailed)
		})
	}
}

func TestExchange_ExpiresInCapped(t *testing.T) {
	tests := []struct {
		name      string
		expiresIn any
	}{
		{name: "number beyond duration range", expiresIn: 10_000_000_000},
		{name: "string at int64 max", expiresIn: "9223372036854775807"},
		{name: "just over a year", expiresIn: 365*24*60*60 + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := idptest.NewProvider(func(url.Values) (int, any) {
				return http.StatusOK, map[string]any{"access_token": "AT1", "token_type": "Bearer", "expires_in": tt.expiresIn}
			})
			t.Cleanup(p.Close)

			session, err := newClient(t, p).Exchange(context.Background(), "abc", "s1", pending("s1", "v1"))
			require.NoError(t, err)
			require.Equal(t, testNow.Add(365*24*time.Hour), session.AccessTokenExpiry)
		})
	}
}

func TestExchange_Timeout(t *testing.T) {
	p := idptest.NewProvider(idptest.Tokens(oauthmodel.TokenResponse{AccessToken: "AT1", ExpiresIn: 3600}))
	t.Cleanup(p.Close)
	p.Hold()
	t.Cleanup(p.Release)

	_, err := newClient(t, p, token.WithTimeout(50*time.Millisecond)).Exchange(context.Background(), "abc", "s1", pending("s1", "v1"))
	require.ErrorIs(t, err, apperrors.ErrTokenExchangeFailed)

	var exErr *token.ExchangeError
	require.ErrorAs(t, err, &exErr)
	require.Zero(t, exErr.StatusCode)
}

func TestExchange_Unreachable(t *testing.T) {
	c := token.NewClient(token.ClientConfig{ClientID: testClientID, TokenURL: "http://127.0.0.1:1/token"})
	_, err := c.Exchange(context.Background(), "abc", "s1", pending("s1", "v1"))
	require.ErrorIs(t, err, apperrors.ErrTokenExchangeFailed)
}

func sessionWithRefresh(rt string) *sessions.AuthSession {
	return &sessions.AuthSession{
		ID:                "sess-1",
		UserID:            "user-1",
		AccessToken:       "AT0",
		RefreshToken:      rt,
		AccessTokenExpiry: testNow.Add(10 * time.Second),
		CreatedAt:         testNow.Add(-time.Hour),
	}
}

func TestRefresh_Success(t *testing.T) {
	p := idptest.NewProvider(func(form url.Values) (int, any) {
		return http.StatusOK, oauthmodel.TokenResponse{AccessToken: "AT2", RefreshToken: "RT2", ExpiresIn: 600}
	})
	t.Cleanup(p.Close)

	updated, err := newClient(t, p).Refresh(context.Background(), sessionWithRefresh("RT1"))
	require.NoError(t, err)

	form := p.LastRequest()
	assert.Equal(t, "refresh_token", form.Get("grant_type"))
	assert.Equal(t, "RT1", form.Get("refresh_token"))
	assert.Equal(t, testClientID, form.Get("client_id"))

	assert.Equal(t, "sess-1", updated.ID)
	assert.Equal(t, "AT2", updated.AccessToken)
	assert.Equal(t, "RT2", updated.RefreshToken)
	assert.Equal(t, testNow.Add(600*time.Second), updated.AccessTokenExpiry)
}

func TestRefresh_KeepsRefreshTokenWhenNotRotated(t *testing.T) {
	p := idptest.NewProvider(idptest.Tokens(oauthmodel.TokenResponse{AccessToken: "AT2", ExpiresIn: 600}))
	t.Cleanup(p.Close)

	updated, err := newClient(t, p).Refresh(context.Background(), sessionWithRefresh("RT1"))
	require.NoError(t, err)
	require.Equal(t, "RT1", updated.RefreshToken)
}

func TestRefresh_Failures(t *testing.T) {
	t.Run("provider rejects", func(t *testing.T) {
		p := idptest.NewProvider(idptest.Error(http.StatusBadRequest, "invalid_grant"))
		t.Cleanup(p.Close)

		_, err := newClient(t, p).Refresh(context.Background(), sessionWithRefresh("RT1"))
		require.ErrorIs(t, err, apperrors.ErrRefreshFailed)

		var exErr *token.ExchangeError
		require.ErrorAs(t, err, &exErr)
		require.Equal(t, http.StatusBadRequest, exErr.StatusCode)
		require.Equal(t, token.OpRefresh, exErr.Op)
	})

	t.Run("no refresh token", func(t *testing.T) {
		p := idptest.NewProvider(idptest.Tokens(oauthmodel.TokenResponse{AccessToken: "AT2", ExpiresIn: 600}))
		t.Cleanup(p.Close)

		_, err := newClient(t, p).Refresh(context.Background(), sessionWithRefresh(""))
		require.ErrorIs(t, err, apperrors.ErrRefreshFailed)
		require.Zero(t, p.Calls())
	})

	t.Run("malformed response", func(t *testing.T) {
		p := idptest.NewProvider(idptest.Tokens(oauthmodel.TokenResponse{AccessToken: "AT2"}))
		t.Cleanup(p.Close)

		_, err := newClient(t, p).Refresh(context.Background(), sessionWithRefresh("RT1"))
		require.ErrorIs(t, err, apperrors.ErrRefreshFailed)
		require.ErrorIs(t, err, apperrors.ErrMalformedTokenResponse)
	})
}

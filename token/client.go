package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jrsteele09/storefront-auth/authflow"
	apperrors "github.com/jrsteele09/storefront-auth/internal/errors"
	"github.com/jrsteele09/storefront-auth/internal/metrics"
	"github.com/jrsteele09/storefront-auth/oauthmodel"
	"github.com/jrsteele09/storefront-auth/pkce"
	"github.com/jrsteele09/storefront-auth/sessions"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
)

const (
	defaultTimeout       = 10 * time.Second
	defaultPendingTTL    = 10 * time.Minute
	defaultSessionMaxAge = 24 * time.Hour

	// maxExpiresIn caps expires_in (one year in seconds) so the expiry never overflows time.Duration
	maxExpiresIn = 365 * 24 * 60 * 60
)

// ClientConfig is the identity provider client registration used at the token endpoint.
type ClientConfig struct {
	ClientID     string
	ClientSecret string // Empty for public clients
	TokenURL     string
}

// Client talks to the identity provider's token endpoint: it redeems authorization codes
// and refreshes access tokens. Calls are never retried.
type Client struct {
	config        ClientConfig
	httpClient    *http.Client
	verifier      IDTokenVerifier
	generator     *pkce.Generator
	metrics       *metrics.Metrics
	tracer        trace.Tracer
	timeout       time.Duration
	pendingTTL    time.Duration
	sessionMaxAge time.Duration
	nowTime       func() time.Time
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for token endpoint calls
func WithHTTPClient(c *http.Client) ClientOption {
	return func(tc *Client) {
		tc.httpClient = c
	}
}

// WithVerifier verifies ID tokens instead of reading their claims unverified
func WithVerifier(v IDTokenVerifier) ClientOption {
	return func(tc *Client) {
		tc.verifier = v
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ClientOption {
	return func(tc *Client) {
		tc.nowTime = nowFunc
	}
}

// WithTimeout bounds each token endpoint call
func WithTimeout(d time.Duration) ClientOption {
	return func(tc *Client) {
		tc.timeout = d
	}
}

// WithPendingTTL sets how long a pending authorization request stays redeemable
func WithPendingTTL(d time.Duration) ClientOption {
	return func(tc *Client) {
		tc.pendingTTL = d
	}
}

// WithSessionMaxAge sets the absolute lifetime of sessions created by Exchange
func WithSessionMaxAge(d time.Duration) ClientOption {
	return func(tc *Client) {
		tc.sessionMaxAge = d
	}
}

// WithGenerator sets the generator used for session ids
func WithGenerator(g *pkce.Generator) ClientOption {
	return func(tc *Client) {
		tc.generator = g
	}
}

// WithMetrics records token endpoint calls
func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(tc *Client) {
		tc.metrics = m
	}
}

// NewClient creates a token endpoint client
func NewClient(cfg ClientConfig, opts ...ClientOption) *Client {
	c := &Client{
		config:        cfg,
		generator:     pkce.NewGenerator(),
		tracer:        otel.Tracer("github.com/jrsteele09/storefront-auth/token"),
		timeout:       defaultTimeout,
		pendingTTL:    defaultPendingTTL,
		sessionMaxAge: defaultSessionMaxAge,
		nowTime:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Exchange redeems an authorization code. The state is checked against the stored pending request
// before any network call; a missing, expired or mismatched request fails with ErrInvalidState.
func (c *Client) Exchange(ctx context.Context, code, state string, pending *authflow.PendingAuthRequest) (*sessions.AuthSession, error) {
	if pending == nil {
		return nil, fmt.Errorf("[token Exchange] %w: no pending request for state", apperrors.ErrInvalidState)
	}
	if state == "" || state != pending.State {
		return nil, fmt.Errorf("[token Exchange] %w: state mismatch", apperrors.ErrInvalidState)
	}
	if pending.Expired(c.nowTime(), c.pendingTTL) {
		return nil, fmt.Errorf("[token Exchange] %w: pending request expired", apperrors.ErrInvalidState)
	}
	if code == "" {
		return nil, fmt.Errorf("[token Exchange] %w: missing authorization code", apperrors.ErrInvalidRequest)
	}

	ctx, span := c.tracer.Start(ctx, "token.Exchange", trace.WithAttributes(
		attribute.String("oauth.grant_type", string(oauthmodel.AuthorizationCodeGrant)),
	))
	defer span.End()

	cfg := c.oauthConfig(pending.RedirectURI)
	tok, err := c.call(ctx, oauthmodel.AuthorizationCodeGrant, func(ctx context.Context) (*oauth2.Token, error) {
		return cfg.Exchange(ctx, code, oauth2.VerifierOption(pending.CodeVerifier))
	})
	if err != nil {
		exErr := classify(OpExchange, err)
		recordSpanError(span, exErr)
		return nil, exErr
	}

	now := c.nowTime()
	expiry, err := c.accessTokenExpiry(tok, now)
	if err != nil {
		exErr := malformed(OpExchange, err.Error())
		recordSpanError(span, exErr)
		return nil, exErr
	}

	session := &sessions.AuthSession{
		AccessToken:       tok.AccessToken,
		RefreshToken:      tok.RefreshToken,
		AccessTokenExpiry: expiry,
		CreatedAt:         now,
	}
	if c.sessionMaxAge > 0 {
		session.ExpiresAt = now.Add(c.sessionMaxAge)
	}

	if rawIDToken, ok := tok.Extra("id_token").(string); ok && rawIDToken != "" {
		claims, err := c.idTokenClaims(ctx, rawIDToken, pending.Nonce)
		if err != nil {
			recordSpanError(span, err)
			if errors.Is(err, apperrors.ErrInvalidState) {
				return nil, fmt.Errorf("[token Exchange] %w", err)
			}
			return nil, &ExchangeError{Op: OpExchange, Kind: apperrors.ErrMalformedTokenResponse, Err: err}
		}
		session.IDToken = rawIDToken
		session.IDTokenClaims = claims
		session.UserID, _ = claims["sub"].(string)
	}

	id, err := c.generator.Token()
	if err != nil {
		return nil, err
	}
	session.ID = id

	zerolog.Ctx(ctx).Debug().Str("user_id", session.UserID).Time("access_token_expiry", expiry).Msg("authorization code exchanged")
	return session, nil
}

// Refresh obtains a new access token using the session's refresh token and returns the updated session.
// Every failure unwraps to ErrRefreshFailed; the session must then be treated as invalid.
func (c *Client) Refresh(ctx context.Context, session *sessions.AuthSession) (*sessions.AuthSession, error) {
	if session == nil || session.RefreshToken == "" {
		return nil, &ExchangeError{Op: OpRefresh, Kind: apperrors.ErrRefreshFailed, Err: errors.New("session has no refresh token")}
	}

	ctx, span := c.tracer.Start(ctx, "token.Refresh", trace.WithAttributes(
		attribute.String("oauth.grant_type", string(oauthmodel.RefreshTokenGrant)),
	))
	defer span.End()

	cfg := c.oauthConfig("")
	tok, err := c.call(ctx, oauthmodel.RefreshTokenGrant, func(ctx context.Context) (*oauth2.Token, error) {
		return cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: session.RefreshToken}).Token()
	})
	if err != nil {
		exErr := classify(OpRefresh, err)
		recordSpanError(span, exErr)
		return nil, exErr
	}

	expiry, err := c.accessTokenExpiry(tok, c.nowTime())
	if err != nil {
		exErr := malformed(OpRefresh, err.Error())
		recordSpanError(span, exErr)
		return nil, exErr
	}

	patch := sessions.Patch{
		AccessToken:       tok.AccessToken,
		RefreshToken:      tok.RefreshToken,
		AccessTokenExpiry: expiry,
	}
	if rawIDToken, ok := tok.Extra("id_token").(string); ok && rawIDToken != "" {
		// Refreshed ID tokens are not bound to the original nonce
		claims, err := c.idTokenClaims(ctx, rawIDToken, "")
		if err != nil {
			recordSpanError(span, err)
			return nil, &ExchangeError{Op: OpRefresh, Kind: apperrors.ErrRefreshFailed, Err: err}
		}
		patch.IDToken = rawIDToken
		patch.IDTokenClaims = claims
	}

	return patch.Apply(session), nil
}

func (c *Client) oauthConfig(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.config.ClientID,
		ClientSecret: c.config.ClientSecret,
		RedirectURL:  redirectURI,
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.config.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// call applies the timeout and HTTP client to a single token endpoint request
func (c *Client) call(ctx context.Context, grant oauthmodel.GrantType, fn func(ctx context.Context) (*oauth2.Token, error)) (*oauth2.Token, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}

	start := time.Now()
	tok, err := fn(ctx)
	c.metrics.RecordTokenRequest(string(grant), err == nil, time.Since(start))
	return tok, err
}

// accessTokenExpiry computes the expiry from expires_in relative to now.
// A missing or non-positive expires_in makes the response malformed; one above a year is capped.
func (c *Client) accessTokenExpiry(tok *oauth2.Token, now time.Time) (time.Time, error) {
	if tok.AccessToken == "" {
		return time.Time{}, errors.New("missing access_token")
	}

	var seconds int64
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		// Compared as a float first: converting a value beyond the int64 range is undefined
		switch {
		case v >= maxExpiresIn:
			seconds = maxExpiresIn
		case v > 0:
			seconds = int64(v)
		}
	case int64:
		seconds = v
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid expires_in %q", v)
		}
		seconds = n
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid expires_in %q", v)
		}
		seconds = n
	default:
		return time.Time{}, errors.New("missing expires_in")
	}
	if seconds <= 0 {
		return time.Time{}, errors.New("missing expires_in")
	}
	seconds = min(seconds, maxExpiresIn)
	return now.Add(time.Duration(seconds) * time.Second), nil
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

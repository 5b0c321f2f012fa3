// Package idptest provides a fake identity provider token endpoint for tests.
package idptest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/storefront-auth/oauthmodel"
)

const signingKey = "idptest-signing-key"

// Responder decides the token endpoint reply for a request form
type Responder func(form url.Values) (status int, body any)

// Provider is a fake OAuth2 provider token endpoint backed by httptest.
type Provider struct {
	Server *httptest.Server

	mu        sync.Mutex
	responder Responder
	requests  []url.Values
	calls     atomic.Int32
	gate      chan struct{}
}

// NewProvider starts a fake provider that answers every request with responder.
// Close it with t.Cleanup(p.Close).
func NewProvider(responder Responder) *Provider {
	p := &Provider{responder: responder}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", p.handleToken)
	p.Server = httptest.NewServer(mux)
	return p
}

// TokenURL is the fake token endpoint
func (p *Provider) TokenURL() string {
	return p.Server.URL + "/token"
}

// Close shuts the server down
func (p *Provider) Close() {
	p.Server.Close()
}

// SetResponder replaces the responder
func (p *Provider) SetResponder(r Responder) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responder = r
}

// Hold makes token requests block until Release is called
func (p *Provider) Hold() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gate = make(chan struct{})
}

// Release unblocks requests held by Hold
func (p *Provider) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gate != nil {
		close(p.gate)
		p.gate = nil
	}
}

// Calls returns the number of token requests received
func (p *Provider) Calls() int {
	return int(p.calls.Load())
}

// LastRequest returns the form of the most recent token request
func (p *Provider) LastRequest() url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.requests) == 0 {
		return nil
	}
	return p.requests[len(p.requests)-1]
}

func (p *Provider) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p.calls.Add(1)

	p.mu.Lock()
	p.requests = append(p.requests, r.PostForm)
	responder := p.responder
	gate := p.gate
	p.mu.Unlock()

	if gate != nil {
		<-gate
	}

	status, body := responder(r.PostForm)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Tokens returns a responder that always succeeds with resp
func Tokens(resp oauthmodel.TokenResponse) Responder {
	return func(url.Values) (int, any) {
		return http.StatusOK, resp
	}
}

// Error returns a responder that always fails with the given status and OAuth error code
func Error(status int, code string) Responder {
	return func(url.Values) (int, any) {
		return status, oauthmodel.ErrorResponse{Error: code, ErrorDescription: code + " from test provider"}
	}
}

// Rotating returns a responder that only honours the latest refresh token, like a provider that
// rotates refresh tokens. Starting from first, the n-th accepted refresh issues AT<n+1> and RT<n+1>.
func Rotating(first string, expiresIn int) Responder {
	var mu sync.Mutex
	current := first
	issued := 1
	return func(form url.Values) (int, any) {
		mu.Lock()
		defer mu.Unlock()
		if form.Get("refresh_token") != current {
			return http.StatusBadRequest, oauthmodel.ErrorResponse{Error: "invalid_grant", ErrorDescription: "refresh token already used"}
		}
		issued++
		current = fmt.Sprintf("RT%d", issued)
		return http.StatusOK, oauthmodel.TokenResponse{
			AccessToken:  fmt.Sprintf("AT%d", issued),
			RefreshToken: current,
			TokenType:    "Bearer",
			ExpiresIn:    expiresIn,
		}
	}
}

// MintIDToken signs claims with a test key. The token is only ever read unverified.
func MintIDToken(claims jwt.MapClaims) string {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingKey))
	if err != nil {
		panic(err)
	}
	return signed
}

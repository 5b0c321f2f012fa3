// Package pkce generates Proof Key for Code Exchange pairs (RFC 7636) and the
// opaque tokens (state, nonce) that accompany an authorization request.
package pkce

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	apperrors "github.com/jrsteele09/storefront-auth/internal/errors"
	"github.com/jrsteele09/storefront-auth/oauthmodel"
	"golang.org/x/oauth2"
)

const (
	// unreserved is the RFC 3986 unreserved character set allowed in a code verifier.
	unreserved = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

	// VerifierLength is within the 43..128 range mandated by RFC 7636.
	VerifierLength = 64

	// tokenBytes is 256 bits of entropy, 43 base64url characters.
	tokenBytes = 32

	// acceptLimit is the largest multiple of len(unreserved) below 256, used to avoid modulo bias.
	acceptLimit = 256 - (256 % len(unreserved))
)

// Challenge is a verifier and the challenge derived from it.
// The verifier stays server side; only the challenge is sent to the provider.
type Challenge struct {
	Verifier  string
	Challenge string
	Method    oauthmodel.CodeMethodType
}

// Generator draws verifiers and opaque tokens from a cryptographic random source.
type Generator struct {
	random io.Reader
}

// Option configures a Generator
type Option func(*Generator)

// WithRandom replaces crypto/rand (primarily for testing)
func WithRandom(r io.Reader) Option {
	return func(g *Generator) {
		g.random = r
	}
}

// NewGenerator creates a Generator backed by crypto/rand
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{random: rand.Reader}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a fresh verifier and its S256 challenge.
// There is no fallback to a weaker source: if the random source fails the error wraps
// ErrRandomnessUnavailable.
func (g *Generator) Generate() (Challenge, error) {
	verifier, err := g.verifier(VerifierLength)
	if err != nil {
		return Challenge{}, err
	}
	return Challenge{
		Verifier:  verifier,
		Challenge: ChallengeFromVerifier(verifier),
		Method:    oauthmodel.CodeMethodTypeS256,
	}, nil
}

// Token returns an unguessable base64url token suitable for state, nonce or session ids.
func (g *Generator) Token() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := io.ReadFull(g.random, b); err != nil {
		return "", fmt.Errorf("[pkce Token] %w: %w", apperrors.ErrRandomnessUnavailable, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (g *Generator) verifier(length int) (string, error) {
	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		if _, err := io.ReadFull(g.random, buf); err != nil {
			return "", fmt.Errorf("[pkce Generate] %w: %w", apperrors.ErrRandomnessUnavailable, err)
		}
		for _, b := range buf {
			if int(b) >= acceptLimit {
				continue
			}
			out = append(out, unreserved[int(b)%len(unreserved)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}

// ChallengeFromVerifier applies the S256 transform: BASE64URL(SHA256(verifier)).
func ChallengeFromVerifier(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}

package server

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/storefront-auth/internal/config"
	"github.com/rs/zerolog/log"
)

// ProviderEndpoints are the identity provider URLs the login flow talks to
type ProviderEndpoints struct {
	AuthURL       string
	TokenURL      string
	EndSessionURL string
	Verifier      *oidc.IDTokenVerifier // nil when no issuer is configured
}

// DiscoverProvider resolves the provider endpoints. With an issuer configured the OpenID discovery
// document is fetched and an ID token verifier built from its JWKS; explicitly configured URLs
// always win over discovered ones.
func DiscoverProvider(ctx context.Context, cfg config.OIDCConfig) (ProviderEndpoints, error) {
	endpoints := ProviderEndpoints{
		AuthURL:       cfg.GetAuthURL(),
		TokenURL:      cfg.GetTokenURL(),
		EndSessionURL: cfg.GetEndSessionURL(),
	}

	issuer := cfg.GetIssuer()
	if issuer == "" {
		if endpoints.AuthURL == "" || endpoints.TokenURL == "" {
			return ProviderEndpoints{}, fmt.Errorf("[DiscoverProvider] either an issuer or both the authorization and token URLs must be configured")
		}
		log.Warn().Msg("no OIDC issuer configured, ID token signatures will not be verified")
		return endpoints, nil
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return ProviderEndpoints{}, fmt.Errorf("[DiscoverProvider] discovery for %s: %w", issuer, err)
	}

	discovered := provider.Endpoint()
	if endpoints.AuthURL == "" {
		endpoints.AuthURL = discovered.AuthURL
	}
	if endpoints.TokenURL == "" {
		endpoints.TokenURL = discovered.TokenURL
	}
	if endpoints.EndSessionURL == "" {
		var extra struct {
			EndSessionEndpoint string `json:"end_session_endpoint"`
		}
		if err := provider.Claims(&extra); err == nil {
			endpoints.EndSessionURL = extra.EndSessionEndpoint
		}
	}
	endpoints.Verifier = provider.Verifier(&oidc.Config{ClientID: cfg.GetClientID()})

	log.Info().
		Str("issuer", issuer).
		Str("authorization_endpoint", endpoints.AuthURL).
		Str("token_endpoint", endpoints.TokenURL).
		Bool("end_session", endpoints.EndSessionURL != "").
		Msg("identity provider discovered")
	return endpoints, nil
}

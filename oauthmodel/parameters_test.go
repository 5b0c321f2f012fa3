package oauthmodel_test

import (
	"testing"

	"github.com/jrsteele09/storefront-auth/oauthmodel"
	"github.com/stretchr/testify/require"
)

const testChallenge = "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"

func validParameters() oauthmodel.AuthorizationParameters {
	return oauthmodel.AuthorizationParameters{
		ClientID:            "storefront",
		RedirectURI:         "https://shop.example.com/auth/callback",
		ResponseType:        oauthmodel.CodeResponseType,
		Scopes:              []string{"openid", "profile"},
		State:               "s1",
		CodeChallenge:       testChallenge,
		CodeChallengeMethod: oauthmodel.CodeMethodTypeS256,
	}
}

func TestAuthorizationParameters_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *oauthmodel.AuthorizationParameters)
		err    error
	}{
		{"valid", func(p *oauthmodel.AuthorizationParameters) {}, nil},
		{"missing client id", func(p *oauthmodel.AuthorizationParameters) { p.ClientID = " " }, oauthmodel.ErrMissingClientID},
		{"missing openid", func(p *oauthmodel.AuthorizationParameters) { p.Scopes = []string{"profile"} }, oauthmodel.ErrMissingOpenIDScope},
		{"relative redirect", func(p *oauthmodel.AuthorizationParameters) { p.RedirectURI = "/auth/callback" }, oauthmodel.ErrInvalidRedirectUri},
		{"redirect with fragment", func(p *oauthmodel.AuthorizationParameters) { p.RedirectURI += "#x" }, oauthmodel.ErrInvalidRedirectUri},
		{"token response type", func(p *oauthmodel.AuthorizationParameters) { p.ResponseType = "token" }, oauthmodel.ErrInvalidResponseType},
		{"missing state", func(p *oauthmodel.AuthorizationParameters) { p.State = "" }, oauthmodel.ErrMissingState},
		{"short challenge", func(p *oauthmodel.AuthorizationParameters) { p.CodeChallenge = "short" }, oauthmodel.ErrInvalidCodeChallenge},
		{"plain method", func(p *oauthmodel.AuthorizationParameters) { p.CodeChallengeMethod = oauthmodel.CodeMethodTypePlain }, oauthmodel.ErrInvalidCodeChallengeMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParameters()
			tt.mutate(&p)
			err := p.Validate()
			if tt.err == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestAuthorizationParameters_HasScope(t *testing.T) {
	p := validParameters()
	require.True(t, p.HasScope("openid"))
	require.False(t, p.HasScope("open"), "scopes are matched whole")
	p.Scopes = nil
	require.False(t, p.HasScope("openid"))
}

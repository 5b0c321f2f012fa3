package config

import "strings"

const (
	issuerVar                = "OIDC_ISSUER"
	clientIDVar              = "OIDC_CLIENT_ID"
	clientSecretVar          = "OIDC_CLIENT_SECRET"
	redirectURLVar           = "OIDC_REDIRECT_URL"
	scopesVar                = "OIDC_SCOPES"
	authURLVar               = "OIDC_AUTH_URL"
	tokenURLVar              = "OIDC_TOKEN_URL"
	endSessionURLVar         = "OIDC_END_SESSION_URL"
	postLogoutRedirectURLVar = "OIDC_POST_LOGOUT_REDIRECT_URL"

	// CallbackPath is where the identity provider sends the user agent back to.
	CallbackPath = "/auth/callback"
)

// OIDC describes the storefront as a client of the identity provider (e.g. a Keycloak realm).
// When AuthURL and TokenURL are blank the endpoints are discovered from the Issuer.
type OIDC struct {
	Issuer                string   `yaml:"issuer"`
	ClientID              string   `yaml:"clientID"`
	ClientSecret          string   `yaml:"clientSecret"` // Empty for public PKCE clients
	RedirectURL           string   `yaml:"redirectURL"`
	Scopes                []string `yaml:"scopes"`
	AuthURL               string   `yaml:"authURL"`
	TokenURL              string   `yaml:"tokenURL"`
	EndSessionURL         string   `yaml:"endSessionURL"`
	PostLogoutRedirectURL string   `yaml:"postLogoutRedirectURL"`

	baseURL EnvVars
}

var _ OIDCConfig = OIDC{}

func (o OIDC) GetIssuer() string {
	return strings.TrimSuffix(GetEnv(issuerVar, o.Issuer), "/")
}

func (o OIDC) GetClientID() string {
	return GetEnv(clientIDVar, orDefault(o.ClientID, "storefront"))
}

func (o OIDC) GetClientSecret() string {
	return GetEnv(clientSecretVar, o.ClientSecret)
}

func (o OIDC) GetRedirectURL() string {
	return GetEnv(redirectURLVar, orDefault(o.RedirectURL, o.baseURL.GetBaseURL()+CallbackPath))
}

// GetScopes returns the requested scopes. "openid" is required by modern providers (Keycloak v22+).
func (o OIDC) GetScopes() []string {
	return getList(scopesVar, o.Scopes, []string{"openid", "profile", "email", "offline_access"})
}

func (o OIDC) GetAuthURL() string {
	return GetEnv(authURLVar, o.AuthURL)
}

func (o OIDC) GetTokenURL() string {
	return GetEnv(tokenURLVar, o.TokenURL)
}

func (o OIDC) GetEndSessionURL() string {
	return GetEnv(endSessionURLVar, o.EndSessionURL)
}

func (o OIDC) GetPostLogoutRedirectURL() string {
	return GetEnv(postLogoutRedirectURLVar, orDefault(o.PostLogoutRedirectURL, o.baseURL.GetBaseURL()+"/"))
}

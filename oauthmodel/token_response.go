package oauthmodel

// TokenResponse represents the response from an OAuth2 token request (RFC 6749 section 5.1).
type TokenResponse struct {
	// AccessToken is sent to the product/order API as "Authorization: Bearer <access_token>".
	AccessToken string `json:"access_token,omitempty"`

	// IdToken is the OpenID Connect ID token. Only present when "openid" was requested.
	IdToken string `json:"id_token,omitempty"`

	// TokenType is "Bearer".
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the lifetime in seconds of the access token.
	ExpiresIn int `json:"expires_in,omitempty"`

	// RefreshToken is only returned when offline access was granted and may rotate on refresh.
	RefreshToken string `json:"refresh_token,omitempty"`

	// Scope is the space separated list of granted scopes.
	Scope string `json:"scope,omitempty"`
}

// ErrorResponse is the token endpoint error body (RFC 6749 section 5.2).
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

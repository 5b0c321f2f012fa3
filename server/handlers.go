package server

import (
	"net/http"
	"time"

	"github.com/jrsteele09/storefront-auth/api"
	apperrors "github.com/jrsteele09/storefront-auth/internal/errors"
	"github.com/jrsteele09/storefront-auth/internal/utils"
	"github.com/jrsteele09/storefront-auth/sessions"
	"github.com/rs/zerolog"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json"
)

// Identity is the signed-in user as shown on the dashboard
type Identity struct {
	UserID            string    `json:"userId"`
	Email             string    `json:"email,omitempty"`
	Name              string    `json:"name,omitempty"`
	Username          string    `json:"username,omitempty"`
	Roles             []string  `json:"roles,omitempty"`
	AccessTokenExpiry time.Time `json:"accessTokenExpiry"`
}

func identityFromSession(session *sessions.AuthSession) Identity {
	id := Identity{
		UserID:            session.UserID,
		Email:             session.StringClaim("email"),
		Name:              session.StringClaim("name"),
		Username:          session.StringClaim("preferred_username"),
		AccessTokenExpiry: session.AccessTokenExpiry,
	}
	// Keycloak nests realm roles under realm_access.roles
	if realmAccess, ok := session.IDTokenClaims["realm_access"].(map[string]any); ok {
		if roles, ok := realmAccess["roles"].([]any); ok {
			id.Roles = utils.ToStringSlice(roles)
		}
	}
	return id
}

// HealthHandler reports liveness (GET /healthz)
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// freshSession returns the guard's session with an access token valid beyond the refresh skew.
// When the refresh fails the session is gone and the user is sent back to sign in.
func (s *Server) freshSession(w http.ResponseWriter, r *http.Request) (*sessions.AuthSession, bool) {
	session, ok := SessionFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, s.loginRedirectURL(r.URL.RequestURI(), ""), redirectStatus(r))
		return nil, false
	}

	fresh, err := s.deps.Refresher.EnsureFresh(r.Context(), session, s.config.GetRefreshSkew())
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrRefreshFailed) {
			zerolog.Ctx(r.Context()).Err(err).Msg("unexpected error refreshing session")
		}
		s.clearSessionCookie(w, r)
		http.Redirect(w, r, s.loginRedirectURL(r.URL.RequestURI(), errorSessionExpired), redirectStatus(r))
		return nil, false
	}
	return fresh, true
}

// writeAPIError maps a downstream failure to a response without leaking its body
func writeAPIError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *api.Error
	if apperrors.As(err, &apiErr) {
		zerolog.Ctx(r.Context()).Warn().Int("status_code", apiErr.StatusCode).Str("message", apiErr.Message).Msg("downstream API error")
		status := apiErr.StatusCode
		if status >= http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		writeJSONError(w, r, status, http.StatusText(status))
		return
	}
	zerolog.Ctx(r.Context()).Err(err).Msg("downstream API unavailable")
	writeJSONError(w, r, http.StatusBadGateway, http.StatusText(http.StatusBadGateway))
}

package server

import (
	"net/http"
	"net/url"

	apperrors "github.com/jrsteele09/storefront-auth/internal/errors"
	"github.com/jrsteele09/storefront-auth/oauthmodel"
	"github.com/rs/zerolog"
)

// LogoutHandler ends the local session and, when the provider supports it, the provider session too
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context())

		var idTokenHint string
		session, err := s.sessionFromRequest(r)
		switch {
		case err == nil:
			idTokenHint = session.IDToken
			if err := s.deps.Sessions.Delete(r.Context(), session.ID); err != nil {
				logger.Err(err).Msg("failed to delete session on logout")
			} else {
				s.deps.Metrics.RecordSessionDeleted("logout")
			}
		case !apperrors.Is(err, apperrors.ErrNotFound):
			logger.Err(err).Msg("session lookup failed during logout")
		}
		s.clearSessionCookie(w, r)

		w.Header().Set("Cache-Control", "no-store")
		http.Redirect(w, r, s.endSessionRedirect(idTokenHint), redirectStatus(r))
	}
}

func (s *Server) endSessionRedirect(idTokenHint string) string {
	if s.deps.EndSessionURL == "" {
		return "/"
	}
	u, err := url.Parse(s.deps.EndSessionURL)
	if err != nil {
		return "/"
	}
	q := u.Query()
	q.Set(oauthmodel.ParamClientID, s.config.GetClientID())
	q.Set(oauthmodel.ParamPostLogoutRedirect, s.config.GetPostLogoutRedirectURL())
	if idTokenHint != "" {
		q.Set(oauthmodel.ParamIDTokenHint, idTokenHint)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

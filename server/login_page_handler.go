package server

import (
	"net/http"
	"net/url"

	apperrors "github.com/jrsteele09/storefront-auth/internal/errors"
	"github.com/rs/zerolog"
)

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	AppName   string
	SignInURL string
	Error     string
}

// loginErrorMessages maps error codes to what the user is shown. Unknown codes get the generic text.
var loginErrorMessages = map[string]string{
	errorAuthenticationFailed: "Sign in failed. Please try again.",
	errorAccessDenied:         "Sign in was cancelled.",
	errorSessionExpired:       "Your session has expired. Please sign in again.",
}

// LoginPageUIHandler displays the login entry point (GET /login)
func (s *Server) LoginPageUIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		returnTo := safeReturnTo(r.URL.Query().Get(paramReturnTo), s.config.GetPostLoginPath())

		// Already signed in: nothing to do here
		if _, err := s.sessionFromRequest(r); err == nil {
			http.Redirect(w, r, returnTo, http.StatusFound)
			return
		}

		data := LoginPageData{
			AppName:   s.config.GetAppName(),
			SignInURL: RouteAuthLogin + "?" + url.Values{paramReturnTo: {returnTo}}.Encode(),
		}
		if code := r.URL.Query().Get(paramError); code != "" {
			data.Error = loginErrorMessages[errorAuthenticationFailed]
			if msg, ok := loginErrorMessages[code]; ok {
				data.Error = msg
			}
		}

		renderPage(w, r, "login.html", data)
	}
}

// LoginStartHandler begins the authorization code flow (GET /auth/login?returnTo=...).
// The pending request is persisted before the user agent is sent to the provider.
func (s *Server) LoginStartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context())
		returnTo := safeReturnTo(r.URL.Query().Get(paramReturnTo), s.config.GetPostLoginPath())

		authReq, err := s.deps.Authorizer.BuildAuthorizationURL(returnTo)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrRandomnessUnavailable) {
				logger.Error().Err(err).Msg("randomness unavailable, refusing to start login")
			} else {
				logger.Err(err).Msg("failed to build authorization URL")
			}
			http.Error(w, "Sign in is currently unavailable", http.StatusInternalServerError)
			return
		}

		if err := s.deps.PendingRequests.Put(r.Context(), authReq.Pending); err != nil {
			logger.Err(err).Msg("failed to persist pending authorization request")
			http.Error(w, "Sign in is currently unavailable", http.StatusInternalServerError)
			return
		}

		s.deps.Metrics.RecordLoginStarted()
		w.Header().Set("Cache-Control", "no-store")
		http.Redirect(w, r, authReq.URL, http.StatusFound)
	}
}

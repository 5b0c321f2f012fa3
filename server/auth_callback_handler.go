package server

import (
	"net/http"
	"net/url"

	apperrors "github.com/jrsteele09/storefront-auth/internal/errors"
	"github.com/jrsteele09/storefront-auth/oauthmodel"
	"github.com/jrsteele09/storefront-auth/token"
	"github.com/rs/zerolog"
)

// Callback outcomes recorded in metrics
const (
	callbackSuccess        = "success"
	callbackDenied         = "denied"
	callbackInvalidState   = "invalid_state"
	callbackExchangeFailed = "exchange_failed"
	callbackMalformed      = "malformed_response"
	callbackError          = "error"
)

// OAuthCallbackHandler handles the provider redirect (GET or form_post POST /auth/callback).
// The pending request is consumed before anything else so a state can never be redeemed twice.
func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := zerolog.Ctx(ctx)

		if err := r.ParseForm(); err != nil {
			logger.Warn().Err(err).Msg("callback with unparseable parameters")
			s.failLogin(w, r, callbackError, errorAuthenticationFailed)
			return
		}
		state := r.Form.Get(oauthmodel.ParamState)
		code := r.Form.Get(oauthmodel.ParamCode)

		pending, err := s.deps.PendingRequests.Consume(ctx, state)
		if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
			logger.Err(err).Msg("failed to consume pending authorization request")
			s.failLogin(w, r, callbackError, errorAuthenticationFailed)
			return
		}

		// The user declined, or the provider refused the request
		if providerErr := r.Form.Get(oauthmodel.ParamError); providerErr != "" {
			logger.Info().
				Str("provider_error", providerErr).
				Str("provider_error_description", r.Form.Get(oauthmodel.ParamErrorDescription)).
				Bool("known_state", pending != nil).
				Msg("authorization denied by provider")
			s.failLogin(w, r, callbackDenied, errorAccessDenied)
			return
		}

		session, err := s.deps.Tokens.Exchange(ctx, code, state, pending)
		if err != nil {
			s.logExchangeFailure(r, err)
			s.failLogin(w, r, exchangeOutcome(err), errorAuthenticationFailed)
			return
		}

		if err := s.deps.Sessions.Put(ctx, session); err != nil {
			logger.Err(err).Msg("failed to store session")
			s.failLogin(w, r, callbackError, errorAuthenticationFailed)
			return
		}

		s.deps.Metrics.RecordCallback(callbackSuccess)
		s.setSessionCookie(w, r, session.ID)
		logger.Info().Str("user_id", session.UserID).Msg("user signed in")

		http.Redirect(w, r, safeReturnTo(pending.ReturnTo, s.config.GetPostLoginPath()), redirectStatus(r))
	}
}

// failLogin sends the user back to the login page with a non-specific error code
func (s *Server) failLogin(w http.ResponseWriter, r *http.Request, outcome, errorCode string) {
	s.deps.Metrics.RecordCallback(outcome)
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, s.config.GetLoginPath()+"?"+url.Values{paramError: {errorCode}}.Encode(), redirectStatus(r))
}

func (s *Server) logExchangeFailure(r *http.Request, err error) {
	event := zerolog.Ctx(r.Context()).Warn().Err(err)
	var exErr *token.ExchangeError
	if apperrors.As(err, &exErr) {
		event = event.
			Int("status_code", exErr.StatusCode).
			Str("provider_error", exErr.ProviderError).
			Str("provider_error_description", exErr.Description)
	}
	event.Msg("login callback rejected")
}

func exchangeOutcome(err error) string {
	switch {
	case apperrors.Is(err, apperrors.ErrInvalidState):
		return callbackInvalidState
	case apperrors.Is(err, apperrors.ErrMalformedTokenResponse):
		return callbackMalformed
	case apperrors.Is(err, apperrors.ErrTokenExchangeFailed):
		return callbackExchangeFailed
	default:
		return callbackError
	}
}

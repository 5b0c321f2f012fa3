package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/jrsteele09/storefront-auth/internal/errors"
	"github.com/jrsteele09/storefront-auth/sessions"
	"github.com/rs/zerolog"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeySession stores the authenticated *sessions.AuthSession
	ContextKeySession ContextKey = "session"
)

// ProtectedRouteSet is the ordered, immutable set of path prefixes that require a session.
// A prefix matches the path itself and anything below it at a segment boundary:
// "/dashboard" guards "/dashboard" and "/dashboard/products" but not "/dashboards".
type ProtectedRouteSet struct {
	prefixes []string
}

// NewProtectedRouteSet normalises and de-duplicates prefixes, keeping their order
func NewProtectedRouteSet(prefixes ...string) ProtectedRouteSet {
	seen := map[string]struct{}{}
	var out []string
	for _, p := range prefixes {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		if p != "/" {
			p = strings.TrimRight(p, "/")
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return ProtectedRouteSet{prefixes: out}
}

// Matches reports whether path requires a session
func (p ProtectedRouteSet) Matches(path string) bool {
	for _, prefix := range p.prefixes {
		if prefix == "/" || path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// Prefixes returns a copy of the configured prefixes
func (p ProtectedRouteSet) Prefixes() []string {
	return append([]string(nil), p.prefixes...)
}

// SessionFromContext returns the session attached by RequireSession
func SessionFromContext(ctx context.Context) (*sessions.AuthSession, bool) {
	session, ok := ctx.Value(ContextKeySession).(*sessions.AuthSession)
	return session, ok && session != nil
}

// RequireSession is the route guard. Requests to protected prefixes need a session cookie that
// resolves in the session store; anything else is redirected to the login page with the requested
// path preserved in returnTo. It only consults the local store, never the identity provider.
func (s *Server) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.protected.Matches(r.URL.Path) {
			next(w, r)
			return
		}

		session, err := s.sessionFromRequest(r)
		if err != nil {
			if !apperrors.Is(err, apperrors.ErrNotFound) {
				zerolog.Ctx(r.Context()).Err(err).Msg("session lookup failed, treating request as unauthenticated")
			}
			s.deps.Metrics.RecordGuardRedirect()
			if _, cookieErr := r.Cookie(sessionCookieName); cookieErr == nil {
				s.clearSessionCookie(w, r)
			}
			http.Redirect(w, r, s.loginRedirectURL(r.URL.RequestURI(), ""), redirectStatus(r))
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeySession, session)
		next(w, r.WithContext(ctx))
	}
}

// sessionFromRequest resolves the session cookie. A missing cookie is ErrNotFound.
func (s *Server) sessionFromRequest(r *http.Request) (*sessions.AuthSession, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, apperrors.ErrNotFound
	}
	return s.deps.Sessions.Get(r.Context(), cookie.Value)
}

// loginRedirectURL builds "<login>?returnTo=<path>[&error=<code>]". Slashes in returnTo are kept
// readable since it is always a local path.
func (s *Server) loginRedirectURL(returnTo, errorCode string) string {
	var params []string
	if returnTo != "" {
		params = append(params, paramReturnTo+"="+strings.ReplaceAll(url.QueryEscape(returnTo), "%2F", "/"))
	}
	if errorCode != "" {
		params = append(params, paramError+"="+url.QueryEscape(errorCode))
	}
	if len(params) == 0 {
		return s.config.GetLoginPath()
	}
	return s.config.GetLoginPath() + "?" + strings.Join(params, "&")
}

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/storefront-auth/api"
	"github.com/jrsteele09/storefront-auth/auth"
	"github.com/jrsteele09/storefront-auth/authflow"
	"github.com/jrsteele09/storefront-auth/internal/config"
	"github.com/jrsteele09/storefront-auth/internal/metrics"
	"github.com/jrsteele09/storefront-auth/sessions"
	"github.com/rs/zerolog/log"
)

// TokenExchanger redeems authorization codes. *token.Client satisfies it.
type TokenExchanger interface {
	Exchange(ctx context.Context, code, state string, pending *authflow.PendingAuthRequest) (*sessions.AuthSession, error)
}

// SessionRefresher keeps access tokens fresh. *refresh.Manager satisfies it.
type SessionRefresher interface {
	EnsureFresh(ctx context.Context, session *sessions.AuthSession, skew time.Duration) (*sessions.AuthSession, error)
}

// Deps are the collaborators the HTTP surface is built from
type Deps struct {
	Authorizer      *auth.Authorizer
	PendingRequests authflow.Repo
	Tokens          TokenExchanger
	Sessions        sessions.Store
	Refresher       SessionRefresher
	API             *api.Client
	Metrics         *metrics.Metrics
	EndSessionURL   string // Provider logout endpoint, empty when the provider has none
}

type Server struct {
	env       string // Environment (e.g., "DEV", "PROD")
	mux       *http.ServeMux
	handler   http.Handler
	routes    []string
	config    config.Config
	protected ProtectedRouteSet
	deps      Deps
}

func New(cfg config.Config, deps Deps) (*Server, error) {
	if deps.Authorizer == nil || deps.PendingRequests == nil || deps.Tokens == nil || deps.Sessions == nil || deps.Refresher == nil {
		return nil, errors.New("[Server New] authorizer, pending request repo, token client, session store and refresher are required")
	}
	if deps.API == nil {
		deps.API = api.NewClient(cfg.GetAPIBaseURL())
	}

	s := &Server{
		env:       cfg.GetEnv(),
		mux:       http.NewServeMux(),
		config:    cfg,
		protected: NewProtectedRouteSet(cfg.GetProtectedPrefixes()...),
		deps:      deps,
	}
	if s.protected.Matches(cfg.GetLoginPath()) || s.protected.Matches(RouteAuthLogin) || s.protected.Matches(RouteCallback) {
		return nil, fmt.Errorf("[Server New] protected prefixes %v would guard the login flow itself", s.protected.Prefixes())
	}

	s.initRoutes()
	s.handler = ChainMiddleware(s.mux.ServeHTTP, s.middleware()...)
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
	log.Debug().Strs("prefixes", s.protected.Prefixes()).Msg("protected routes")
}

func logRoute(method, path string) {
	log.Debug().Msgf("%s %s", methodLabel(method), path)
}

// methodLabel pads and colours an HTTP method for the DEV console
func methodLabel(method string) string {
	color, ok := methodColors[method]
	if !ok {
		color = Gray
	}
	return "[" + color + fmt.Sprintf(" %-7s", method) + ResetColor + "]"
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}

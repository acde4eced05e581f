package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-session-server/auth"
	"github.com/jrsteele09/go-session-server/internal/config"
	"github.com/jrsteele09/go-session-server/token"
	"github.com/jrsteele09/go-session-server/token/renewal"
	"github.com/jrsteele09/go-session-server/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env        string // Environment (e.g., "DEV", "PROD")
	mux        *http.ServeMux
	routes     []string
	config     config.Config
	session    *auth.SessionService
	userRepo   users.UserRepo
	trustProxy bool
}

func New(cfg config.Config, userRepo users.UserRepo) (*Server, error) {
	accessTokens := token.NewIssuer(cfg.GetAccessSecret(), cfg.GetAccessLifetime())
	renewalTokens := renewal.NewManager(cfg.GetRenewalSecret(), cfg.GetRenewalLifetime())

	sessionService, err := auth.NewSessionService(userRepo, accessTokens, renewalTokens)
	if err != nil {
		return nil, errors.Wrap(err, "[Server New] failed to create session service")
	}

	s := &Server{
		mux:        http.NewServeMux(),
		config:     cfg,
		session:    sessionService,
		userRepo:   userRepo,
		env:        cfg.GetEnv(),
		trustProxy: cfg.GetTrustProxy(),
	}

	// Bootstrap: ensure at least one user exists so a fresh install is
	// reachable.
	if err := s.InitialiseSystem(); err != nil {
		return nil, errors.Wrap(err, "[Server New] failed to initialise the system")
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
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
			log.Info().Str("method", parts[0]).Str("path", parts[1]).Msg("route")
		} else {
			log.Info().Str("path", parts[0]).Msg("route")
		}
	}
}

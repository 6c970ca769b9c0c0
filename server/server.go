// Package server exposes the OAuth2 endpoints and the cleaning API over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/cleanhq/cleaner/auth"
	"github.com/cleanhq/cleaner/cleaning"
	"github.com/cleanhq/cleaner/clients"
	"github.com/cleanhq/cleaner/token"
	"github.com/cleanhq/cleaner/users"
)

// Deps are the services the HTTP layer fronts.
type Deps struct {
	Auth     *auth.AuthorizationService
	Tokens   *token.Manager
	Clients  *clients.Service
	Users    *users.Service
	Cleaning *cleaning.Service
}

// Server wires the services into an echo instance.
type Server struct {
	echo           *echo.Echo
	deps           Deps
	logger         zerolog.Logger
	addr           string
	allowedOrigins []string
}

type Option func(*Server)

// WithAddr sets the listen address. Defaults to ":8080".
func WithAddr(addr string) Option {
	return func(s *Server) {
		s.addr = addr
	}
}

// WithLogger sets the request logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithAllowedOrigins sets the CORS origin whitelist. Defaults to "*".
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.allowedOrigins = origins
		}
	}
}

func New(deps Deps, options ...Option) (*Server, error) {
	if deps.Auth == nil {
		return nil, errors.New("[server.New] auth service is required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("[server.New] token manager is required")
	}
	if deps.Clients == nil {
		return nil, errors.New("[server.New] clients service is required")
	}
	if deps.Users == nil {
		return nil, errors.New("[server.New] users service is required")
	}
	if deps.Cleaning == nil {
		return nil, errors.New("[server.New] cleaning service is required")
	}

	s := &Server{
		echo:           echo.New(),
		deps:           deps,
		logger:         zerolog.Nop(),
		addr:           ":8080",
		allowedOrigins: []string{"*"},
	}
	for _, opt := range options {
		opt(s)
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = s.handleError
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: s.allowedOrigins}))
	s.echo.Use(s.requestLogger)
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	e := s.echo

	e.GET("/oauth/authorize", s.authorize)
	e.POST("/oauth/consent", s.consent)
	e.POST("/oauth/token", s.tokenEndpoint)
	e.POST("/oauth/introspect", s.introspect)
	e.POST("/oauth/revoke", s.revoke)
	e.POST("/oauth/register", s.registerUser)

	e.POST("/admin/clients", s.createClient)
	e.GET("/admin/clients", s.listClients)

	api := e.Group("/api/v1", s.requireAuth)
	api.GET("/rooms", s.listRooms)
	api.POST("/rooms", s.createRoom)
	api.GET("/rooms/:id", s.getRoom)
	api.PUT("/rooms/:id", s.updateRoom)
	api.DELETE("/rooms/:id", s.deleteRoom)
	api.POST("/rooms/:id/restore", s.restoreRoom)
	api.GET("/rooms/:id/zones", s.listZones)
	api.POST("/rooms/:id/zones", s.createZone)
	api.GET("/zones/due", s.dueZones)
	api.POST("/zones/bulk/clean", s.bulkClean)
	api.GET("/zones/:id", s.getZone)
	api.PUT("/zones/:id", s.updateZone)
	api.DELETE("/zones/:id", s.deleteZone)
	api.POST("/zones/:id/clean", s.cleanZone)
	api.GET("/me", s.getMe)
	api.PUT("/me", s.updateMe)
	api.GET("/stats/overview", s.statsOverview)
}

// Handler exposes the routing tree, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start blocks serving HTTP until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.addr).Msg("http server listening")
	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "[Server.Start]")
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		req := c.Request()
		s.logger.Info().
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Int("status", c.Response().Status).
			Dur("duration", time.Since(start)).
			Msg("request")
		return nil
	}
}

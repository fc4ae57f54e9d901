// Package api wires the repositories behind the admin/catalog HTTP API.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/streavmin/streavmin/internal/audit"
	"github.com/streavmin/streavmin/internal/auth"
	"github.com/streavmin/streavmin/internal/catalog"
	"github.com/streavmin/streavmin/internal/config"
	"github.com/streavmin/streavmin/internal/docstore"
	"github.com/streavmin/streavmin/internal/scheduler"
	"github.com/streavmin/streavmin/internal/users"
)

// Server handles HTTP requests for the Streavmin API.
type Server struct {
	echo   *echo.Echo
	cfg    *config.Config
	logger zerolog.Logger

	store          *docstore.Store
	auditLog       *audit.Logger
	catalogService *catalog.Service
	userService    *users.Service
	authService    *auth.Service
	sched          *scheduler.Scheduler
}

// NewServer creates a new API server instance over already-constructed
// repositories.
func NewServer(
	cfg *config.Config,
	store *docstore.Store,
	auditLog *audit.Logger,
	catalogService *catalog.Service,
	userService *users.Service,
	authService *auth.Service,
	sched *scheduler.Scheduler,
	logger zerolog.Logger,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:           e,
		cfg:            cfg,
		logger:         logger,
		store:          store,
		auditLog:       auditLog,
		catalogService: catalogService,
		userService:    userService,
		authService:    authService,
		sched:          sched,
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Info().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))

	s.echo.Use(middleware.Gzip())
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)

	api := s.echo.Group("/api")

	authHandlers := auth.NewHandlers(s.authService, s.userService)
	authHandlers.RegisterRoutes(api.Group("/auth"))

	catalogHandlers := catalog.NewHandlers(s.catalogService)
	catalogHandlers.RegisterPublicRoutes(api)

	admin := api.Group("/admin", s.authService.RequireAuth(), s.authService.RequireAdmin())
	catalogHandlers.RegisterAdminRoutes(admin)

	userHandlers := users.NewHandlers(s.userService, auth.ActorFromContext)
	userHandlers.RegisterRoutes(admin.Group("/users"))

	admin.GET("/audit", s.getAuditTail)
	admin.POST("/tasks/:id/run", s.runTask)
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// getAuditTail returns the most recent audit entries.
// GET /api/admin/audit?limit=100
func (s *Server) getAuditTail(c echo.Context) error {
	limit := 100
	if raw := c.QueryParam("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}

	entries, err := s.auditLog.Tail(limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, entries)
}

// runTask triggers a registered background task immediately.
// POST /api/admin/tasks/:id/run
func (s *Server) runTask(c echo.Context) error {
	if err := s.sched.RunNow(c.Param("id")); err != nil {
		switch {
		case errors.Is(err, scheduler.ErrTaskNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, scheduler.ErrTaskRunning):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "started"})
}

// Start begins listening on the configured address.
func (s *Server) Start() error {
	addr := s.cfg.Server.Address()
	s.logger.Info().Str("addr", addr).Msg("starting HTTP server")
	return s.echo.Start(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Echo exposes the underlying router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Package server wires the HTTP surface: the review dashboard API, health
// probes and swagger docs.
package server

import (
	"context"
	"time"

	"maildesk/internal/cases"
	"maildesk/internal/config"
	"maildesk/internal/departments"
	"maildesk/internal/handlers"
	"maildesk/internal/knowledge"
	"maildesk/internal/processor"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Server is the application HTTP server
type Server struct {
	echo      *echo.Echo
	config    *config.Config
	db        *sqlx.DB
	store     *cases.Store
	directory *departments.Directory
	knowledge *knowledge.Store
	proc      *processor.Processor
	logger    zerolog.Logger
}

// New creates a server over the already-constructed collaborators
func New(
	cfg *config.Config,
	db *sqlx.DB,
	store *cases.Store,
	directory *departments.Directory,
	know *knowledge.Store,
	proc *processor.Processor,
	logger zerolog.Logger,
) *Server {
	return &Server{
		config:    cfg,
		db:        db,
		store:     store,
		directory: directory,
		knowledge: know,
		proc:      proc,
		logger:    logger,
	}
}

// zerologMiddleware creates a zerolog-based logging middleware for Echo
func (s *Server) zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			res := c.Response()

			s.logger.Info().
				Str("method", req.Method).
				Str("uri", req.RequestURI).
				Str("remote_ip", c.RealIP()).
				Int("status", res.Status).
				Int64("latency_ms", time.Since(start).Milliseconds()).
				Msg("HTTP request")

			return err
		}
	}
}

// Initialize sets up the Echo framework with middleware and routes
func (s *Server) Initialize() {
	s.echo = echo.New()
	s.echo.HideBanner = true

	s.echo.Use(s.zerologMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORS())

	s.setupRoutes()
}

// setupRoutes configures all the application routes
func (s *Server) setupRoutes() {
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	// Health endpoints at root level for monitoring
	s.echo.GET("/healthz", handlers.HealthHandler(s.config.Version))
	s.echo.GET("/healthz/db", handlers.DBHealthHandler(s.db))

	api := s.echo.Group("/api")
	api.GET("/cases", handlers.QueueHandler(s.store))
	api.POST("/cases/:id/approve", handlers.ApproveHandler(s.proc))
	api.POST("/cases/:id/dismiss", handlers.DismissHandler(s.proc))
	api.POST("/process", handlers.ProcessHandler(s.proc))
	api.POST("/simulate", handlers.SimulateHandler(s.proc))
	api.GET("/departments", handlers.DepartmentsHandler(s.directory))
	api.PUT("/departments/:id", handlers.UpdateDepartmentHandler(s.directory))
	api.POST("/documents", handlers.UploadDocumentHandler(s.knowledge, s.db))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info().Str("port", s.config.Port).Msg("server starting")
	return s.echo.Start(":" + s.config.Port)
}

// Shutdown stops the HTTP server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

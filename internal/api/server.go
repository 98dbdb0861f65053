// Package api serves reconciliation over HTTP: two uploads in, a report
// workbook (or JSON) out.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/conciliar-dev/conciliar/internal/config"
	"github.com/conciliar-dev/conciliar/internal/history"
	"github.com/conciliar-dev/conciliar/internal/pipeline"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
	MaxUploadBytes int64
	RateLimit      config.RateLimitConfig
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return ConfigFrom(config.Default().Server)
}

// ConfigFrom converts the file configuration's server section.
func ConfigFrom(sc config.ServerConfig) Config {
	return Config{
		Port:           sc.Port,
		AllowedOrigins: sc.AllowedOrigins,
		MaxUploadBytes: sc.MaxUploadMB << 20,
		RateLimit:      sc.RateLimit,
	}
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	log        zerolog.Logger
	service    *pipeline.Service
	runs       history.Recorder
}

// NewServer creates a new API server.
// If runs is nil, the run history endpoints are not registered.
func NewServer(cfg Config, service *pipeline.Service, runs history.Recorder, log zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		config:  cfg,
		router:  gin.New(),
		log:     log,
		service: service,
		runs:    runs,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(RequestLogger(s.log, "/health"))
	// cors.New panics on an empty origin list.
	if len(s.config.AllowedOrigins) == 0 {
		return
	}
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}

func (s *Server) setupRoutes() {
	// No /api prefix, for load balancers.
	s.router.GET("/health", handleHealth)

	api := s.router.Group("/api")
	{
		api.GET("/test", handleTest)
		api.POST("/conciliar", RateLimit(s.config.RateLimit), s.handleReconcile)

		if s.runs != nil {
			api.GET("/runs", s.handleListRuns)
			api.GET("/runs/:id", s.handleGetRun)
		}
	}
}

// Router returns the HTTP handler, for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.log.Info().Str("addr", addr).Msg("starting API server")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.log.Info().Msg("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

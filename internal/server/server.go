// Package server implements the vidbrief pipeline backend: the three stage
// endpoints, free-tier quota enforcement, and the processed-video listing.
package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vidbrief/vidbrief/internal/config"
)

// Deps are the collaborators the server drives. Archive may be nil, in
// which case pipeline outputs are served but not persisted.
type Deps struct {
	Transcriber Transcriber
	Writer      Writer
	Archive     Archive
}

// Server represents the HTTP server
type Server struct {
	config *config.Config
	logger *slog.Logger
	router *gin.Engine
	deps   Deps
	quota  *quotaGuard
}

// New creates a new Server instance
func New(cfg *config.Config, logger *slog.Logger, deps Deps) *Server {
	// Set Gin mode based on environment
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	server := &Server{
		config: cfg,
		logger: logger,
		router: router,
		deps:   deps,
		quota:  newQuotaGuard(cfg.FreeTierHourlyLimit, cfg.AcceptedTokens),
	}

	// Setup middleware and routes
	setupSecurityMiddleware(router, cfg, logger)
	setupCORSMiddleware(router, cfg, logger)
	server.setupRoutes()

	return server
}

// Router exposes the underlying gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts the HTTP server
func (s *Server) Run() error {
	s.logger.Info("Server listening", "port", s.config.Port)
	return s.router.Run(":" + s.config.Port)
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	{
		// Stage endpoints are metered; listing is not.
		metered := api.Group("/videos", s.quota.middleware())
		{
			metered.POST("/transcribe", s.handleTranscribe)
			metered.POST("/summarize", s.handleSummarize)
			metered.POST("/enrich", s.handleEnrich)
		}

		api.GET("/videos", s.handleListVideos)
	}
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "vidbrief",
	})
}

// Package webapp hosts the browser UI: it serves the embedded single-page
// front-end and bridges its JSON calls onto the pipeline coordinator.
package webapp

import (
	"context"
	"embed"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
	"github.com/vidbrief/vidbrief/internal/config"
	"github.com/vidbrief/vidbrief/internal/pipeline"
)

//go:embed static
var staticFiles embed.FS

// Server is the local web server backing the browser UI.
type Server struct {
	config *config.Config
	logger *slog.Logger
	router *gin.Engine
	coord  *pipeline.Coordinator
}

// New creates the UI server over an existing coordinator.
func New(cfg *config.Config, logger *slog.Logger, coord *pipeline.Coordinator) *Server {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	server := &Server{
		config: cfg,
		logger: logger,
		router: router,
		coord:  coord,
	}

	server.setupRoutes()

	return server
}

// Router exposes the underlying gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts the UI server.
func (s *Server) Run() error {
	s.logger.Info("UI server listening", "port", s.config.UIPort)
	return s.router.Run(":" + s.config.UIPort)
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "vidbrief-ui"})
	})

	app := s.router.Group("/app")
	{
		app.POST("/transcribe", s.handleTranscribe)
		app.POST("/summarize", s.handleStage(s.coord.Summarize))
		app.POST("/enrich", s.handleStage(s.coord.Enrich))
		app.POST("/upgrade", s.handleUpgrade)
		app.GET("/state", s.handleState)
		app.GET("/events", s.handleEvents)
	}

	// The embedded page is the whole front-end.
	s.router.Use(static.Serve("/", static.EmbedFolder(staticFiles, "static")))
}

type transcribeRequest struct {
	URL string `json:"url"`
}

type upgradeRequest struct {
	Token string `json:"token"`
}

func (s *Server) handleTranscribe(c *gin.Context) {
	var req transcribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}

	result, err := s.coord.Transcribe(c.Request.Context(), req.URL)
	s.respond(c, result, err)
}

func (s *Server) handleStage(run func(ctx context.Context) (string, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := run(c.Request.Context())
		s.respond(c, result, err)
	}
}

// respond maps coordinator outcomes onto the bridge's HTTP vocabulary:
// validation failures are 400, quota exhaustion is 402 with the paywall
// flag, anything else is 502 (the failure happened upstream).
func (s *Server) respond(c *gin.Context, result string, err error) {
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"result": result, "state": s.coord.Snapshot()})
		return
	}

	var stageErr *pipeline.StageError
	if !errors.As(err, &stageErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}

	switch stageErr.Kind {
	case pipeline.KindValidation:
		c.JSON(http.StatusBadRequest, gin.H{"detail": stageErr.Detail})
	case pipeline.KindQuotaExceeded:
		c.JSON(http.StatusPaymentRequired, gin.H{"detail": stageErr.Detail, "paywall": true})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"detail": stageErr.Detail})
	}
}

func (s *Server) handleUpgrade(c *gin.Context) {
	var req upgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "token must not be empty"})
		return
	}

	s.coord.GrantEntitlement(req.Token)
	c.JSON(http.StatusOK, gin.H{"state": s.coord.Snapshot()})
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, s.coord.Snapshot())
}

// handleEvents streams coordinator events to the browser over SSE so the UI
// can flip loading indicators and open the paywall without polling.
func (s *Server) handleEvents(c *gin.Context) {
	events, cancel := s.coord.Subscribe()
	defer cancel()

	c.Writer.Header().Set("Cache-Control", "no-cache")

	clientGone := c.Request.Context().Done()
	c.Stream(func(io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("message", ev)
			return true
		}
	})
}

package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vidbrief/vidbrief/internal/media"
	"github.com/vidbrief/vidbrief/internal/store"
)

const listLimit = 100

type videoRequest struct {
	URL string `json:"url"`
}

type textRequest struct {
	Text string `json:"text"`
}

// handleTranscribe transcribes a YouTube video.
func (s *Server) handleTranscribe(c *gin.Context) {
	var req videoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}

	if _, err := media.ExtractVideoID(req.URL); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid YouTube URL"})
		return
	}

	transcript, err := s.deps.Transcriber.Transcribe(c.Request.Context(), req.URL)
	if err != nil {
		s.logger.Error("Transcription failed", "url", req.URL, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"detail": "could not transcribe video: " + err.Error()})
		return
	}

	video := store.Video{
		ID:         uuid.NewString(),
		URL:        req.URL,
		Transcript: transcript,
		CreatedAt:  time.Now().UTC(),
	}

	s.saveVideo(c, video)

	c.JSON(http.StatusOK, video)
}

// handleSummarize summarizes transcript text.
func (s *Server) handleSummarize(c *gin.Context) {
	s.process(c, store.KindSummary, s.deps.Writer.Summarize)
}

// handleEnrich enriches and enhances transcript text.
func (s *Server) handleEnrich(c *gin.Context) {
	s.process(c, store.KindEnrichment, s.deps.Writer.Enrich)
}

func (s *Server) process(
	c *gin.Context,
	kind store.ResultKind,
	run func(ctx context.Context, text string) (string, error),
) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "text must not be empty"})
		return
	}

	output, err := run(c.Request.Context(), req.Text)
	if err != nil {
		s.logger.Error("AI processing failed", "kind", kind, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "AI processing failed: " + err.Error()})
		return
	}

	result := store.Result{
		ID:        uuid.NewString(),
		Kind:      kind,
		Result:    output,
		CreatedAt: time.Now().UTC(),
	}

	s.saveResult(c, result)

	c.JSON(http.StatusOK, result)
}

// handleListVideos returns the most recently processed videos.
func (s *Server) handleListVideos(c *gin.Context) {
	if s.deps.Archive == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "database unavailable"})
		return
	}

	videos, err := s.deps.Archive.ListVideos(c.Request.Context(), listLimit)
	if err != nil {
		s.logger.Error("Failed to list videos", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to list videos"})
		return
	}

	c.JSON(http.StatusOK, videos)
}

// saveVideo persists a video when an archive is configured. Persistence
// failures don't fail the request; the result was already produced.
func (s *Server) saveVideo(c *gin.Context, v store.Video) {
	if s.deps.Archive == nil {
		s.logger.Warn("Archive not available, skipping save")
		return
	}

	if err := s.deps.Archive.SaveVideo(c.Request.Context(), v); err != nil {
		s.logger.Error("Failed to save video", "id", v.ID, "error", err)
	}
}

func (s *Server) saveResult(c *gin.Context, r store.Result) {
	if s.deps.Archive == nil {
		s.logger.Warn("Archive not available, skipping save")
		return
	}

	if err := s.deps.Archive.SaveResult(c.Request.Context(), r); err != nil {
		s.logger.Error("Failed to save result", "id", r.ID, "error", err)
	}
}

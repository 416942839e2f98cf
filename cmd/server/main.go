// Command server runs the vidbrief API: metered transcription and AI
// processing endpoints plus the video listing.
package main

import (
	"log"

	"github.com/vidbrief/vidbrief/internal/config"
	"github.com/vidbrief/vidbrief/internal/content"
	"github.com/vidbrief/vidbrief/internal/logger"
	"github.com/vidbrief/vidbrief/internal/media"
	"github.com/vidbrief/vidbrief/internal/server"
	"github.com/vidbrief/vidbrief/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup structured logging
	logg := logger.Setup(cfg)

	logg.Info("starting vidbrief server",
		"env", cfg.Env,
		"port", cfg.Port,
		"free_tier_hourly_limit", cfg.FreeTierHourlyLimit,
	)

	// The archive is best-effort: the pipeline endpoints keep working when
	// the database is unavailable, only the listing returns an error.
	var archive server.Archive

	db, err := store.Open(cfg.DatabasePath, logg)
	if err != nil {
		logg.Warn("video archive unavailable", "path", cfg.DatabasePath, "error", err)
	} else {
		archive = db
		defer func() {
			if err := db.Close(); err != nil {
				logg.Warn("closing archive", "error", err)
			}
		}()
	}

	fetcher := media.NewFetcher(cfg.AudioCacheDir, logg)

	srv := server.New(cfg, logg, server.Deps{
		Transcriber: content.NewTranscriber(cfg.OpenAIAPIKey, fetcher, logg),
		Writer:      content.NewWriter(cfg.AnthropicAPIKey),
		Archive:     archive,
	})

	logg.Info("server listening", "port", cfg.Port)

	if err := srv.Run(); err != nil {
		logg.Error("server failed", "error", err)
		log.Fatalf("Fatal: %v", err)
	}
}

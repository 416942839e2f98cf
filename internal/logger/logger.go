// Package logger configures the process-wide structured logger.
package logger

import (
	"log/slog"
	"os"

	"github.com/vidbrief/vidbrief/internal/config"
)

// Setup configures structured logging based on environment. Production gets
// JSON output for log aggregation; development gets human-readable text.
func Setup(cfg *config.Config) *slog.Logger {
	logLevel := slog.LevelInfo
	if cfg.Env != config.EnvProduction || cfg.LogLevel == "debug" {
		logLevel = slog.LevelDebug
	}

	//nolint:exhaustruct // Using default values for other HandlerOptions fields
	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if cfg.Env == config.EnvProduction {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

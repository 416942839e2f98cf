package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvProduction represents the production environment.
	EnvProduction = "production"
)

// Config holds all application configuration, shared between the pipeline
// backend and the client application.
type Config struct {
	// Server settings
	Env  string `envconfig:"ENV" default:"development"`
	Port string `envconfig:"PORT" default:"8080"`

	// Security settings
	HSTSMaxAge  int      `envconfig:"HSTS_MAX_AGE" default:"31536000"`
	CSPMode     string   `envconfig:"CSP_MODE" default:"relaxed"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`

	// Free-tier metering. Requests beyond the hourly limit are rejected
	// with 429 unless the caller presents an accepted entitlement token.
	FreeTierHourlyLimit int      `envconfig:"FREE_TIER_HOURLY_LIMIT" default:"5"`
	AcceptedTokens      []string `envconfig:"ACCEPTED_TOKENS"`

	// AI service credentials
	OpenAIAPIKey    string `envconfig:"OPENAI_API_KEY"`
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`

	// Storage
	DatabasePath  string `envconfig:"DATABASE_PATH" default:"vidbrief.db"`
	AudioCacheDir string `envconfig:"AUDIO_CACHE_DIR" default:".vidbrief-cache"`

	// Client settings
	APIBaseURL string `envconfig:"API_BASE_URL" default:"http://localhost:8080"`
	UIPort     string `envconfig:"UI_PORT" default:"3000"`

	// Logging settings
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig loads configuration from .env file and environment variables.
func LoadConfig() (*Config, error) {
	// Try to load .env file (optional for development)
	if err := godotenv.Load(); err != nil {
		// Not an error if file doesn't exist (expected in production)
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	}

	// Parse environment variables into config struct
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	return &config, nil
}

// BuildCSP constructs Content Security Policy based on mode.
func BuildCSP(mode string) string {
	if mode == "strict" {
		// Production CSP
		return "default-src 'self'; " +
			"style-src 'self' 'unsafe-inline'; " +
			"script-src 'self'; " +
			"img-src 'self' data:; " +
			"connect-src 'self'; " +
			"object-src 'none'; " +
			"base-uri 'self'; " +
			"form-action 'self'"
	}

	// Development/relaxed CSP
	return "default-src 'self'; " +
		"style-src 'self' 'unsafe-inline'; " +
		"script-src 'self' 'unsafe-inline'; " +
		"img-src 'self' data:"
}

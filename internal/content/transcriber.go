// Package content produces the pipeline's text outputs: transcripts via the
// Whisper API and summaries/enrichments via the Anthropic API.
package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// AudioFetcher retrieves a video's audio track and returns the local path.
type AudioFetcher interface {
	FetchAudio(ctx context.Context, url string) (string, error)
}

// Transcriber turns a video URL into a transcript: fetch the audio, then
// run it through the Whisper API.
type Transcriber struct {
	apiKey  string
	fetcher AudioFetcher
	logger  *slog.Logger
}

// NewTranscriber creates a transcription client.
func NewTranscriber(apiKey string, fetcher AudioFetcher, logger *slog.Logger) *Transcriber {
	if logger == nil {
		logger = slog.Default()
	}

	return &Transcriber{
		apiKey:  apiKey,
		fetcher: fetcher,
		logger:  logger,
	}
}

// Transcribe fetches the video's audio and transcribes it.
func (t *Transcriber) Transcribe(ctx context.Context, url string) (string, error) {
	// Validate API key
	if t.apiKey == "" {
		return "", errors.New("API key required: set OPENAI_API_KEY")
	}

	audioPath, err := t.fetcher.FetchAudio(ctx, url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch audio: %w", err)
	}

	audioFile, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("failed to open audio file: %w", err)
	}
	defer audioFile.Close()

	// Create OpenAI client
	client := openai.NewClient(option.WithAPIKey(t.apiKey))

	// Create transcription request
	params := openai.AudioTranscriptionNewParams{
		File:  audioFile,
		Model: openai.AudioModelWhisper1,
	}

	// Call Whisper API
	resp, err := client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to create transcription via Whisper API: %w", err)
	}

	t.logger.Debug("Transcription complete", "chars", len(resp.Text))

	return resp.Text, nil
}

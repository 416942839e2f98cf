package server

import (
	"context"

	"github.com/vidbrief/vidbrief/internal/store"
)

// Transcriber produces a transcript for a video URL.
type Transcriber interface {
	Transcribe(ctx context.Context, url string) (string, error)
}

// Writer generates AI content from transcripts.
type Writer interface {
	Summarize(ctx context.Context, text string) (string, error)
	Enrich(ctx context.Context, text string) (string, error)
}

// Archive persists pipeline outputs.
type Archive interface {
	SaveVideo(ctx context.Context, v store.Video) error
	SaveResult(ctx context.Context, r store.Result) error
	ListVideos(ctx context.Context, limit int) ([]store.Video, error)
}

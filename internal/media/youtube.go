// Package media retrieves source material for the pipeline: YouTube URL
// parsing and audio download.
package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/lrstanley/go-ytdlp"
)

// ErrInvalidURL marks a URL no video ID could be extracted from.
var ErrInvalidURL = errors.New("invalid YouTube URL")

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([^&\n?#]+)`),
	regexp.MustCompile(`youtube\.com/embed/([^&\n?#]+)`),
	regexp.MustCompile(`youtube\.com/v/([^&\n?#]+)`),
}

// ExtractVideoID pulls the video ID out of the common YouTube URL shapes
// (watch?v=, youtu.be/, /embed/, /v/).
func ExtractVideoID(url string) (string, error) {
	for _, pattern := range videoIDPatterns {
		if match := pattern.FindStringSubmatch(url); match != nil {
			return match[1], nil
		}
	}

	return "", ErrInvalidURL
}

const defaultFetchTimeout = 10 * time.Minute

// Fetcher downloads a video's audio track for transcription.
type Fetcher struct {
	cacheDir string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewFetcher creates a Fetcher that stores downloaded audio under cacheDir.
func NewFetcher(cacheDir string, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Fetcher{
		cacheDir: cacheDir,
		timeout:  defaultFetchTimeout,
		logger:   logger,
	}
}

// FetchAudio downloads the audio track of the given video URL as MP3 and
// returns the file path. The URL must carry an extractable video ID.
func (f *Fetcher) FetchAudio(ctx context.Context, url string) (string, error) {
	videoID, err := ExtractVideoID(url)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(f.cacheDir, 0o750); err != nil {
		return "", fmt.Errorf("create audio cache dir: %w", err)
	}

	// Reuse a previous download of the same video.
	target := filepath.Join(f.cacheDir, videoID+".mp3")
	if _, err := os.Stat(target); err == nil {
		f.logger.Debug("Audio already cached", "video_id", videoID)
		return target, nil
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	dl := ytdlp.New().
		ExtractAudio().
		AudioFormat("mp3").
		RestrictFilenames().
		Output(filepath.Join(f.cacheDir, "%(id)s.%(ext)s"))

	f.logger.Info("Downloading audio", "video_id", videoID)
	if _, err := dl.Run(ctx, url); err != nil {
		return "", fmt.Errorf("download audio for %s: %w", videoID, err)
	}

	if _, err := os.Stat(target); err != nil {
		return "", fmt.Errorf("downloaded audio missing for %s: %w", videoID, err)
	}

	return target, nil
}

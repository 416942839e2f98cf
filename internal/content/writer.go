package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const maxOutputTokens = 4096

// Writer handles Anthropic API requests for summaries and enrichments.
type Writer struct {
	apiKey string
	model  anthropic.Model
}

// NewWriter creates a new AI writer.
func NewWriter(apiKey string) *Writer {
	return &Writer{
		apiKey: apiKey,
		model:  anthropic.ModelClaudeSonnet4_5_20250929,
	}
}

// Summarize creates a structured summary of a transcript.
func (w *Writer) Summarize(ctx context.Context, text string) (string, error) {
	return w.generate(ctx, SummarizeSystemPrompt, SummarizePrompt(text))
}

// Enrich creates an enhanced, annotated version of a transcript.
func (w *Writer) Enrich(ctx context.Context, text string) (string, error) {
	return w.generate(ctx, EnrichSystemPrompt, EnrichPrompt(text))
}

func (w *Writer) generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if w.apiKey == "" {
		return "", errors.New("API key required: set ANTHROPIC_API_KEY")
	}

	client := anthropic.NewClient(option.WithAPIKey(w.apiKey))

	params := anthropic.MessageNewParams{
		Model:     w.model,
		MaxTokens: maxOutputTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to generate content via Anthropic API: %w", err)
	}

	// Extract text from response
	if len(resp.Content) == 0 {
		return "", errors.New("empty response from Anthropic API")
	}

	textBlock, ok := resp.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		return "", errors.New("unexpected response type from Anthropic API")
	}

	return textBlock.Text, nil
}

package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/vidbrief/vidbrief/internal/entitlement"
	"github.com/vidbrief/vidbrief/pkg/channels"
)

// StageCaller issues exactly one network request for a pipeline stage.
// payload is the video URL for transcribe and the transcript text for
// summarize/enrich; token is the entitlement token, empty for free tier.
type StageCaller interface {
	Call(ctx context.Context, stage Stage, payload, token string) (string, error)
}

// Snapshot is a consistent copy of the coordinator's observable state.
type Snapshot struct {
	Transcript string         `json:"transcript"`
	Summary    string         `json:"summary"`
	Enrichment string         `json:"enrichment"`
	Loading    map[Stage]bool `json:"loading"`
	Paywall    bool           `json:"paywall"`
}

// Coordinator sequences the three pipeline stages. It tracks an independent
// in-flight flag per stage, attaches the entitlement token to every request,
// interprets quota-exhaustion responses, and raises the paywall signal.
//
// Stage outputs live here: a new transcription immediately invalidates the
// summary and enrichment derived from the previous transcript. Each
// summarize/enrich call is tagged with the transcript version it was issued
// against; a completion for a replaced transcript is discarded rather than
// overwriting fresh state.
type Coordinator struct {
	caller StageCaller
	ents   *entitlement.Store
	logger *slog.Logger
	events *channels.Fanout[Event]

	mu         sync.Mutex
	transcript string
	summary    string
	enrichment string
	version    int
	loading    map[Stage]bool
	paywall    bool
}

// NewCoordinator creates a Coordinator over the given stage caller and
// entitlement store.
func NewCoordinator(caller StageCaller, ents *entitlement.Store, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Coordinator{
		caller:  caller,
		ents:    ents,
		logger:  logger,
		events:  channels.NewFanout[Event](64),
		loading: make(map[Stage]bool),
	}
}

// Subscribe attaches an event listener. The returned cancel function must be
// called when the listener goes away.
func (c *Coordinator) Subscribe() (<-chan Event, func()) {
	return c.events.Subscribe()
}

// Snapshot returns a copy of the current pipeline, loading, and paywall
// state. The Loading map always carries an entry per stage.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	loading := make(map[Stage]bool, 3)
	for _, stage := range Stages() {
		loading[stage] = c.loading[stage]
	}

	return Snapshot{
		Transcript: c.transcript,
		Summary:    c.summary,
		Enrichment: c.enrichment,
		Loading:    loading,
		Paywall:    c.paywall,
	}
}

// Transcribe runs the transcription stage for a video URL. Starting a new
// transcription immediately clears the summary and enrichment, before the
// network call is issued, regardless of the call's eventual outcome.
func (c *Coordinator) Transcribe(ctx context.Context, url string) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", &StageError{Stage: StageTranscribe, Kind: KindValidation, Detail: "video URL must not be empty"}
	}

	c.mu.Lock()
	c.loading[StageTranscribe] = true
	c.summary = ""
	c.enrichment = ""
	// Invalidate summarize/enrich calls still in flight against the old
	// transcript.
	c.version++
	c.mu.Unlock()

	c.publish(Event{Type: EventStageStarted, Stage: StageTranscribe})

	result, err := c.caller.Call(ctx, StageTranscribe, url, c.ents.Current())

	c.mu.Lock()
	c.loading[StageTranscribe] = false
	if err == nil {
		c.transcript = result
	}
	c.mu.Unlock()

	return c.finish(StageTranscribe, result, err)
}

// Summarize runs the summarization stage against the current transcript.
func (c *Coordinator) Summarize(ctx context.Context) (string, error) {
	return c.derive(ctx, StageSummarize)
}

// Enrich runs the enrichment stage against the current transcript.
func (c *Coordinator) Enrich(ctx context.Context) (string, error) {
	return c.derive(ctx, StageEnrich)
}

// derive runs summarize or enrich. Both require a non-empty transcript and
// may run concurrently with each other.
func (c *Coordinator) derive(ctx context.Context, stage Stage) (string, error) {
	c.mu.Lock()
	text := c.transcript
	if strings.TrimSpace(text) == "" {
		c.mu.Unlock()
		return "", &StageError{Stage: stage, Kind: KindValidation, Detail: "no transcript available yet"}
	}

	c.loading[stage] = true
	issuedAgainst := c.version
	c.mu.Unlock()

	c.publish(Event{Type: EventStageStarted, Stage: stage})

	result, err := c.caller.Call(ctx, stage, text, c.ents.Current())

	c.mu.Lock()
	c.loading[stage] = false
	stale := err == nil && issuedAgainst != c.version
	if err == nil && !stale {
		switch stage {
		case StageSummarize:
			c.summary = result
		case StageEnrich:
			c.enrichment = result
		}
	}
	c.mu.Unlock()

	if stale {
		// The transcript changed while this call was in flight; the
		// result belongs to the old transcript and is discarded.
		c.logger.Debug("Discarding stale stage result", "stage", stage)
		c.publish(Event{Type: EventStaleResult, Stage: stage})

		return result, nil
	}

	return c.finish(stage, result, err)
}

// finish records the outcome of a completed stage call: it raises the
// paywall on quota exhaustion, publishes the terminal event, and hands the
// result or error back to the caller. The stage's loading flag has already
// been cleared on every path through here.
func (c *Coordinator) finish(stage Stage, result string, err error) (string, error) {
	if err == nil {
		c.publish(Event{Type: EventStageSucceeded, Stage: stage})
		return result, nil
	}

	if IsQuotaExceeded(err) {
		c.mu.Lock()
		c.paywall = true
		c.mu.Unlock()
		c.publish(Event{Type: EventPaywallRaised, Stage: stage})
	}

	c.logger.Warn("Stage call failed", "stage", stage, "error", err)
	c.publish(Event{Type: EventStageFailed, Stage: stage, Detail: detailOf(err)})

	return "", err
}

// GrantEntitlement records the token and dismisses the paywall. The grant
// has no failure mode; the server decides whether the token is honored on
// the next request.
func (c *Coordinator) GrantEntitlement(token string) {
	c.ents.Grant(token)

	c.mu.Lock()
	wasRaised := c.paywall
	c.paywall = false
	c.mu.Unlock()

	c.logger.Info("Entitlement granted")
	if wasRaised {
		c.publish(Event{Type: EventPaywallCleared})
	}
}

func (c *Coordinator) publish(ev Event) {
	c.events.Publish(ev)
}

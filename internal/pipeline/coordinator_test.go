package pipeline_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidbrief/vidbrief/internal/entitlement"
	"github.com/vidbrief/vidbrief/internal/pipeline"
	"github.com/zalando/go-keyring"
)

// stageCall records one request seen by the fake caller.
type stageCall struct {
	Stage   pipeline.Stage
	Payload string
	Token   string
}

// fakeCaller is a scriptable StageCaller.
type fakeCaller struct {
	mu      sync.Mutex
	calls   []stageCall
	respond func(stage pipeline.Stage, payload, token string) (string, error)
}

func (f *fakeCaller) Call(_ context.Context, stage pipeline.Stage, payload, token string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, stageCall{Stage: stage, Payload: payload, Token: token})
	f.mu.Unlock()

	if f.respond != nil {
		return f.respond(stage, payload, token)
	}

	return "ok", nil
}

func (f *fakeCaller) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.calls)
}

func (f *fakeCaller) lastCall() stageCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[len(f.calls)-1]
}

func newTestCoordinator(t *testing.T, caller pipeline.StageCaller) *pipeline.Coordinator {
	t.Helper()
	keyring.MockInit()

	ents := entitlement.NewStore(nil)
	ents.Load()

	return pipeline.NewCoordinator(caller, ents, nil)
}

func quotaErr(stage pipeline.Stage, detail string) error {
	return &pipeline.StageError{Stage: stage, Kind: pipeline.KindQuotaExceeded, Detail: detail}
}

func requestErr(stage pipeline.Stage, detail string) error {
	return &pipeline.StageError{Stage: stage, Kind: pipeline.KindRequestFailed, Detail: detail}
}

func TestTranscribe_EmptyURLFailsValidationWithoutNetworkCall(t *testing.T) {
	caller := &fakeCaller{}
	coord := newTestCoordinator(t, caller)

	_, err := coord.Transcribe(context.Background(), "   ")

	require.Error(t, err)
	assert.True(t, pipeline.IsValidation(err))
	assert.Equal(t, 0, caller.callCount(), "Validation failures must not reach the network")

	snap := coord.Snapshot()
	assert.False(t, snap.Loading[pipeline.StageTranscribe])
	assert.Empty(t, snap.Transcript)
}

func TestTranscribe_SuccessStoresTranscriptAndTogglesLoading(t *testing.T) {
	caller := &fakeCaller{}
	coord := newTestCoordinator(t, caller)

	var loadingDuringCall bool
	caller.respond = func(pipeline.Stage, string, string) (string, error) {
		loadingDuringCall = coord.Snapshot().Loading[pipeline.StageTranscribe]
		return "hello world", nil
	}

	result, err := coord.Transcribe(context.Background(), "https://youtu.be/abc")

	require.NoError(t, err)
	assert.Equal(t, "hello world", result)
	assert.True(t, loadingDuringCall, "Loading flag should be raised while the call is in flight")

	snap := coord.Snapshot()
	assert.Equal(t, "hello world", snap.Transcript)
	assert.False(t, snap.Loading[pipeline.StageTranscribe])
	assert.Equal(t, "https://youtu.be/abc", caller.lastCall().Payload)
}

func TestTranscribe_ClearsDerivedResultsBeforeCall(t *testing.T) {
	caller := &fakeCaller{}
	coord := newTestCoordinator(t, caller)

	// Build up a full pipeline state first.
	caller.respond = func(stage pipeline.Stage, _, _ string) (string, error) {
		return "output of " + string(stage), nil
	}
	_, err := coord.Transcribe(context.Background(), "https://youtu.be/abc")
	require.NoError(t, err)
	_, err = coord.Summarize(context.Background())
	require.NoError(t, err)
	_, err = coord.Enrich(context.Background())
	require.NoError(t, err)

	snap := coord.Snapshot()
	require.NotEmpty(t, snap.Summary)
	require.NotEmpty(t, snap.Enrichment)

	// A failing transcription must still have cleared summary/enrichment
	// before the network call went out.
	var derivedDuringCall pipeline.Snapshot
	caller.respond = func(pipeline.Stage, string, string) (string, error) {
		derivedDuringCall = coord.Snapshot()
		return "", requestErr(pipeline.StageTranscribe, "boom")
	}
	_, err = coord.Transcribe(context.Background(), "https://youtu.be/xyz")
	require.Error(t, err)

	assert.Empty(t, derivedDuringCall.Summary)
	assert.Empty(t, derivedDuringCall.Enrichment)

	snap = coord.Snapshot()
	assert.Empty(t, snap.Summary)
	assert.Empty(t, snap.Enrichment)
	assert.Equal(t, "output of transcribe", snap.Transcript, "Failed transcription keeps the previous transcript")
}

func TestDerive_WithoutTranscriptFailsValidation(t *testing.T) {
	caller := &fakeCaller{}
	coord := newTestCoordinator(t, caller)

	for _, run := range []func(context.Context) (string, error){coord.Summarize, coord.Enrich} {
		_, err := run(context.Background())
		require.Error(t, err)
		assert.True(t, pipeline.IsValidation(err))
	}

	assert.Equal(t, 0, caller.callCount())
}

func TestDerive_QuotaExhaustionRaisesPaywallWithoutMutatingState(t *testing.T) {
	caller := &fakeCaller{}
	coord := newTestCoordinator(t, caller)

	caller.respond = func(pipeline.Stage, string, string) (string, error) {
		return "hello world", nil
	}
	_, err := coord.Transcribe(context.Background(), "https://youtu.be/abc")
	require.NoError(t, err)

	caller.respond = func(stage pipeline.Stage, _, _ string) (string, error) {
		return "", quotaErr(stage, "limit reached")
	}

	_, err = coord.Summarize(context.Background())

	require.Error(t, err)
	assert.True(t, pipeline.IsQuotaExceeded(err))

	var stageErr *pipeline.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "limit reached", stageErr.Detail)

	snap := coord.Snapshot()
	assert.True(t, snap.Paywall)
	assert.Empty(t, snap.Summary)
	assert.Equal(t, "hello world", snap.Transcript)
	assert.False(t, snap.Loading[pipeline.StageSummarize])
}

func TestGrantEntitlement_TokenIncludedOnSubsequentCalls(t *testing.T) {
	caller := &fakeCaller{}
	coord := newTestCoordinator(t, caller)

	_, err := coord.Transcribe(context.Background(), "https://youtu.be/abc")
	require.NoError(t, err)
	assert.Empty(t, caller.lastCall().Token, "No token should be sent before a grant")

	coord.GrantEntitlement("tok-1")

	_, err = coord.Summarize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", caller.lastCall().Token)
}

func TestGrantEntitlement_ClearsPaywall(t *testing.T) {
	caller := &fakeCaller{}
	coord := newTestCoordinator(t, caller)

	caller.respond = func(stage pipeline.Stage, _, _ string) (string, error) {
		return "", quotaErr(stage, "limit reached")
	}
	_, err := coord.Transcribe(context.Background(), "https://youtu.be/abc")
	require.Error(t, err)
	require.True(t, coord.Snapshot().Paywall)

	coord.GrantEntitlement("tok-1")

	snap := coord.Snapshot()
	assert.False(t, snap.Paywall)

	// The 429 scenario now succeeds with the token attached; the paywall
	// stays down.
	caller.respond = func(stage pipeline.Stage, _, token string) (string, error) {
		if token != "tok-1" {
			return "", quotaErr(stage, "limit reached")
		}
		return "summary text", nil
	}

	_, err = coord.Transcribe(context.Background(), "https://youtu.be/abc")
	require.NoError(t, err)
	result, err := coord.Summarize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "summary text", result)
	assert.False(t, coord.Snapshot().Paywall)
}

func TestDerive_StaleCompletionIsDiscarded(t *testing.T) {
	caller := &fakeCaller{}
	coord := newTestCoordinator(t, caller)

	_, err := coord.Transcribe(context.Background(), "https://youtu.be/abc")
	require.NoError(t, err)

	release := make(chan struct{})
	caller.respond = func(stage pipeline.Stage, _, _ string) (string, error) {
		if stage == pipeline.StageSummarize {
			<-release
			return "summary for old transcript", nil
		}
		return "new transcript", nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		result, summarizeErr := coord.Summarize(context.Background())
		// The invocation itself still reports its result to its caller.
		assert.NoError(t, summarizeErr)
		assert.Equal(t, "summary for old transcript", result)
	}()

	// Wait for the summarize call to be in flight.
	require.Eventually(t, func() bool {
		return coord.Snapshot().Loading[pipeline.StageSummarize]
	}, time.Second, time.Millisecond)

	// Replace the transcript while summarize is still running.
	_, err = coord.Transcribe(context.Background(), "https://youtu.be/xyz")
	require.NoError(t, err)

	close(release)
	<-done

	snap := coord.Snapshot()
	assert.Empty(t, snap.Summary, "Stale summarize completion must not overwrite cleared state")
	assert.Equal(t, "new transcript", snap.Transcript)
	assert.False(t, snap.Loading[pipeline.StageSummarize])
}

func TestCoordinator_EventsOnQuotaFailure(t *testing.T) {
	caller := &fakeCaller{}
	coord := newTestCoordinator(t, caller)

	caller.respond = func(stage pipeline.Stage, _, _ string) (string, error) {
		return "", quotaErr(stage, "limit reached")
	}

	events, cancel := coord.Subscribe()
	defer cancel()

	_, err := coord.Transcribe(context.Background(), "https://youtu.be/abc")
	require.Error(t, err)

	assert.Equal(t, pipeline.EventStageStarted, (<-events).Type)
	assert.Equal(t, pipeline.EventPaywallRaised, (<-events).Type)

	failed := <-events
	assert.Equal(t, pipeline.EventStageFailed, failed.Type)
	assert.Equal(t, "limit reached", failed.Detail)
}

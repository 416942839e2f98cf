package webapp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidbrief/vidbrief/internal/config"
	"github.com/vidbrief/vidbrief/internal/entitlement"
	"github.com/vidbrief/vidbrief/internal/pipeline"
	"github.com/vidbrief/vidbrief/internal/webapp"
	"github.com/zalando/go-keyring"
)

// scriptedCaller returns canned stage results.
type scriptedCaller struct {
	respond func(stage pipeline.Stage, payload, token string) (string, error)
}

func (s *scriptedCaller) Call(_ context.Context, stage pipeline.Stage, payload, token string) (string, error) {
	if s.respond != nil {
		return s.respond(stage, payload, token)
	}
	return "ok", nil
}

func newTestApp(t *testing.T, caller pipeline.StageCaller) *webapp.Server {
	t.Helper()
	keyring.MockInit()

	cfg := &config.Config{Env: "test", UIPort: "3000", LogLevel: "info"}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ents := entitlement.NewStore(nil)
	ents.Load()
	coord := pipeline.NewCoordinator(caller, ents, nil)

	return webapp.New(cfg, logger, coord)
}

func postJSON(t *testing.T, srv *webapp.Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	encoded, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(encoded))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	return w
}

func getState(t *testing.T, srv *webapp.Server) pipeline.Snapshot {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/app/state", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var snap pipeline.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))

	return snap
}

func TestTranscribe_SuccessReturnsUpdatedState(t *testing.T) {
	srv := newTestApp(t, &scriptedCaller{
		respond: func(pipeline.Stage, string, string) (string, error) {
			return "hello world", nil
		},
	})

	w := postJSON(t, srv, "/app/transcribe", map[string]string{"url": "https://youtu.be/abc"})

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Result string            `json:"result"`
		State  pipeline.Snapshot `json:"state"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "hello world", resp.Result)
	assert.Equal(t, "hello world", resp.State.Transcript)
	assert.False(t, resp.State.Loading[pipeline.StageTranscribe])
}

func TestTranscribe_EmptyURLIsBadRequest(t *testing.T) {
	srv := newTestApp(t, &scriptedCaller{})

	w := postJSON(t, srv, "/app/transcribe", map[string]string{"url": ""})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "detail")
}

func TestSummarize_WithoutTranscriptIsBadRequest(t *testing.T) {
	srv := newTestApp(t, &scriptedCaller{})

	w := postJSON(t, srv, "/app/summarize", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuotaExhaustion_MapsToPaymentRequired(t *testing.T) {
	srv := newTestApp(t, &scriptedCaller{
		respond: func(stage pipeline.Stage, _, _ string) (string, error) {
			return "", &pipeline.StageError{Stage: stage, Kind: pipeline.KindQuotaExceeded, Detail: "limit reached"}
		},
	})

	w := postJSON(t, srv, "/app/transcribe", map[string]string{"url": "https://youtu.be/abc"})

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Contains(t, w.Body.String(), "limit reached")
	assert.Contains(t, w.Body.String(), `"paywall":true`)

	assert.True(t, getState(t, srv).Paywall)
}

func TestUpgrade_ClearsPaywallAndAttachesToken(t *testing.T) {
	var lastToken string
	srv := newTestApp(t, &scriptedCaller{
		respond: func(stage pipeline.Stage, _, token string) (string, error) {
			lastToken = token
			if token == "" {
				return "", &pipeline.StageError{Stage: stage, Kind: pipeline.KindQuotaExceeded, Detail: "limit reached"}
			}
			return "hello world", nil
		},
	})

	w := postJSON(t, srv, "/app/transcribe", map[string]string{"url": "https://youtu.be/abc"})
	require.Equal(t, http.StatusPaymentRequired, w.Code)

	w = postJSON(t, srv, "/app/upgrade", map[string]string{"token": "tok-1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, getState(t, srv).Paywall)

	w = postJSON(t, srv, "/app/transcribe", map[string]string{"url": "https://youtu.be/abc"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tok-1", lastToken)
}

func TestUpgrade_EmptyTokenIsBadRequest(t *testing.T) {
	srv := newTestApp(t, &scriptedCaller{})

	w := postJSON(t, srv, "/app/upgrade", map[string]string{"token": ""})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestFailure_MapsToBadGateway(t *testing.T) {
	srv := newTestApp(t, &scriptedCaller{
		respond: func(stage pipeline.Stage, _, _ string) (string, error) {
			return "", &pipeline.StageError{Stage: stage, Kind: pipeline.KindRequestFailed, Detail: "upstream down"}
		},
	})

	w := postJSON(t, srv, "/app/transcribe", map[string]string{"url": "https://youtu.be/abc"})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "upstream down")

	// A request failure never raises the paywall.
	assert.False(t, getState(t, srv).Paywall)
}

func TestIndexPageIsServed(t *testing.T) {
	srv := newTestApp(t, &scriptedCaller{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "vidbrief")
}

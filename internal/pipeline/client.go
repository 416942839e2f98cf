package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// EntitlementHeader carries the entitlement token to the backend. The header
// is only set when a token is present; its absence means free-tier
// evaluation server-side.
const EntitlementHeader = "X-Entitlement-Token"

// Client calls the vidbrief backend's three stage endpoints. It implements
// StageCaller. Each invocation issues exactly one request with no retries;
// cancellation flows through the context.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient creates a Client against the given base address, e.g.
// "http://localhost:8080".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{},
	}
}

type transcribeRequest struct {
	URL string `json:"url"`
}

type processRequest struct {
	Text string `json:"text"`
}

type stageResponse struct {
	Transcript string `json:"transcript"`
	Result     string `json:"result"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Call issues the stage request and decodes the response. A 429 becomes a
// QuotaExceeded stage error carrying the server's detail; any other non-2xx
// response becomes RequestFailed.
func (c *Client) Call(ctx context.Context, stage Stage, payload, token string) (string, error) {
	var body any
	if stage == StageTranscribe {
		body = transcribeRequest{URL: payload}
	} else {
		body = processRequest{Text: payload}
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return "", &StageError{Stage: stage, Kind: KindRequestFailed, Detail: fmt.Sprintf("encode request: %v", err)}
	}

	endpoint := fmt.Sprintf("%s/api/videos/%s", c.baseURL, stage)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", &StageError{Stage: stage, Kind: KindRequestFailed, Detail: fmt.Sprintf("build request: %v", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(EntitlementHeader, token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", &StageError{Stage: stage, Kind: KindRequestFailed, Detail: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &StageError{Stage: stage, Kind: KindRequestFailed, Detail: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &StageError{
			Stage:  stage,
			Kind:   KindQuotaExceeded,
			Detail: serverDetail(raw, "free tier request limit reached"),
		}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail := serverDetail(raw, fmt.Sprintf("server returned status %d", resp.StatusCode))
		return "", &StageError{Stage: stage, Kind: KindRequestFailed, Detail: detail}
	}

	var decoded stageResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", &StageError{Stage: stage, Kind: KindRequestFailed, Detail: "malformed response from server"}
	}

	output := decoded.Result
	if stage == StageTranscribe {
		output = decoded.Transcript
	}

	if output == "" {
		return "", &StageError{Stage: stage, Kind: KindRequestFailed, Detail: "empty result from server"}
	}

	return output, nil
}

// serverDetail pulls the detail string out of an error body, falling back
// to a generic message when the body isn't the expected shape.
func serverDetail(raw []byte, fallback string) string {
	var decoded errorResponse
	if err := json.Unmarshal(raw, &decoded); err == nil && decoded.Detail != "" {
		return decoded.Detail
	}

	return fallback
}

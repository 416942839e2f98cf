package pipeline

// EventType identifies a coordinator state change of interest to front-ends.
type EventType string

const (
	// EventStageStarted fires when a stage call goes in flight.
	EventStageStarted EventType = "stage_started"
	// EventStageSucceeded fires when a stage result has been stored.
	EventStageSucceeded EventType = "stage_succeeded"
	// EventStageFailed fires when a stage call fails for any reason.
	EventStageFailed EventType = "stage_failed"
	// EventStaleResult fires when an in-flight summarize/enrich call
	// completed for a transcript that has since been replaced. Its result
	// is discarded.
	EventStaleResult EventType = "stale_result"
	// EventPaywallRaised fires when the server reports quota exhaustion.
	EventPaywallRaised EventType = "paywall_raised"
	// EventPaywallCleared fires when an entitlement grant dismisses the
	// paywall.
	EventPaywallCleared EventType = "paywall_cleared"
)

// Event describes one coordinator state change. Detail carries the
// human-readable error detail on failure events.
type Event struct {
	Type   EventType `json:"type"`
	Stage  Stage     `json:"stage,omitempty"`
	Detail string    `json:"detail,omitempty"`
}

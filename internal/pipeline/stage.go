// Package pipeline coordinates the three AI pipeline stages (transcribe,
// summarize, enrich) against the remote vidbrief backend. It owns the
// per-stage loading flags, the stage outputs, and the paywall signal, and
// injects the entitlement token into every outgoing request.
package pipeline

// Stage identifies one pipeline stage.
type Stage string

const (
	// StageTranscribe turns a video URL into a transcript.
	StageTranscribe Stage = "transcribe"
	// StageSummarize produces a structured summary of a transcript.
	StageSummarize Stage = "summarize"
	// StageEnrich produces an enhanced, annotated version of a transcript.
	StageEnrich Stage = "enrich"
)

// Stages lists all pipeline stages in execution order.
func Stages() []Stage {
	return []Stage{StageTranscribe, StageSummarize, StageEnrich}
}

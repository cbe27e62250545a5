package adapter

import (
	"context"

	"vibecheck/internal/domain/model"
)

// TranscriptSegment is one timestamped slice of a transcript.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcriber converts a local audio file into text. Language is
// auto-detected. Unreadable or unsupported audio surfaces as an error on
// the orchestrator's generic failure path.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
	TranscribeWithTimestamps(ctx context.Context, audioPath string) ([]TranscriptSegment, error)
}

// Summarizer turns a transcript into structured analysis. Implementations
// must parse model output defensively: malformed output yields
// model.FallbackSummary, never an error. Errors are reserved for
// transport failures reaching the model backend.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (model.Summary, error)
}

package model

import "time"

// Analysis is the pipeline output for one Job. JobID is unique: at most
// one analysis row exists per job, enforced by a database constraint.
// Metrics is an open-ended document; consumers must tolerate additive keys.
type Analysis struct {
	ID             string
	JobID          string
	OwnerID        string
	InterviewerID  string
	SentimentScore float64
	Summary        string
	Metrics        map[string]any
	Transcript     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Summary is the fixed-shape result of the summarization stage.
type Summary struct {
	ExecutiveSummary    string   `json:"executive_summary"`
	KeyTopics           []string `json:"key_topics"`
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areas_for_improvement"`
	SentimentScore      float64  `json:"sentiment_score"`
}

// FallbackSummary is returned when the model output cannot be parsed.
// Malformed model output is an expected condition, not a pipeline fault.
func FallbackSummary() Summary {
	return Summary{
		ExecutiveSummary:    "Analysis could not be completed.",
		KeyTopics:           []string{},
		Strengths:           []string{},
		AreasForImprovement: []string{},
		SentimentScore:      0.0,
	}
}

// ClampSentiment forces score into [-1.0, 1.0].
func ClampSentiment(score float64) float64 {
	if score > 1.0 {
		return 1.0
	}
	if score < -1.0 {
		return -1.0
	}
	return score
}

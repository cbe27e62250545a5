//go:build !integration

package ml

import (
	"strings"
	"testing"
	"unicode/utf8"
)

const validSummaryJSON = `{
	"executive_summary": "A strong technical interview.",
	"key_topics": ["go", "databases"],
	"strengths": ["clear communication"],
	"areas_for_improvement": ["system design depth"],
	"sentiment_score": 0.6
}`

func TestParseSummary(t *testing.T) {
	t.Run("plain JSON object", func(t *testing.T) {
		got, ok := parseSummary(validSummaryJSON)
		if !ok {
			t.Fatal("expected parse to succeed")
		}
		if got.ExecutiveSummary != "A strong technical interview." {
			t.Errorf("unexpected summary %q", got.ExecutiveSummary)
		}
		if got.SentimentScore != 0.6 {
			t.Errorf("unexpected sentiment %v", got.SentimentScore)
		}
		if len(got.KeyTopics) != 2 {
			t.Errorf("unexpected topics %v", got.KeyTopics)
		}
	})

	t.Run("markdown fenced JSON", func(t *testing.T) {
		raw := "Here is the analysis:\n```json\n" + validSummaryJSON + "\n```\nHope that helps!"
		got, ok := parseSummary(raw)
		if !ok {
			t.Fatal("expected fenced JSON to parse")
		}
		if got.ExecutiveSummary == "" {
			t.Error("expected content from the fenced block")
		}
	})

	t.Run("JSON embedded in prose", func(t *testing.T) {
		raw := "Sure! " + validSummaryJSON + " Let me know if you need more."
		if _, ok := parseSummary(raw); !ok {
			t.Error("expected embedded object to parse")
		}
	})

	t.Run("out of range sentiment is clamped", func(t *testing.T) {
		raw := `{"executive_summary":"s","key_topics":[],"strengths":[],"areas_for_improvement":[],"sentiment_score":7.5}`
		got, ok := parseSummary(raw)
		if !ok {
			t.Fatal("expected parse to succeed")
		}
		if got.SentimentScore != 1.0 {
			t.Errorf("expected clamp to 1.0, got %v", got.SentimentScore)
		}
	})

	t.Run("missing required key fails", func(t *testing.T) {
		raw := `{"executive_summary":"s","key_topics":[],"strengths":[],"sentiment_score":0.1}`
		if _, ok := parseSummary(raw); ok {
			t.Error("expected parse to fail without areas_for_improvement")
		}
	})

	t.Run("null arrays become empty slices", func(t *testing.T) {
		raw := `{"executive_summary":"s","key_topics":null,"strengths":null,"areas_for_improvement":null,"sentiment_score":0}`
		got, ok := parseSummary(raw)
		if !ok {
			t.Fatal("expected parse to succeed")
		}
		if got.KeyTopics == nil || got.Strengths == nil || got.AreasForImprovement == nil {
			t.Error("expected empty slices, not nil")
		}
	})

	t.Run("garbage fails", func(t *testing.T) {
		for _, raw := range []string{"", "no json here", "{broken", "[1,2,3]"} {
			if _, ok := parseSummary(raw); ok {
				t.Errorf("expected parse to fail for %q", raw)
			}
		}
	})
}

func TestTruncateTranscript(t *testing.T) {
	t.Run("short input passes through", func(t *testing.T) {
		if got := truncateTranscript("hello"); got != "hello" {
			t.Errorf("unexpected truncation: %q", got)
		}
	})

	t.Run("cut backs off to a rune boundary", func(t *testing.T) {
		// 3-byte runes guarantee the byte limit lands mid-rune.
		long := strings.Repeat("面", maxTranscriptChars/3+10)

		got := truncateTranscript(long)
		if len(got) > maxTranscriptChars {
			t.Errorf("length %d exceeds the cap", len(got))
		}
		if !utf8.ValidString(got) {
			t.Error("truncated transcript is not valid UTF-8")
		}
		if len(got) < maxTranscriptChars-utf8.UTFMax {
			t.Errorf("backed off too far: %d bytes", len(got))
		}
	})
}

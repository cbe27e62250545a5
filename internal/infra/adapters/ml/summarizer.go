package ml

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/rs/zerolog"

	"vibecheck/internal/domain"
	"vibecheck/internal/domain/model"
	"vibecheck/internal/domain/ports/adapter"
	"vibecheck/internal/infra/metrics"
)

var _ adapter.Summarizer = (*OpenAISummarizer)(nil)

// maxTranscriptChars bounds the prompt to the model's context window.
// Truncation drops trailing content: the beginning of an interview is
// assumed most salient.
const maxTranscriptChars = 100_000

const systemPrompt = `You are an expert interview analyst. Your task is to analyze interview transcripts and provide structured insights.

Analyze the following interview transcript and provide a JSON response with these exact keys:
- "executive_summary": A 2-3 sentence summary of the interview
- "key_topics": An array of 3-5 main topics discussed
- "strengths": An array of 2-4 positive observations about the interviewee
- "areas_for_improvement": An array of 2-4 constructive feedback points
- "sentiment_score": A float between -1.0 (very negative) and 1.0 (very positive) representing the overall tone

Respond ONLY with valid JSON. No additional text or explanation.`

// OpenAISummarizer drives any OpenAI-compatible chat completion backend.
// Transport failures surface as transient errors; malformed model output
// never does — the fallback record absorbs it.
type OpenAISummarizer struct {
	client openai.Client
	model  string
	log    *zerolog.Logger
}

func NewOpenAISummarizer(apiKey, baseURL, modelName string, log *zerolog.Logger) (*OpenAISummarizer, error) {
	if apiKey == "" {
		return nil, errors.New("summarizer api key empty")
	}
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAISummarizer{
		client: openai.NewClient(opts...),
		model:  modelName,
		log:    log,
	}, nil
}

// truncateTranscript cuts s at maxTranscriptChars, backing off to a
// rune boundary so the tail stays valid UTF-8.
func truncateTranscript(s string) string {
	if len(s) <= maxTranscriptChars {
		return s
	}
	cut := maxTranscriptChars
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func (s *OpenAISummarizer) Summarize(ctx context.Context, transcript string) (model.Summary, error) {
	if len(transcript) > maxTranscriptChars {
		s.log.Warn().Int("chars", len(transcript)).Msg("transcript too long, truncating")
		transcript = truncateTranscript(transcript)
	}

	userPrompt := fmt.Sprintf("Transcript:\n%s\n\nProvide your analysis as JSON:", transcript)

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Temperature: openai.Float(0.1),
	})
	if err != nil {
		return model.Summary{}, classifyOpenAIErr(err)
	}
	if len(resp.Choices) == 0 {
		return model.Summary{}, errors.New("summarization backend returned no choices")
	}

	summary, ok := parseSummary(resp.Choices[0].Message.Content)
	if !ok {
		s.log.Error().Str("raw", truncateForLog(resp.Choices[0].Message.Content)).
			Msg("unparseable summarization output, using fallback")
		metrics.IncSummaryFallback()
		return model.FallbackSummary(), nil
	}
	return summary, nil
}

func classifyOpenAIErr(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		// 5xx and rate limits are expected to clear; 4xx will recur.
		if apierr.StatusCode >= 500 || apierr.StatusCode == 429 {
			return domain.Transient(fmt.Errorf("summarization backend: %w", err))
		}
		return fmt.Errorf("summarization backend: %w", err)
	}
	return domain.Transient(fmt.Errorf("summarization backend: %w", err))
}

var codeFenceRe = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

// parseSummary is the two-stage decode: locate a JSON object inside raw
// model text (stripping markdown fences), strict-decode it and check the
// required keys. ok is false whenever any stage fails.
func parseSummary(raw string) (model.Summary, bool) {
	text := raw
	if m := codeFenceRe.FindStringSubmatch(text); m != nil {
		text = m[1]
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return model.Summary{}, false
	}
	text = text[start : end+1]

	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &keys); err != nil {
		return model.Summary{}, false
	}
	for _, k := range []string{"executive_summary", "key_topics", "strengths", "areas_for_improvement", "sentiment_score"} {
		if _, present := keys[k]; !present {
			return model.Summary{}, false
		}
	}

	var out model.Summary
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return model.Summary{}, false
	}
	out.SentimentScore = model.ClampSentiment(out.SentimentScore)
	if out.KeyTopics == nil {
		out.KeyTopics = []string{}
	}
	if out.Strengths == nil {
		out.Strengths = []string{}
	}
	if out.AreasForImprovement == nil {
		out.AreasForImprovement = []string{}
	}
	return out, true
}

func truncateForLog(s string) string {
	if len(s) > 500 {
		return s[:500]
	}
	return s
}

package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"vibecheck/internal/domain"
	"vibecheck/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.Transcriber = (*WhisperTranscriber)(nil)

// WhisperTranscriber calls a whisper-compatible ASR serving backend
// over HTTP. Language is auto-detected by the backend. The model itself
// is an opaque black box; only the transport contract lives here.
type WhisperTranscriber struct {
	base   string // e.g. http://transcription:9000
	client *http.Client
	log    *zerolog.Logger
}

func NewWhisperTranscriber(baseURL string, log *zerolog.Logger) (*WhisperTranscriber, error) {
	if baseURL == "" {
		return nil, errors.New("transcription backend url empty")
	}
	return &WhisperTranscriber{
		base: baseURL,
		// Transcription of long recordings is slow; the task-level soft
		// timeout is the real ceiling, this only guards a dead backend.
		client: &http.Client{Timeout: 45 * time.Minute},
		log:    log,
	}, nil
}

type asrResponse struct {
	Text     string                      `json:"text"`
	Language string                      `json:"language"`
	Segments []adapter.TranscriptSegment `json:"segments"`
}

func (t *WhisperTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	resp, err := t.request(ctx, audioPath)
	if err != nil {
		return "", err
	}
	t.log.Info().Str("language", resp.Language).Int("chars", len(resp.Text)).Msg("transcription complete")
	return resp.Text, nil
}

func (t *WhisperTranscriber) TranscribeWithTimestamps(ctx context.Context, audioPath string) ([]adapter.TranscriptSegment, error) {
	resp, err := t.request(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	return resp.Segments, nil
}

func (t *WhisperTranscriber) request(ctx context.Context, audioPath string) (*asrResponse, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("audio_file", filepath.Base(audioPath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	url := t.base + "/asr?task=transcribe&output=json"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, domain.Transient(fmt.Errorf("transcription backend: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, domain.Transient(fmt.Errorf("transcription backend http %d", resp.StatusCode))
	}
	if resp.StatusCode >= 300 {
		// 4xx means the audio itself is unreadable or unsupported;
		// retrying the same bytes will not help.
		return nil, fmt.Errorf("transcription rejected: http %d", resp.StatusCode)
	}

	var out asrResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode transcription response: %w", err)
	}
	return &out, nil
}

package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"nammaraitha-backend/pkg/logger"
)

var (
	// ErrRecognizerUnavailable means the transcription provider could not
	// be reached when the recognizer was constructed. Callers disable
	// voice input instead of treating this as a failure.
	ErrRecognizerUnavailable = errors.New("speech recognition unavailable")

	// ErrRecordingActive means Start was called while a recording is open
	ErrRecordingActive = errors.New("a recording is already in progress")

	// ErrNoRecording means Stop or Write was called without an open recording
	ErrNoRecording = errors.New("no recording in progress")
)

// Recognizer buffers one audio recording at a time and submits it to an
// HTTP transcription provider on Stop.
type Recognizer struct {
	client  *http.Client
	baseURL string

	mu        sync.Mutex
	available bool
	recording bool
	lang      string
	audio     bytes.Buffer
}

// NewRecognizer creates a recognizer and probes the provider once.
// An unreachable provider does not fail construction; the recognizer
// reports itself unavailable instead.
func NewRecognizer(client *http.Client, baseURL string) *Recognizer {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	r := &Recognizer{
		client:  client,
		baseURL: baseURL,
	}
	r.available = r.probe()
	if !r.available {
		logger.Warn("Speech recognition provider unreachable, voice input disabled",
			zap.String("url", baseURL))
	}
	return r
}

func (r *Recognizer) probe() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Available reports whether the transcription provider answered the probe
func (r *Recognizer) Available() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.available
}

// Start opens a recording for the given display language. Only one
// recording may be open at a time.
func (r *Recognizer) Start(lang string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.available {
		return ErrRecognizerUnavailable
	}
	if r.recording {
		return ErrRecordingActive
	}

	r.recording = true
	r.lang = LanguageTag(lang)
	r.audio.Reset()
	return nil
}

// Write appends audio data to the open recording
func (r *Recognizer) Write(chunk []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return ErrNoRecording
	}
	_, err := r.audio.Write(chunk)
	return err
}

// Cancel discards the open recording without transcribing it
func (r *Recognizer) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.recording = false
	r.audio.Reset()
}

// Stop closes the recording and returns the transcript
func (r *Recognizer) Stop(ctx context.Context) (string, error) {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return "", ErrNoRecording
	}
	lang := r.lang
	audio := make([]byte, r.audio.Len())
	copy(audio, r.audio.Bytes())
	r.recording = false
	r.audio.Reset()
	r.mu.Unlock()

	return r.transcribe(ctx, audio, lang)
}

func (r *Recognizer) transcribe(ctx context.Context, audio []byte, lang string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/transcribe?language=%s", r.baseURL, lang), bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("failed to build transcription request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcription provider returned status %d", resp.StatusCode)
	}

	var payload struct {
		Transcript string `json:"transcript"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode transcription response: %w", err)
	}

	return payload.Transcript, nil
}

package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"nammaraitha-backend/pkg/logger"
)

const (
	speechRate  = 0.9
	speechPitch = 1.0
)

// Synthesizer forwards text to an HTTP text-to-speech provider. At most
// one utterance is active: Speak implicitly cancels whatever is playing.
type Synthesizer struct {
	client  *http.Client
	baseURL string

	mu     sync.Mutex
	muted  bool
	cancel context.CancelFunc
}

// NewSynthesizer creates a new synthesizer
func NewSynthesizer(client *http.Client, baseURL string) *Synthesizer {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Synthesizer{
		client:  client,
		baseURL: baseURL,
	}
}

// Speak voices the text in the given display language. The call returns
// immediately; delivery failures are logged, not surfaced. Muted
// synthesizers drop the request.
func (s *Synthesizer) Speak(text, lang string) {
	s.mu.Lock()
	if s.muted {
		s.mu.Unlock()
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	go s.speak(ctx, text, LanguageTag(lang))
}

func (s *Synthesizer) speak(ctx context.Context, text, tag string) {
	body, err := json.Marshal(map[string]interface{}{
		"text":     text,
		"language": tag,
		"rate":     speechRate,
		"pitch":    speechPitch,
	})
	if err != nil {
		logger.Error("Failed to encode speech request", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/speak", bytes.NewReader(body))
	if err != nil {
		logger.Error("Failed to build speech request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("Speech synthesis failed", zap.Error(err))
		}
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn("Speech provider returned non-OK status",
			zap.Int("status", resp.StatusCode))
	}
}

// Stop cancels the in-progress utterance, if any
func (s *Synthesizer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// SetMuted toggles muting. Muting also stops the current utterance.
func (s *Synthesizer) SetMuted(muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.muted = muted
	if muted && s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Muted reports whether the synthesizer is muted
func (s *Synthesizer) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

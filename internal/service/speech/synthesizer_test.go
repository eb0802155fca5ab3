package speech

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type speakRequest struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Rate     float64 `json:"rate"`
	Pitch    float64 `json:"pitch"`
}

type speakCollector struct {
	mu       sync.Mutex
	requests []speakRequest
}

func (c *speakCollector) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req speakRequest
		json.NewDecoder(r.Body).Decode(&req)
		c.mu.Lock()
		c.requests = append(c.requests, req)
		c.mu.Unlock()
	}
}

func (c *speakCollector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

func (c *speakCollector) last() speakRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests[len(c.requests)-1]
}

func waitForSpeaks(t *testing.T, c *speakCollector, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.count() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d speak requests, saw %d", want, c.count())
}

func TestSynthesizer_SpeakPostsTextWithLanguageTag(t *testing.T) {
	collector := &speakCollector{}
	server := httptest.NewServer(collector.handler())
	defer server.Close()

	s := NewSynthesizer(server.Client(), server.URL)

	s.Speak("ನಮಸ್ಕಾರ", "kn")

	waitForSpeaks(t, collector, 1)
	req := collector.last()
	assert.Equal(t, "ನಮಸ್ಕಾರ", req.Text)
	assert.Equal(t, "kn-IN", req.Language)
	assert.Equal(t, 0.9, req.Rate)
	assert.Equal(t, 1.0, req.Pitch)
}

func TestSynthesizer_MutedDropsRequests(t *testing.T) {
	collector := &speakCollector{}
	server := httptest.NewServer(collector.handler())
	defer server.Close()

	s := NewSynthesizer(server.Client(), server.URL)
	s.SetMuted(true)

	s.Speak("hello", "en")

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, collector.count())
	assert.True(t, s.Muted())
}

func TestSynthesizer_UnmuteRestoresSpeech(t *testing.T) {
	collector := &speakCollector{}
	server := httptest.NewServer(collector.handler())
	defer server.Close()

	s := NewSynthesizer(server.Client(), server.URL)
	s.SetMuted(true)
	s.SetMuted(false)
	require.False(t, s.Muted())

	s.Speak("hello", "en")

	waitForSpeaks(t, collector, 1)
}

func TestSynthesizer_StopWithoutUtteranceIsSafe(t *testing.T) {
	s := NewSynthesizer(nil, "http://localhost:0")

	s.Stop()
	s.Stop()
}

package speech

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nammaraitha-backend/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InitDefault()
	os.Exit(m.Run())
}

func newProviderServer(t *testing.T, transcript string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/transcribe":
			json.NewEncoder(w).Encode(map[string]string{"transcript": transcript})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestRecognizer_AvailableAfterProbe(t *testing.T) {
	server := newProviderServer(t, "")
	defer server.Close()

	r := NewRecognizer(server.Client(), server.URL)

	assert.True(t, r.Available())
}

func TestRecognizer_UnreachableProviderDisablesVoiceInput(t *testing.T) {
	server := newProviderServer(t, "")
	server.Close() // probe fails

	r := NewRecognizer(http.DefaultClient, server.URL)

	assert.False(t, r.Available())
	assert.ErrorIs(t, r.Start("kn"), ErrRecognizerUnavailable)
}

func TestRecognizer_RecordThenTranscribe(t *testing.T) {
	var gotLang string
	var gotAudio []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/transcribe":
			gotLang = r.URL.Query().Get("language")
			gotAudio, _ = io.ReadAll(r.Body)
			json.NewEncoder(w).Encode(map[string]string{"transcript": "hello farmer"})
		}
	}))
	defer server.Close()

	r := NewRecognizer(server.Client(), server.URL)

	require.NoError(t, r.Start("kn"))
	require.NoError(t, r.Write([]byte("chunk-one ")))
	require.NoError(t, r.Write([]byte("chunk-two")))

	transcript, err := r.Stop(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "hello farmer", transcript)
	assert.Equal(t, "kn-IN", gotLang)
	assert.Equal(t, "chunk-one chunk-two", string(gotAudio))
}

func TestRecognizer_OnlyOneRecordingAtATime(t *testing.T) {
	server := newProviderServer(t, "x")
	defer server.Close()

	r := NewRecognizer(server.Client(), server.URL)

	require.NoError(t, r.Start("en"))
	assert.ErrorIs(t, r.Start("hi"), ErrRecordingActive)

	_, err := r.Stop(context.Background())
	require.NoError(t, err)

	assert.NoError(t, r.Start("hi"), "recording slot freed after stop")
}

func TestRecognizer_WriteWithoutStart(t *testing.T) {
	server := newProviderServer(t, "x")
	defer server.Close()

	r := NewRecognizer(server.Client(), server.URL)

	assert.ErrorIs(t, r.Write([]byte("audio")), ErrNoRecording)
}

func TestRecognizer_StopWithoutStart(t *testing.T) {
	server := newProviderServer(t, "x")
	defer server.Close()

	r := NewRecognizer(server.Client(), server.URL)

	_, err := r.Stop(context.Background())
	assert.ErrorIs(t, err, ErrNoRecording)
}

func TestRecognizer_CancelDiscardsRecording(t *testing.T) {
	server := newProviderServer(t, "x")
	defer server.Close()

	r := NewRecognizer(server.Client(), server.URL)

	require.NoError(t, r.Start("en"))
	require.NoError(t, r.Write([]byte("audio")))
	r.Cancel()

	_, err := r.Stop(context.Background())
	assert.ErrorIs(t, err, ErrNoRecording)
}

func TestLanguageTag(t *testing.T) {
	assert.Equal(t, "kn-IN", LanguageTag("kn"))
	assert.Equal(t, "hi-IN", LanguageTag("hi"))
	assert.Equal(t, "en-US", LanguageTag("en"))
	assert.Equal(t, "en-US", LanguageTag("fr"), "unknown languages fall back to en-US")
	assert.Equal(t, "en-US", LanguageTag(""))
}

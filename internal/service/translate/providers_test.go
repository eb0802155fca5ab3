package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultChain_Order(t *testing.T) {
	chain := NewDefaultChain(nil)

	require.Len(t, chain, 3)
	assert.Equal(t, "argos", chain[0].Name())
	assert.Equal(t, "google-web", chain[1].Name())
	assert.Equal(t, "libretranslate", chain[2].Name())
}

func TestLibreTranslateProvider_Translate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Hello", body["q"])
		assert.Equal(t, "auto", body["source"])
		assert.Equal(t, "kn", body["target"])
		assert.Equal(t, "text", body["format"])

		json.NewEncoder(w).Encode(map[string]string{"translatedText": "ನಮಸ್ಕಾರ"})
	}))
	defer server.Close()

	provider := NewLibreTranslateProvider("test", server.URL, server.Client())

	got, err := provider.Translate(context.Background(), "Hello", "kn")

	require.NoError(t, err)
	assert.Equal(t, "ನಮಸ್ಕಾರ", got)
}

func TestLibreTranslateProvider_ErrorField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"error": "unsupported language"})
	}))
	defer server.Close()

	provider := NewLibreTranslateProvider("test", server.URL, server.Client())

	_, err := provider.Translate(context.Background(), "Hello", "xx")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported language")
}

func TestLibreTranslateProvider_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	provider := NewLibreTranslateProvider("test", server.URL, server.Client())

	_, err := provider.Translate(context.Background(), "Hello", "kn")

	assert.Error(t, err)
}

func TestGoogleWebProvider_Translate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		assert.Equal(t, "gtx", query.Get("client"))
		assert.Equal(t, "auto", query.Get("sl"))
		assert.Equal(t, "kn", query.Get("tl"))
		assert.Equal(t, "t", query.Get("dt"))
		assert.Equal(t, "Hello farmer", query.Get("q"))

		// The gtx endpoint returns nested arrays; segment text first.
		w.Write([]byte(`[[["ನಮಸ್ಕಾರ ","Hello ",null,null],["ರೈತ","farmer",null,null]],null,"en"]`))
	}))
	defer server.Close()

	provider := NewGoogleWebProvider(server.URL, server.Client())

	got, err := provider.Translate(context.Background(), "Hello farmer", "kn")

	require.NoError(t, err)
	assert.Equal(t, "ನಮಸ್ಕಾರ ರೈತ", got)
}

func TestGoogleWebProvider_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"an array"}`))
	}))
	defer server.Close()

	provider := NewGoogleWebProvider(server.URL, server.Client())

	_, err := provider.Translate(context.Background(), "Hello", "kn")

	assert.Error(t, err)
}

package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Default provider endpoints, in chain order
const (
	DefaultArgosURL     = "https://translate.argosopentech.com/translate"
	DefaultGoogleWebURL = "https://translate.googleapis.com/translate_a/single"
	DefaultLibreURL     = "https://libretranslate.com/translate"
)

// NewDefaultChain builds the standard provider order: the Argos
// LibreTranslate instance, then the Google web endpoint, then
// libretranslate.com.
func NewDefaultChain(client *http.Client) []Provider {
	return []Provider{
		NewLibreTranslateProvider("argos", DefaultArgosURL, client),
		NewGoogleWebProvider(DefaultGoogleWebURL, client),
		NewLibreTranslateProvider("libretranslate", DefaultLibreURL, client),
	}
}

// LibreTranslateProvider calls a LibreTranslate-compatible instance
type LibreTranslateProvider struct {
	name   string
	url    string
	client *http.Client
}

// NewLibreTranslateProvider creates a provider for one instance
func NewLibreTranslateProvider(name, url string, client *http.Client) *LibreTranslateProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &LibreTranslateProvider{name: name, url: url, client: client}
}

// Name identifies the provider in logs
func (p *LibreTranslateProvider) Name() string {
	return p.name
}

// Translate posts the LibreTranslate JSON shape and reads back
// translatedText. An error field in the response counts as failure.
func (p *LibreTranslateProvider) Translate(ctx context.Context, text, targetLang string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"q":      text,
		"source": "auto",
		"target": targetLang,
		"format": "text",
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var result struct {
		TranslatedText string `json:"translatedText"`
		Error          string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("provider error: %s", result.Error)
	}
	if result.TranslatedText == "" {
		return "", fmt.Errorf("empty translation")
	}

	return result.TranslatedText, nil
}

// GoogleWebProvider calls the unauthenticated Google web endpoint
// (client=gtx). The response is a nested JSON array; the first
// element holds the translated segments.
type GoogleWebProvider struct {
	url    string
	client *http.Client
}

// NewGoogleWebProvider creates the Google web provider
func NewGoogleWebProvider(baseURL string, client *http.Client) *GoogleWebProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &GoogleWebProvider{url: baseURL, client: client}
}

// Name identifies the provider in logs
func (p *GoogleWebProvider) Name() string {
	return "google-web"
}

// Translate fetches and concatenates the translated segments
func (p *GoogleWebProvider) Translate(ctx context.Context, text, targetLang string) (string, error) {
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", "auto")
	params.Set("tl", targetLang)
	params.Set("dt", "t")
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var payload []interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("empty response")
	}

	segments, ok := payload[0].([]interface{})
	if !ok {
		return "", fmt.Errorf("unexpected response shape")
	}

	var sb strings.Builder
	for _, raw := range segments {
		segment, ok := raw.([]interface{})
		if !ok || len(segment) == 0 {
			continue
		}
		if part, ok := segment[0].(string); ok {
			sb.WriteString(part)
		}
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("empty translation")
	}

	return sb.String(), nil
}

package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"nammaraitha-backend/pkg/logger"
)

// DefaultExpoURL is the Expo push gateway endpoint
const DefaultExpoURL = "https://exp.host/--/api/v2/push/send"

// ExpoProvider implements Provider for the Expo push service. Expo
// fronts both FCM and APNs for Expo-built mobile clients, so a single
// HTTP call covers every platform.
type ExpoProvider struct {
	url    string
	client *http.Client
}

// ExpoConfig contains configuration for the Expo provider
type ExpoConfig struct {
	URL    string // gateway endpoint, defaults to DefaultExpoURL
	Client *http.Client
}

// NewExpoProvider creates a new Expo provider
func NewExpoProvider(config *ExpoConfig) *ExpoProvider {
	url := DefaultExpoURL
	client := http.DefaultClient
	if config != nil {
		if config.URL != "" {
			url = config.URL
		}
		if config.Client != nil {
			client = config.Client
		}
	}
	return &ExpoProvider{url: url, client: client}
}

type expoMessage struct {
	To    []string          `json:"to"`
	Sound string            `json:"sound,omitempty"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

type expoResponse struct {
	Data []struct {
		Status  string `json:"status"` // ok, error
		Message string `json:"message,omitempty"`
		Details struct {
			Error string `json:"error,omitempty"` // DeviceNotRegistered etc.
		} `json:"details,omitempty"`
	} `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}

// Send implements Provider interface for Expo
func (e *ExpoProvider) Send(ctx context.Context, notification *Notification, tokens []string) (*SendResult, error) {
	if len(tokens) == 0 {
		return &SendResult{}, nil
	}

	sound := notification.Sound
	if sound == "" {
		sound = "default"
	}

	payload, err := json.Marshal(expoMessage{
		To:    tokens,
		Sound: sound,
		Title: notification.Title,
		Body:  notification.Body,
		Data:  notification.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal expo message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build expo request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("expo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("expo returned status %d", resp.StatusCode)
	}

	var body expoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode expo response: %w", err)
	}

	if len(body.Errors) > 0 {
		return nil, fmt.Errorf("expo error: %s: %s", body.Errors[0].Code, body.Errors[0].Message)
	}

	result := &SendResult{}
	for i, receipt := range body.Data {
		if receipt.Status == "ok" {
			result.SuccessCount++
			continue
		}
		result.FailureCount++
		result.Errors = append(result.Errors, fmt.Errorf("expo ticket error: %s", receipt.Message))
		if receipt.Details.Error == "DeviceNotRegistered" && i < len(tokens) {
			result.InvalidTokens = append(result.InvalidTokens, tokens[i])
		}
	}

	logger.Debug("Expo push sent",
		zap.Int("success", result.SuccessCount),
		zap.Int("failure", result.FailureCount))

	return result, nil
}

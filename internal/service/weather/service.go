package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"nammaraitha-backend/internal/domain"
	"nammaraitha-backend/pkg/cache"
	"nammaraitha-backend/pkg/logger"
)

const (
	// DefaultBaseURL is the OpenWeather current-conditions endpoint
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

	// DefaultCacheTTL bounds how long a snapshot is served without refresh
	DefaultCacheTTL = 10 * time.Minute

	// DefaultTimeout bounds a single upstream request
	DefaultTimeout = 8 * time.Second
)

// Service fetches current conditions from OpenWeather and caches them
type Service struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	cache    *cache.MemoryCache
	cacheTTL time.Duration
}

// Config configures the weather service
type Config struct {
	BaseURL  string
	APIKey   string
	CacheTTL time.Duration
	Timeout  time.Duration
}

// NewService creates a new weather service
func NewService(cfg *Config) *Service {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = DefaultCacheTTL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Service{
		client:   &http.Client{Timeout: timeout},
		baseURL:  baseURL,
		apiKey:   cfg.APIKey,
		cache:    cache.NewMemoryCache(cacheTTL, 256),
		cacheTTL: cacheTTL,
	}
}

// openWeatherResponse mirrors the fields we read from the OpenWeather payload
type openWeatherResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
}

// GetCurrent returns current conditions for a coordinate pair. A fresh
// cached snapshot is served without hitting the upstream; when the
// upstream fails, the last known snapshot is served instead, and the
// error surfaces only when there is nothing to fall back to.
func (s *Service) GetCurrent(ctx context.Context, lat, lon float64) (*domain.WeatherSnapshot, error) {
	key := fmt.Sprintf("weather:%.2f,%.2f", lat, lon)

	if cached, ok := s.cache.Get(key); ok {
		return cached.(*domain.WeatherSnapshot), nil
	}

	snapshot, err := s.fetch(ctx, lat, lon)
	if err != nil {
		if stale, ok := s.cache.GetStale(key); ok {
			logger.Warn("Weather refresh failed, serving stale snapshot",
				zap.String("key", key),
				zap.Error(err))
			return stale.(*domain.WeatherSnapshot), nil
		}
		return nil, err
	}

	s.cache.Set(key, snapshot, s.cacheTTL)
	return snapshot, nil
}

func (s *Service) fetch(ctx context.Context, lat, lon float64) (*domain.WeatherSnapshot, error) {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", lat))
	params.Set("lon", fmt.Sprintf("%f", lon))
	params.Set("appid", s.apiKey)
	params.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build weather request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch weather: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather upstream returned status %d", resp.StatusCode)
	}

	var payload openWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}

	snapshot := &domain.WeatherSnapshot{
		City:        payload.Name,
		Temperature: payload.Main.Temp,
		FeelsLike:   payload.Main.FeelsLike,
		Humidity:    payload.Main.Humidity,
		WindSpeed:   payload.Wind.Speed,
		FetchedAt:   time.Now(),
	}
	if len(payload.Weather) > 0 {
		snapshot.Condition = payload.Weather[0].Main
		snapshot.Description = payload.Weather[0].Description
	}

	return snapshot, nil
}

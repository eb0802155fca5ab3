package domain

import "time"

// WeatherSnapshot is the current-conditions view used by dashboards
// and crop suggestions.
type WeatherSnapshot struct {
	City        string    `json:"city"`
	Temperature float64   `json:"temperature"` // Celsius
	FeelsLike   float64   `json:"feels_like"`
	Humidity    int       `json:"humidity"` // percent
	WindSpeed   float64   `json:"wind_speed"`
	Condition   string    `json:"condition"` // Clear, Clouds, Rain...
	Description string    `json:"description"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// CropSuggestion is one entry of the advisory catalog shown to farmers
type CropSuggestion struct {
	Name          string  `json:"name"`
	MarketPrice   float64 `json:"market_price"` // per kg
	GrowingPeriod string  `json:"growing_period"`
	WaterNeed     string  `json:"water_need"` // low, medium, high
	Description   string  `json:"description"`
	MinTemp       float64 `json:"-"`
	MaxTemp       float64 `json:"-"`
}

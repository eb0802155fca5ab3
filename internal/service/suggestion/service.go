package suggestion

import (
	"nammaraitha-backend/internal/domain"
)

// catalog holds the advisory crops with the temperature bands they tolerate
var catalog = []domain.CropSuggestion{
	{
		Name:          "Rice",
		MarketPrice:   40,
		GrowingPeriod: "16-20 weeks",
		WaterNeed:     "high",
		Description:   "Rice is a staple crop in many parts of India and thrives in monsoon season's abundant rainfall.",
		MinTemp:       20,
		MaxTemp:       38,
	},
	{
		Name:          "Soybean",
		MarketPrice:   60,
		GrowingPeriod: "12-14 weeks",
		WaterNeed:     "medium",
		Description:   "Soybean is drought-tolerant and suitable for areas with moderate rainfall.",
		MinTemp:       15,
		MaxTemp:       35,
	},
	{
		Name:          "Millets",
		MarketPrice:   35,
		GrowingPeriod: "10-14 weeks",
		WaterNeed:     "medium",
		Description:   "Millets are drought-resistant and suitable for arid regions.",
		MinTemp:       18,
		MaxTemp:       42,
	},
	{
		Name:          "Maize",
		MarketPrice:   25,
		GrowingPeriod: "16-20 weeks",
		WaterNeed:     "medium",
		Description:   "Maize grows well in monsoon season with adequate moisture.",
		MinTemp:       12,
		MaxTemp:       36,
	},
}

// Service recommends crops from the advisory catalog based on current weather
type Service struct{}

// NewService creates a new suggestion service
func NewService() *Service {
	return &Service{}
}

// ForWeather returns the catalog entries whose temperature band covers
// the snapshot. A nil snapshot yields an empty list rather than an error,
// so dashboards without a weather fix still render.
func (s *Service) ForWeather(snapshot *domain.WeatherSnapshot) []domain.CropSuggestion {
	if snapshot == nil {
		return []domain.CropSuggestion{}
	}

	suggestions := make([]domain.CropSuggestion, 0, len(catalog))
	for _, crop := range catalog {
		if snapshot.Temperature < crop.MinTemp || snapshot.Temperature > crop.MaxTemp {
			continue
		}
		if crop.WaterNeed == "high" && snapshot.Humidity < 40 && snapshot.Condition != "Rain" {
			continue
		}
		suggestions = append(suggestions, crop)
	}

	return suggestions
}

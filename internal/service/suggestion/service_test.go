package suggestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nammaraitha-backend/internal/domain"
)

func names(suggestions []domain.CropSuggestion) []string {
	out := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		out = append(out, s.Name)
	}
	return out
}

func TestForWeather_NilSnapshotYieldsEmptyList(t *testing.T) {
	svc := NewService()

	got := svc.ForWeather(nil)

	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestForWeather_WarmHumidConditions(t *testing.T) {
	svc := NewService()

	got := svc.ForWeather(&domain.WeatherSnapshot{
		Temperature: 28,
		Humidity:    70,
		Condition:   "Clouds",
	})

	assert.ElementsMatch(t, []string{"Rice", "Soybean", "Millets", "Maize"}, names(got))
}

func TestForWeather_DryHeatExcludesHighWaterCrops(t *testing.T) {
	svc := NewService()

	got := svc.ForWeather(&domain.WeatherSnapshot{
		Temperature: 28,
		Humidity:    20,
		Condition:   "Clear",
	})

	assert.NotContains(t, names(got), "Rice")
	assert.Contains(t, names(got), "Millets")
}

func TestForWeather_RainOverridesLowHumidityForRice(t *testing.T) {
	svc := NewService()

	got := svc.ForWeather(&domain.WeatherSnapshot{
		Temperature: 28,
		Humidity:    20,
		Condition:   "Rain",
	})

	assert.Contains(t, names(got), "Rice")
}

func TestForWeather_ColdExcludesAll(t *testing.T) {
	svc := NewService()

	got := svc.ForWeather(&domain.WeatherSnapshot{Temperature: 5, Humidity: 80})

	assert.Empty(t, got)
}

func TestForWeather_ExtremeHeatExcludesAll(t *testing.T) {
	svc := NewService()

	got := svc.ForWeather(&domain.WeatherSnapshot{Temperature: 45, Humidity: 50})

	assert.Empty(t, got)
}

func TestForWeather_CoolWeatherPartialMatch(t *testing.T) {
	svc := NewService()

	got := svc.ForWeather(&domain.WeatherSnapshot{Temperature: 14, Humidity: 60})

	assert.ElementsMatch(t, []string{"Maize"}, names(got))
}

func TestCatalogEntriesCarryAdvisoryFields(t *testing.T) {
	svc := NewService()

	got := svc.ForWeather(&domain.WeatherSnapshot{Temperature: 28, Humidity: 70})

	require.NotEmpty(t, got)
	for _, crop := range got {
		assert.NotEmpty(t, crop.Name)
		assert.NotEmpty(t, crop.GrowingPeriod)
		assert.NotEmpty(t, crop.WaterNeed)
		assert.NotEmpty(t, crop.Description)
		assert.Greater(t, crop.MarketPrice, 0.0)
	}
}

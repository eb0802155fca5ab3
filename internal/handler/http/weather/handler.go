package weather

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"nammaraitha-backend/internal/service/suggestion"
	"nammaraitha-backend/internal/service/weather"
	"nammaraitha-backend/pkg/response"
)

// Handler handles weather and crop suggestion HTTP requests
type Handler struct {
	weatherService    *weather.Service
	suggestionService *suggestion.Service
}

// NewHandler creates a new weather handler
func NewHandler(weatherService *weather.Service, suggestionService *suggestion.Service) *Handler {
	return &Handler{
		weatherService:    weatherService,
		suggestionService: suggestionService,
	}
}

// GetCurrent returns current conditions for a coordinate pair
// GET /v1/weather?lat=12.97&lon=77.59
func (h *Handler) GetCurrent(c *gin.Context) {
	lat, lon, ok := coordinates(c)
	if !ok {
		return
	}

	snapshot, err := h.weatherService.GetCurrent(c.Request.Context(), lat, lon)
	if err != nil {
		response.Error(c, http.StatusBadGateway, "WEATHER_UNAVAILABLE", "Weather data unavailable")
		return
	}

	response.Success(c, http.StatusOK, snapshot)
}

// GetSuggestions returns crop suggestions for the current weather.
// An unavailable snapshot yields an empty list, not an error.
// GET /v1/weather/suggestions?lat=12.97&lon=77.59
func (h *Handler) GetSuggestions(c *gin.Context) {
	lat, lon, ok := coordinates(c)
	if !ok {
		return
	}

	snapshot, err := h.weatherService.GetCurrent(c.Request.Context(), lat, lon)
	if err != nil {
		snapshot = nil
	}

	suggestions := h.suggestionService.ForWeather(snapshot)
	response.Success(c, http.StatusOK, gin.H{"suggestions": suggestions})
}

func coordinates(c *gin.Context) (float64, float64, bool) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		response.ValidationError(c, "lat query parameter required")
		return 0, 0, false
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		response.ValidationError(c, "lon query parameter required")
		return 0, 0, false
	}
	return lat, lon, true
}

package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nammaraitha-backend/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InitDefault()
	os.Exit(m.Run())
}

const openWeatherPayload = `{
	"name": "Bengaluru",
	"main": {"temp": 27.4, "feels_like": 29.1, "humidity": 65},
	"wind": {"speed": 3.6},
	"weather": [{"main": "Clouds", "description": "scattered clouds"}]
}`

func TestGetCurrent_ParsesUpstreamPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		assert.Equal(t, "metric", query.Get("units"))
		assert.Equal(t, "test-key", query.Get("appid"))
		assert.NotEmpty(t, query.Get("lat"))
		assert.NotEmpty(t, query.Get("lon"))
		w.Write([]byte(openWeatherPayload))
	}))
	defer server.Close()

	svc := NewService(&Config{BaseURL: server.URL, APIKey: "test-key"})

	snapshot, err := svc.GetCurrent(context.Background(), 12.97, 77.59)

	require.NoError(t, err)
	assert.Equal(t, "Bengaluru", snapshot.City)
	assert.Equal(t, 27.4, snapshot.Temperature)
	assert.Equal(t, 29.1, snapshot.FeelsLike)
	assert.Equal(t, 65, snapshot.Humidity)
	assert.Equal(t, 3.6, snapshot.WindSpeed)
	assert.Equal(t, "Clouds", snapshot.Condition)
	assert.Equal(t, "scattered clouds", snapshot.Description)
	assert.WithinDuration(t, time.Now(), snapshot.FetchedAt, time.Second)
}

func TestGetCurrent_ServesFreshSnapshotFromCache(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Write([]byte(openWeatherPayload))
	}))
	defer server.Close()

	svc := NewService(&Config{BaseURL: server.URL, APIKey: "k", CacheTTL: time.Minute})

	_, err := svc.GetCurrent(context.Background(), 12.97, 77.59)
	require.NoError(t, err)
	_, err = svc.GetCurrent(context.Background(), 12.97, 77.59)
	require.NoError(t, err)

	assert.Equal(t, int64(1), atomic.LoadInt64(&hits), "second call must come from cache")
}

func TestGetCurrent_DistinctCoordinatesNotShared(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Write([]byte(openWeatherPayload))
	}))
	defer server.Close()

	svc := NewService(&Config{BaseURL: server.URL, APIKey: "k", CacheTTL: time.Minute})

	_, err := svc.GetCurrent(context.Background(), 12.97, 77.59)
	require.NoError(t, err)
	_, err = svc.GetCurrent(context.Background(), 19.07, 72.87)
	require.NoError(t, err)

	assert.Equal(t, int64(2), atomic.LoadInt64(&hits))
}

func TestGetCurrent_ServesStaleSnapshotWhenUpstreamFails(t *testing.T) {
	var fail atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(openWeatherPayload))
	}))
	defer server.Close()

	svc := NewService(&Config{BaseURL: server.URL, APIKey: "k", CacheTTL: time.Nanosecond})

	first, err := svc.GetCurrent(context.Background(), 12.97, 77.59)
	require.NoError(t, err)

	fail.Store(true)
	time.Sleep(time.Millisecond) // let the entry lapse

	stale, err := svc.GetCurrent(context.Background(), 12.97, 77.59)
	require.NoError(t, err, "stale snapshot beats an error")
	assert.Equal(t, first.City, stale.City)
}

func TestGetCurrent_ErrorWithNothingToFallBackTo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	svc := NewService(&Config{BaseURL: server.URL, APIKey: "k"})

	_, err := svc.GetCurrent(context.Background(), 12.97, 77.59)

	assert.Error(t, err)
}

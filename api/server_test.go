package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"weather-tracker/citylist"
	"weather-tracker/collector"
	"weather-tracker/datasource"
	"weather-tracker/logger"
	"weather-tracker/models"
	"weather-tracker/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWeather answers for every city except the ones listed in failing
func fakeWeather(failing ...string) *testutils.FuncProvider {
	isFailing := func(city string) bool {
		for _, f := range failing {
			if strings.EqualFold(f, city) {
				return true
			}
		}
		return false
	}

	return &testutils.FuncProvider{
		Current: func(ctx context.Context, city string) (models.WeatherSample, error) {
			if isFailing(city) {
				return models.WeatherSample{}, datasource.NewFetchError(city, datasource.ResourceCurrent, errors.New("city not found"))
			}
			return testutils.Sample(city, 15), nil
		},
		Forecast: func(ctx context.Context, city string) ([]models.ForecastSample, error) {
			if isFailing(city) {
				return nil, datasource.NewFetchError(city, datasource.ResourceForecast, errors.New("city not found"))
			}
			day := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
			return []models.ForecastSample{
				{Timestamp: day.Unix(), TemperatureC: 10, Condition: "rain"},
				{Timestamp: day.Add(6 * time.Hour).Unix(), TemperatureC: 14, Condition: "clear sky"},
			}, nil
		},
	}
}

func newTestServer(t *testing.T, p *testutils.FuncProvider) (http.Handler, citylist.Store) {
	t.Helper()

	store, err := citylist.NewSQLite(filepath.Join(t.TempDir(), "cities.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	c := collector.NewCollector(p, p, logger.NewNop())
	s := NewServer(store, collector.NewRefresher(c), c, 0, logger.NewNop())
	return s.Router(), store
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	return rec, decoded
}

func TestServer_Health(t *testing.T) {
	h, _ := newTestServer(t, fakeWeather())

	rec, body := do(t, h, http.MethodGet, "/api/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestServer_Cities(t *testing.T) {
	h, _ := newTestServer(t, fakeWeather())

	rec, body := do(t, h, http.MethodGet, "/api/cities", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{"New York", "London", "Tokyo"}, body["cities"])

	rec, body = do(t, h, http.MethodPost, "/api/cities", `{"name": " Paris "}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, float64(4), body["count"])

	rec, _ = do(t, h, http.MethodPost, "/api/cities", `{"name": "paris"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/api/cities", `{"name": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/api/cities", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = do(t, h, http.MethodDelete, "/api/cities/New%20York", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{"London", "Tokyo", "Paris"}, body["cities"])

	rec, _ = do(t, h, http.MethodDelete, "/api/cities/Berlin", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_RemoveCityAt(t *testing.T) {
	h, _ := newTestServer(t, fakeWeather())

	rec, body := do(t, h, http.MethodDelete, "/api/cities?index=1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{"New York", "Tokyo"}, body["cities"])

	rec, _ = do(t, h, http.MethodDelete, "/api/cities?index=5", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, h, http.MethodDelete, "/api/cities?index=first", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Weather(t *testing.T) {
	t.Run("sorted with failures dropped", func(t *testing.T) {
		h, store := newTestServer(t, fakeWeather("Atlantis"))
		_, err := store.Add("Atlantis")
		require.NoError(t, err)

		rec, body := do(t, h, http.MethodGet, "/api/weather", "")

		require.Equal(t, http.StatusOK, rec.Code)
		cities := body["cities"].([]interface{})
		require.Len(t, cities, 3)

		var names []string
		for _, c := range cities {
			names = append(names, c.(map[string]interface{})["city"].(string))
		}
		assert.Equal(t, []string{"London", "New York", "Tokyo"}, names)

		first := cities[0].(map[string]interface{})
		assert.Equal(t, "clear", first["icon"])
		assert.Equal(t, float64(15), first["temperature"])
	})

	t.Run("every city failing is an error", func(t *testing.T) {
		h, _ := newTestServer(t, fakeWeather("New York", "London", "Tokyo"))

		rec, body := do(t, h, http.MethodGet, "/api/weather", "")

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "Failed to load weather data", body["error"])
	})

	t.Run("empty city list is not an error", func(t *testing.T) {
		h, store := newTestServer(t, fakeWeather())
		for _, city := range citylist.DefaultCities {
			_, err := store.Remove(city)
			require.NoError(t, err)
		}

		rec, body := do(t, h, http.MethodGet, "/api/weather", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(0), body["count"])
	})
}

func TestServer_WeatherCached(t *testing.T) {
	h, _ := newTestServer(t, fakeWeather())

	// Nothing committed yet, so a refresh runs
	rec, body := do(t, h, http.MethodGet, "/api/weather?cached=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["epoch"])

	rec, body = do(t, h, http.MethodGet, "/api/weather?cached=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["epoch"])
	assert.Equal(t, float64(3), body["count"])

	rec, body = do(t, h, http.MethodGet, "/api/weather", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["epoch"])
}

func TestServer_WeatherSupersededByAdd(t *testing.T) {
	var blockOnce sync.Once
	started := make(chan struct{})
	p := &testutils.FuncProvider{
		Current: func(ctx context.Context, city string) (models.WeatherSample, error) {
			blocked := false
			if city == "London" {
				blockOnce.Do(func() { blocked = true })
			}
			if blocked {
				close(started)
				<-ctx.Done()
				return models.WeatherSample{}, ctx.Err()
			}
			return testutils.Sample(city, 15), nil
		},
	}
	h, _ := newTestServer(t, p)

	inFlight := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/weather", nil))
		inFlight <- rec
	}()
	<-started

	rec, _ := do(t, h, http.MethodPost, "/api/cities", `{"name": "Paris"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = <-inFlight
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count  int `json:"count"`
		Epoch  int `json:"epoch"`
		Cities []struct {
			City string `json:"city"`
		} `json:"cities"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Epoch)
	assert.Equal(t, 4, body.Count)

	var names []string
	for _, c := range body.Cities {
		names = append(names, c.City)
	}
	assert.Equal(t, []string{"London", "New York", "Paris", "Tokyo"}, names)
}

func TestServer_Detail(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		h, _ := newTestServer(t, fakeWeather())

		rec, body := do(t, h, http.MethodGet, "/api/weather/London", "")

		require.Equal(t, http.StatusOK, rec.Code)
		weather := body["weather"].(map[string]interface{})
		assert.Equal(t, "London", weather["city"])

		forecast := body["forecast"].([]interface{})
		require.Len(t, forecast, 1)
		day := forecast[0].(map[string]interface{})
		assert.Equal(t, "2024-03-01", day["date"])
		assert.Equal(t, float64(12), day["temperature"])
		assert.Equal(t, "rain", day["condition"])
		assert.Equal(t, "rain", day["icon"])
	})

	t.Run("failure is surfaced", func(t *testing.T) {
		h, _ := newTestServer(t, fakeWeather("Atlantis"))

		rec, body := do(t, h, http.MethodGet, "/api/weather/Atlantis", "")

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, body["error"], "city not found")
	})
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"weather-tracker/citylist"
	"weather-tracker/collector"
	"weather-tracker/logger"
	"weather-tracker/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	backgroundTimeout = 30 * time.Second
)

// DetailFetcher fetches the combined detail view for one city
type DetailFetcher interface {
	FetchDetail(ctx context.Context, city string) (collector.Detail, error)
}

// Refresher runs multi-city refresh cycles
type Refresher interface {
	Refresh(ctx context.Context, cities []string) (collector.Snapshot, error)
	Latest() collector.Snapshot
}

// Server represents the API server
type Server struct {
	cities    citylist.Store
	refresher Refresher
	details   DetailFetcher
	logger    logger.Logger
	server    *http.Server
}

// NewServer creates a new API server
func NewServer(cities citylist.Store, refresher Refresher, details DetailFetcher, port int, log logger.Logger) *Server {
	s := &Server{
		cities:    cities,
		refresher: refresher,
		details:   details,
		logger:    log.WithField("component", "api"),
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.Router(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	return s
}

// Router builds the HTTP handler with all routes registered
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(writeTimeout))

	// Health check
	r.Get("/api/health", s.handleHealthCheck)

	// Tracked cities
	r.Get("/api/cities", s.handleListCities)
	r.Post("/api/cities", s.handleAddCity)
	r.Delete("/api/cities", s.handleRemoveCityAt)
	r.Delete("/api/cities/{city}", s.handleRemoveCity)

	// Weather
	r.Get("/api/weather", s.handleGetWeather)
	r.Get("/api/weather/{city}", s.handleGetDetail)

	return otelhttp.NewHandler(r, "weather-tracker-api")
}

// Start begins the API server
func (s *Server) Start() error {
	s.logger.Infof("Starting API server on %s", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the API server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// weatherView is the JSON shape of one city's current weather
type weatherView struct {
	models.WeatherSample
	Icon models.IconCategory `json:"icon"`
}

// dayView is the JSON shape of one forecast day
type dayView struct {
	models.DailyForecast
	Icon models.IconCategory `json:"icon"`
}

func newWeatherView(w models.WeatherSample) weatherView {
	return weatherView{WeatherSample: w, Icon: w.Icon()}
}

// handleHealthCheck provides a simple health check endpoint
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleListCities returns the tracked cities
func (s *Server) handleListCities(w http.ResponseWriter, r *http.Request) {
	cities, err := s.cities.List()
	if err != nil {
		s.logger.Errorf("Failed to list cities: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load city list")
		return
	}
	writeCities(w, http.StatusOK, cities)
}

// handleAddCity adds a city and refreshes the weather in the background
func (s *Server) handleAddCity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cities, err := s.cities.Add(req.Name)
	switch {
	case errors.Is(err, citylist.ErrEmptyName):
		writeError(w, http.StatusBadRequest, "City name is required")
		return
	case errors.Is(err, citylist.ErrDuplicate):
		writeError(w, http.StatusConflict, fmt.Sprintf("City already tracked: %s", req.Name))
		return
	case err != nil:
		s.logger.Errorf("Failed to add city %q: %v", req.Name, err)
		writeError(w, http.StatusInternalServerError, "Failed to save city list")
		return
	}

	s.refreshInBackground(cities)
	writeCities(w, http.StatusCreated, cities)
}

// handleRemoveCity removes a city and refreshes the weather in the background
func (s *Server) handleRemoveCity(w http.ResponseWriter, r *http.Request) {
	city := chi.URLParam(r, "city")

	cities, err := s.cities.Remove(city)
	switch {
	case errors.Is(err, citylist.ErrNotFound):
		writeError(w, http.StatusNotFound, fmt.Sprintf("City not tracked: %s", city))
		return
	case err != nil:
		s.logger.Errorf("Failed to remove city %q: %v", city, err)
		writeError(w, http.StatusInternalServerError, "Failed to save city list")
		return
	}

	s.refreshInBackground(cities)
	writeCities(w, http.StatusOK, cities)
}

// handleRemoveCityAt removes the city at ?index= and refreshes the weather in the background
func (s *Server) handleRemoveCityAt(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.URL.Query().Get("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Query parameter index must be an integer")
		return
	}

	cities, err := s.cities.RemoveAt(index)
	switch {
	case errors.Is(err, citylist.ErrNotFound):
		writeError(w, http.StatusNotFound, fmt.Sprintf("No city at index %d", index))
		return
	case err != nil:
		s.logger.Errorf("Failed to remove city at %d: %v", index, err)
		writeError(w, http.StatusInternalServerError, "Failed to save city list")
		return
	}

	s.refreshInBackground(cities)
	writeCities(w, http.StatusOK, cities)
}

// handleGetWeather returns current weather for every tracked city.
// It runs a refresh unless ?cached=1 asks for the last committed snapshot.
func (s *Server) handleGetWeather(w http.ResponseWriter, r *http.Request) {
	if cached, _ := strconv.ParseBool(r.URL.Query().Get("cached")); cached {
		if snapshot := s.refresher.Latest(); snapshot.Epoch > 0 {
			writeSnapshot(w, snapshot)
			return
		}
	}

	cities, err := s.cities.List()
	if err != nil {
		s.logger.Errorf("Failed to list cities: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load city list")
		return
	}

	snapshot, err := s.refresher.Refresh(r.Context(), cities)
	if errors.Is(err, collector.ErrStaleCycle) {
		// Superseded; snapshot is the result of the cycle that replaced ours
		s.logger.Debugf("Serving newer snapshot %d", snapshot.Epoch)
	} else if err != nil {
		s.logger.Errorf("Refresh failed: %v", err)
		writeError(w, http.StatusBadGateway, "Failed to load weather data")
		return
	}

	if snapshot.Epoch == 0 || snapshot.AllFailed() {
		writeError(w, http.StatusBadGateway, "Failed to load weather data")
		return
	}

	writeSnapshot(w, snapshot)
}

func writeSnapshot(w http.ResponseWriter, snapshot collector.Snapshot) {
	views := make([]weatherView, 0, len(snapshot.Weather))
	for _, sample := range snapshot.Weather {
		views = append(views, newWeatherView(sample))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cities":  views,
		"count":   len(views),
		"epoch":   snapshot.Epoch,
		"cycleId": snapshot.CycleID,
		"updated": snapshot.CompletedAt,
	})
}

// handleGetDetail returns current weather plus the daily forecast for one city
func (s *Server) handleGetDetail(w http.ResponseWriter, r *http.Request) {
	city := chi.URLParam(r, "city")

	detail, err := s.details.FetchDetail(r.Context(), city)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	days := make([]dayView, 0, len(detail.Forecast))
	for _, day := range detail.Forecast {
		days = append(days, dayView{DailyForecast: day, Icon: day.Icon()})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"weather":  newWeatherView(detail.Weather),
		"forecast": days,
	})
}

// refreshInBackground starts a refresh that outlives the request.
// A later refresh supersedes it through the refresher's epochs.
func (s *Server) refreshInBackground(cities []string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()

		if _, err := s.refresher.Refresh(ctx, cities); err != nil && !errors.Is(err, collector.ErrStaleCycle) {
			s.logger.Warnf("Background refresh failed: %v", err)
		}
	}()
}

func writeCities(w http.ResponseWriter, status int, cities []string) {
	writeJSON(w, status, map[string]interface{}{
		"cities": cities,
		"count":  len(cities),
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

package openweathermap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"weather-tracker/datasource"
	"weather-tracker/logger"
	"weather-tracker/models"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// DefaultBaseURL is the OpenWeatherMap 2.5 API root
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"
	// DefaultUnits requests Celsius temperatures
	DefaultUnits = "metric"
	// DefaultTimeout bounds a single request round trip
	DefaultTimeout = 10 * time.Second
)

// Config holds everything needed to talk to OpenWeatherMap
type Config struct {
	BaseURL    string
	APIKey     string
	Units      string
	Timeout    time.Duration
	HTTPClient *http.Client // optional, replaces the default instrumented client
	Logger     logger.Logger
}

// Provider implements both WeatherProvider and ForecastSource interfaces
type Provider struct {
	apiKey     string
	baseURL    string
	units      string
	httpClient *http.Client
	logger     logger.Logger
}

// Ensure Provider implements the datasource interfaces
var (
	_ datasource.WeatherProvider = (*Provider)(nil)
	_ datasource.ForecastSource  = (*Provider)(nil)
)

// NewProvider creates a new OpenWeatherMap provider
func NewProvider(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Units == "" {
		cfg.Units = DefaultUnits
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return &Provider{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		units:      cfg.Units,
		httpClient: client,
		logger:     cfg.Logger.WithField("component", "openweathermap"),
	}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "OpenWeatherMap"
}

// conditionEntry is one element of the provider's "weather" array
type conditionEntry struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// mainBlock is the provider's "main" object
type mainBlock struct {
	Temp      float64 `json:"temp"`
	Humidity  int     `json:"humidity"`
	FeelsLike float64 `json:"feels_like"`
}

// currentResponse represents the /weather response structure
type currentResponse struct {
	Name    string           `json:"name"`
	Main    *mainBlock       `json:"main"`
	Weather []conditionEntry `json:"weather"`
}

// errorResponse is the body OpenWeatherMap sends with error statuses
type errorResponse struct {
	Message string `json:"message"`
}

// FetchCurrent fetches current weather for a city
func (p *Provider) FetchCurrent(ctx context.Context, city string) (models.WeatherSample, error) {
	var response currentResponse
	if err := p.get(ctx, datasource.ResourceCurrent, city, &response); err != nil {
		return models.WeatherSample{}, datasource.NewFetchError(city, datasource.ResourceCurrent, err)
	}

	if err := response.validate(); err != nil {
		return models.WeatherSample{}, datasource.NewFetchError(city, datasource.ResourceCurrent, err)
	}

	// Fall back to the requested name if the provider omits it
	name := response.Name
	if name == "" {
		name = city
	}

	sample := models.WeatherSample{
		City:         name,
		TemperatureC: response.Main.Temp,
		FeelsLikeC:   response.Main.FeelsLike,
		HumidityPct:  response.Main.Humidity,
		Condition:    firstCondition(response.Weather),
	}

	p.logger.Debugf("Fetched current weather for %s: %.1f°C, %s", sample.City, sample.TemperatureC, sample.Condition)
	return sample, nil
}

func (r currentResponse) validate() error {
	if r.Main == nil {
		return fmt.Errorf("%w: missing main block", datasource.ErrMalformedResponse)
	}
	return validateHumidity(r.Main.Humidity)
}

// get performs a single GET against resource and decodes the JSON body into out
func (p *Provider) get(ctx context.Context, resource, city string, out interface{}) error {
	// Build URL
	endpoint := fmt.Sprintf("%s/%s", p.baseURL, resource)
	params := url.Values{}
	params.Add("q", city)
	params.Add("units", p.units)
	params.Add("appid", p.apiKey)

	// Create request
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// Execute request
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	// Read response body
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	// Check for error status code
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, body)
	}

	// Parse response
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", datasource.ErrMalformedResponse, err)
	}

	return nil
}

func statusError(code int, body []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("%w %d: %s", datasource.ErrUnexpectedStatus, code, apiErr.Message)
	}
	return fmt.Errorf("%w %d: %s", datasource.ErrUnexpectedStatus, code, strings.TrimSpace(string(body)))
}

func validateHumidity(humidity int) error {
	if humidity < 0 || humidity > 100 {
		return fmt.Errorf("%w: humidity %d out of range", datasource.ErrMalformedResponse, humidity)
	}
	return nil
}

// firstCondition returns the first reported description, or UnknownCondition
func firstCondition(entries []conditionEntry) string {
	if len(entries) == 0 {
		return models.UnknownCondition
	}
	return entries[0].Description
}

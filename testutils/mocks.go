package testutils

import (
	"context"

	"weather-tracker/models"

	"github.com/stretchr/testify/mock"
)

// MockProvider is a testify mock implementing both datasource interfaces
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) FetchCurrent(ctx context.Context, city string) (models.WeatherSample, error) {
	args := m.Called(ctx, city)
	return args.Get(0).(models.WeatherSample), args.Error(1)
}

func (m *MockProvider) FetchForecastRaw(ctx context.Context, city string) ([]models.ForecastSample, error) {
	args := m.Called(ctx, city)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ForecastSample), args.Error(1)
}

func (m *MockProvider) Name() string {
	return "MockProvider"
}

// FuncProvider delegates to plain functions, for tests that need to block on the context
type FuncProvider struct {
	Current  func(ctx context.Context, city string) (models.WeatherSample, error)
	Forecast func(ctx context.Context, city string) ([]models.ForecastSample, error)
}

func (f *FuncProvider) FetchCurrent(ctx context.Context, city string) (models.WeatherSample, error) {
	return f.Current(ctx, city)
}

func (f *FuncProvider) FetchForecastRaw(ctx context.Context, city string) ([]models.ForecastSample, error) {
	return f.Forecast(ctx, city)
}

func (f *FuncProvider) Name() string {
	return "FuncProvider"
}

// Sample returns a plausible weather sample for city
func Sample(city string, temp float64) models.WeatherSample {
	return models.WeatherSample{
		City:         city,
		TemperatureC: temp,
		FeelsLikeC:   temp - 1,
		HumidityPct:  50,
		Condition:    "clear sky",
	}
}

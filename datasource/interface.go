package datasource

import (
	"context"

	"weather-tracker/models"
)

// WeatherProvider is an interface for services that can fetch current weather data
type WeatherProvider interface {
	// FetchCurrent fetches current conditions for a city
	FetchCurrent(ctx context.Context, city string) (models.WeatherSample, error)

	// Name returns the provider's name
	Name() string
}

// ForecastSource is an interface for services that can fetch raw forecast points
type ForecastSource interface {
	// FetchForecastRaw fetches the provider's forecast points for a city, in provider order
	FetchForecastRaw(ctx context.Context, city string) ([]models.ForecastSample, error)

	// Name returns the source's name
	Name() string
}

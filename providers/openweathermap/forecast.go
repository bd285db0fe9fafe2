package openweathermap

import (
	"context"
	"fmt"

	"weather-tracker/datasource"
	"weather-tracker/models"
)

// forecastResponse represents the /forecast response structure
type forecastResponse struct {
	List *[]forecastItem `json:"list"`
}

// forecastItem is one 3-hour point of the forecast list
type forecastItem struct {
	Dt      int64            `json:"dt"` // Timestamp
	Main    mainBlock        `json:"main"`
	Weather []conditionEntry `json:"weather"`
}

// FetchForecastRaw fetches the 5-day / 3-hour forecast for a city.
// Points are returned in the order the provider sent them.
func (p *Provider) FetchForecastRaw(ctx context.Context, city string) ([]models.ForecastSample, error) {
	var response forecastResponse
	if err := p.get(ctx, datasource.ResourceForecast, city, &response); err != nil {
		return nil, datasource.NewFetchError(city, datasource.ResourceForecast, err)
	}

	if response.List == nil {
		err := fmt.Errorf("%w: missing list", datasource.ErrMalformedResponse)
		return nil, datasource.NewFetchError(city, datasource.ResourceForecast, err)
	}

	// Convert response to our model
	items := *response.List
	samples := make([]models.ForecastSample, 0, len(items))
	for _, item := range items {
		if err := validateHumidity(item.Main.Humidity); err != nil {
			return nil, datasource.NewFetchError(city, datasource.ResourceForecast, err)
		}

		samples = append(samples, models.ForecastSample{
			Timestamp:    item.Dt,
			TemperatureC: item.Main.Temp,
			Condition:    firstCondition(item.Weather),
		})
	}

	p.logger.Debugf("Fetched %d forecast points for %s", len(samples), city)
	return samples, nil
}

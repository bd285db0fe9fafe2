package collector

import (
	"context"
	"sync"

	"weather-tracker/datasource"
	"weather-tracker/forecast"
	"weather-tracker/models"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Detail is the combined current weather and daily forecast for one city
type Detail struct {
	Weather  models.WeatherSample   `json:"weather"`
	Forecast []models.DailyForecast `json:"forecast"`
}

// FetchDetail fetches current weather and the daily forecast for a city in parallel.
// Both must succeed; the first error wins and cancels the other request.
func (c *Collector) FetchDetail(ctx context.Context, city string) (Detail, error) {
	ctx, span := c.tracer.Start(ctx, "collector.FetchDetail")
	defer span.End()
	span.SetAttributes(attribute.String("city", city))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		detail   Detail
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)

	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	// guard turns a panicking branch into a failure of the whole call
	guard := func(resource string) {
		if v := recover(); v != nil {
			fail(datasource.NewFetchError(city, resource, &panicError{city: city, value: v}))
		}
	}

	wg.Add(2)

	go func() {
		defer wg.Done()
		defer guard(datasource.ResourceCurrent)

		weather, err := c.fetchCurrent(ctx, city)
		if err != nil {
			fail(err)
			return
		}
		detail.Weather = weather
	}()

	go func() {
		defer wg.Done()
		defer guard(datasource.ResourceForecast)

		samples, err := c.fetchForecastRaw(ctx, city)
		if err != nil {
			fail(err)
			return
		}
		detail.Forecast = forecast.Aggregate(samples)
	}()

	wg.Wait()

	if firstErr != nil {
		c.logger.Warnf("Detail fetch for %s failed: %v", city, firstErr)
		span.RecordError(firstErr)
		span.SetStatus(codes.Error, "detail fetch failed")
		return Detail{}, firstErr
	}

	span.SetStatus(codes.Ok, "")
	return detail, nil
}

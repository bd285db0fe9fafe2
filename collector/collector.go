package collector

import (
	"context"
	"errors"
	"sort"
	"time"

	"weather-tracker/datasource"
	"weather-tracker/logger"
	"weather-tracker/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultFetchTimeout bounds each individual provider request
const DefaultFetchTimeout = 10 * time.Second

// Result is the outcome of fetching one city.
// Exactly one of Weather or Err is meaningful.
type Result struct {
	City    string
	Weather models.WeatherSample
	Err     error
}

// outcome is what each fetch goroutine sends back to the fan-in loop
type outcome struct {
	index  int
	result Result
}

// Collector fetches weather for many cities concurrently
type Collector struct {
	weather      datasource.WeatherProvider
	forecasts    datasource.ForecastSource
	logger       logger.Logger
	tracer       trace.Tracer
	fetchTimeout time.Duration
}

// NewCollector creates a new collector on top of the given providers
func NewCollector(weather datasource.WeatherProvider, forecasts datasource.ForecastSource, log logger.Logger) *Collector {
	if log == nil {
		log = logger.NewNop()
	}
	return &Collector{
		weather:      weather,
		forecasts:    forecasts,
		logger:       log.WithField("component", "collector"),
		tracer:       otel.Tracer("weather-tracker/collector"),
		fetchTimeout: DefaultFetchTimeout,
	}
}

// SetFetchTimeout changes the timeout for API requests
func (c *Collector) SetFetchTimeout(timeout time.Duration) {
	c.fetchTimeout = timeout
}

// FetchAll fetches current weather for every city concurrently.
// Cities that fail are dropped; the rest are returned sorted by city name.
func (c *Collector) FetchAll(ctx context.Context, cities []string) ([]models.WeatherSample, error) {
	results, err := c.FetchAllResults(ctx, cities)
	if err != nil {
		return nil, err
	}

	samples := make([]models.WeatherSample, 0, len(results))
	for _, result := range results {
		if result.Err != nil {
			c.logger.Warnf("Dropping %s from results: %v", result.City, result.Err)
			continue
		}
		samples = append(samples, result.Weather)
	}

	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].City < samples[j].City
	})

	c.logger.Infof("Fetched weather for %d out of %d cities", len(samples), len(cities))
	return samples, nil
}

// FetchAllResults fetches current weather for every city concurrently and
// returns one Result per requested city, in request order.
func (c *Collector) FetchAllResults(ctx context.Context, cities []string) ([]Result, error) {
	if len(cities) == 0 {
		return []Result{}, nil
	}

	ctx, span := c.tracer.Start(ctx, "collector.FetchAll")
	defer span.End()
	span.SetAttributes(attribute.Int("cities.requested", len(cities)))

	// Buffered so that abandoned goroutines never block on send
	outcomes := make(chan outcome, len(cities))

	// Fan out: one goroutine per city
	for i, city := range cities {
		go c.collect(ctx, i, city, outcomes)
	}

	results, err := gather(ctx, outcomes, len(cities))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch cycle abandoned")
		return nil, err
	}

	succeeded := 0
	for _, result := range results {
		if result.Err == nil {
			succeeded++
		}
	}

	span.SetAttributes(attribute.Int("cities.succeeded", succeeded))
	span.SetStatus(codes.Ok, "")
	return results, nil
}

// gather is the fan-in: it waits for n outcomes or for the caller to give up.
// Outcomes already buffered when ctx is done still count.
func gather(ctx context.Context, outcomes <-chan outcome, n int) ([]Result, error) {
	results := make([]Result, n)
	received := 0
	for received < n {
		select {
		case o := <-outcomes:
			results[o.index] = o.result
			received++
		case <-ctx.Done():
			for received < n {
				select {
				case o := <-outcomes:
					results[o.index] = o.result
					received++
				default:
					return nil, &AggregateFetchError{Err: ctx.Err()}
				}
			}
		}
	}
	return results, nil
}

// collect performs a single isolated fetch and reports it on out.
// A panic becomes that city's error.
func (c *Collector) collect(ctx context.Context, index int, city string, out chan<- outcome) {
	defer func() {
		if v := recover(); v != nil {
			err := datasource.NewFetchError(city, datasource.ResourceCurrent, &panicError{city: city, value: v})
			c.logger.Errorf("Recovered: %v", err)
			out <- outcome{index: index, result: Result{City: city, Err: err}}
		}
	}()

	weather, err := c.fetchCurrent(ctx, city)
	out <- outcome{index: index, result: Result{City: city, Weather: weather, Err: err}}
}

// fetchCurrent fetches one city under the per-request timeout
func (c *Collector) fetchCurrent(ctx context.Context, city string) (models.WeatherSample, error) {
	// Create a context with timeout for this specific request
	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	weather, err := c.weather.FetchCurrent(fetchCtx, city)
	if err != nil {
		return models.WeatherSample{}, asFetchError(city, datasource.ResourceCurrent, err)
	}
	return weather, nil
}

// fetchForecastRaw fetches raw forecast points for one city under the per-request timeout
func (c *Collector) fetchForecastRaw(ctx context.Context, city string) ([]models.ForecastSample, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	samples, err := c.forecasts.FetchForecastRaw(fetchCtx, city)
	if err != nil {
		return nil, asFetchError(city, datasource.ResourceForecast, err)
	}
	return samples, nil
}

// asFetchError makes sure every per-city failure is a *datasource.FetchError
func asFetchError(city, resource string, err error) error {
	var fetchErr *datasource.FetchError
	if errors.As(err, &fetchErr) {
		return err
	}
	return datasource.NewFetchError(city, resource, err)
}

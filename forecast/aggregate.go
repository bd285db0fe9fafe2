// Package forecast turns the provider's 3-hour forecast points into daily forecasts.
package forecast

import (
	"sort"

	"weather-tracker/models"
)

// MaxDays is the number of daily forecasts shown for a city
const MaxDays = 4

// dayGroup accumulates the samples that fall on one UTC date
type dayGroup struct {
	sum       float64
	count     int
	condition string
}

// Aggregate groups samples by UTC calendar date and returns at most MaxDays
// daily forecasts in ascending date order.
func Aggregate(samples []models.ForecastSample) []models.DailyForecast {
	return AggregateDays(samples, MaxDays)
}

// AggregateDays is Aggregate with a caller-chosen limit. A limit <= 0 keeps every day.
//
// The temperature of a day is the plain mean of its samples. The condition is
// taken from the first sample of that day in input order, not the most frequent one.
func AggregateDays(samples []models.ForecastSample, limit int) []models.DailyForecast {
	groups := make(map[string]*dayGroup)
	for _, sample := range samples {
		key := sample.DateKey()
		group, ok := groups[key]
		if !ok {
			group = &dayGroup{condition: sample.Condition}
			groups[key] = group
		}
		group.sum += sample.TemperatureC
		group.count++
	}

	// YYYY-MM-DD sorts lexically in chronological order
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}

	days := make([]models.DailyForecast, 0, len(keys))
	for _, key := range keys {
		group := groups[key]
		days = append(days, models.DailyForecast{
			Date:         key,
			TemperatureC: group.sum / float64(group.count),
			Condition:    group.condition,
		})
	}
	return days
}

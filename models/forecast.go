package models

import (
	"time"
)

// DateKeyLayout is the calendar date format used to group forecast samples
const DateKeyLayout = "2006-01-02"

// ForecastSample represents a single raw forecast point (3-hour resolution)
type ForecastSample struct {
	Timestamp    int64   `json:"dt"`          // unix seconds, UTC based
	TemperatureC float64 `json:"temperature"` // in Celsius
	Condition    string  `json:"condition"`   // provider's textual description
}

// Time returns the sample timestamp in UTC
func (f ForecastSample) Time() time.Time {
	return time.Unix(f.Timestamp, 0).UTC()
}

// DateKey returns the UTC calendar date of the sample as YYYY-MM-DD
func (f ForecastSample) DateKey() string {
	return f.Time().Format(DateKeyLayout)
}

// DailyForecast represents one aggregated day of forecast data
type DailyForecast struct {
	Date         string  `json:"date"`        // YYYY-MM-DD
	TemperatureC float64 `json:"temperature"` // mean of the day's samples
	Condition    string  `json:"condition"`   // condition of the day's first sample
}

// Icon returns the display icon category for the day's condition
func (d DailyForecast) Icon() IconCategory {
	return IconFor(d.Condition)
}

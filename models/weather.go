package models

// UnknownCondition is used when the provider reports no weather condition
const UnknownCondition = "Unknown"

// WeatherSample represents the current conditions for a single city
type WeatherSample struct {
	City         string  `json:"city"`        // display name reported by the provider
	TemperatureC float64 `json:"temperature"` // in Celsius
	FeelsLikeC   float64 `json:"feelsLike"`   // in Celsius
	HumidityPct  int     `json:"humidity"`    // percentage, 0-100
	Condition    string  `json:"condition"`   // provider's textual description
}

// Icon returns the display icon category for the current condition
func (w WeatherSample) Icon() IconCategory {
	return IconFor(w.Condition)
}

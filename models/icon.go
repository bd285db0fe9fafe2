package models

import (
	"encoding/json"
	"strings"
)

// IconCategory is the display icon for a weather condition
type IconCategory int

const (
	IconUnknown IconCategory = iota
	IconClear
	IconPartlyCloudy
	IconCloudy
	IconRain
	IconThunderstorm
	IconSnow
	IconFog
)

var iconNames = map[IconCategory]string{
	IconUnknown:      "unknown",
	IconClear:        "clear",
	IconPartlyCloudy: "partly-cloudy",
	IconCloudy:       "cloudy",
	IconRain:         "rain",
	IconThunderstorm: "thunderstorm",
	IconSnow:         "snow",
	IconFog:          "fog",
}

// conditionIcons lists every condition text with a dedicated icon.
// Keys are lower case; anything else maps to IconUnknown.
var conditionIcons = map[string]IconCategory{
	"clear sky":        IconClear,
	"few clouds":       IconPartlyCloudy,
	"scattered clouds": IconPartlyCloudy,
	"broken clouds":    IconPartlyCloudy,
	"overcast clouds":  IconCloudy,
	"shower rain":      IconRain,
	"rain":             IconRain,
	"thunderstorm":     IconThunderstorm,
	"snow":             IconSnow,
	"mist":             IconFog,
	"fog":              IconFog,
	"haze":             IconFog,
}

// IconFor maps a provider condition text to its icon category
func IconFor(condition string) IconCategory {
	if icon, ok := conditionIcons[strings.ToLower(condition)]; ok {
		return icon
	}
	return IconUnknown
}

// String returns the icon name used by API clients
func (c IconCategory) String() string {
	if name, ok := iconNames[c]; ok {
		return name
	}
	return iconNames[IconUnknown]
}

// MarshalJSON encodes the icon as its name
func (c IconCategory) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

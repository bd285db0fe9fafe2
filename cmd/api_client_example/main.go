package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

// cityWeather mirrors one entry of GET /api/weather
type cityWeather struct {
	City        string  `json:"city"`
	Temperature float64 `json:"temperature"`
	Condition   string  `json:"condition"`
	Icon        string  `json:"icon"`
}

// detail mirrors GET /api/weather/{city}
type detail struct {
	Weather struct {
		City        string  `json:"city"`
		Temperature float64 `json:"temperature"`
		FeelsLike   float64 `json:"feelsLike"`
		Humidity    int     `json:"humidity"`
		Condition   string  `json:"condition"`
	} `json:"weather"`
	Forecast []struct {
		Date        string  `json:"date"`
		Temperature float64 `json:"temperature"`
		Condition   string  `json:"condition"`
		Icon        string  `json:"icon"`
	} `json:"forecast"`
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the weather-tracker API")
	flag.Parse()

	fmt.Println("Weather Tracker Client Example")
	fmt.Println("==============================")

	client := &http.Client{Timeout: 30 * time.Second}

	// Get current weather for every tracked city
	fmt.Println("\nFetching weather for tracked cities...")
	var list struct {
		Cities []cityWeather `json:"cities"`
		Error  string        `json:"error"`
	}
	if err := getJSON(client, *baseURL+"/api/weather", &list); err != nil {
		fmt.Printf("Error fetching weather: %v\n", err)
		os.Exit(1)
	}

	if len(list.Cities) == 0 {
		fmt.Println("No cities tracked yet. Add one with POST /api/cities.")
		return
	}

	for _, c := range list.Cities {
		fmt.Printf("  %-20s %6.1f°C  %-14s (%s)\n", c.City, c.Temperature, c.Icon, c.Condition)
	}

	// Show the detail view of the first city
	city := list.Cities[0].City
	fmt.Printf("\nFetching detail for %s...\n", city)

	var d detail
	if err := getJSON(client, *baseURL+"/api/weather/"+url.PathEscape(city), &d); err != nil {
		fmt.Printf("Error fetching detail: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s: %.1f°C, feels like %.1f°C, humidity %d%%, %s\n",
		d.Weather.City, d.Weather.Temperature, d.Weather.FeelsLike, d.Weather.Humidity, d.Weather.Condition)
	fmt.Println("4-Day Forecast")
	for _, day := range d.Forecast {
		fmt.Printf("  %s  %6.1f°C  %s\n", day.Date, day.Temperature, day.Icon)
	}
}

// getJSON issues a GET and decodes the body, turning error responses into errors
func getJSON(client *http.Client, target string, out interface{}) error {
	resp, err := client.Get(target)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("status %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	return json.Unmarshal(body, out)
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	App            AppConfig            `mapstructure:"app"`
	OpenWeatherMap OpenWeatherMapConfig `mapstructure:"openweathermap"`
	Server         ServerConfig         `mapstructure:"server"`
	Storage        StorageConfig        `mapstructure:"storage"`
	Telemetry      TelemetryConfig      `mapstructure:"telemetry"`
	Cities         CitiesConfig         `mapstructure:"cities"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
}

// OpenWeatherMapConfig holds the provider credential and endpoint
type OpenWeatherMapConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Units   string        `mapstructure:"units"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type StorageConfig struct {
	Path string `mapstructure:"path"` // sqlite database file
}

// CitiesConfig seeds the tracked list on first run
type CitiesConfig struct {
	Defaults []string `mapstructure:"defaults"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"` // empty disables export
}

// environment variables that override file settings
var envBindings = map[string]string{
	"app.env":                 "APP_ENV",
	"app.log_level":           "LOG_LEVEL",
	"openweathermap.api_key":  "OPENWEATHERMAP_API_KEY",
	"openweathermap.base_url": "OPENWEATHERMAP_BASE_URL",
	"server.port":             "PORT",
	"storage.path":            "WEATHER_DB_PATH",
	"telemetry.otlp_endpoint": "OTEL_EXPORTER_OTLP_ENDPOINT",
}

// Load reads configuration from .env, the given config file (if it exists) and the environment.
// An empty path searches for config.{json,yaml} in the working directory and ./config.
func Load(path string) (*Config, error) {
	// Load environment variables from .env file; a missing file is fine
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "weather-tracker")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("openweathermap.base_url", "https://api.openweathermap.org/data/2.5")
	v.SetDefault("openweathermap.units", "metric")
	v.SetDefault("openweathermap.timeout", 10*time.Second)
	v.SetDefault("server.port", 8080)
	v.SetDefault("storage.path", "weather-tracker.db")
	v.SetDefault("cities.defaults", []string{"New York", "London", "Tokyo"})
}

// Validate checks the settings needed to start
func (c *Config) Validate() error {
	if c.OpenWeatherMap.APIKey == "" {
		return errors.New("openweathermap api key is required")
	}
	if c.OpenWeatherMap.Timeout <= 0 {
		return fmt.Errorf("openweathermap timeout must be positive, got %v", c.OpenWeatherMap.Timeout)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Storage.Path == "" {
		return errors.New("storage path is required")
	}
	return nil
}

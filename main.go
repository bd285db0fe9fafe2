package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"weather-tracker/api"
	"weather-tracker/citylist"
	"weather-tracker/collector"
	"weather-tracker/config"
	"weather-tracker/logger"
	"weather-tracker/providers/openweathermap"
	"weather-tracker/telemetry"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Parse command line arguments
	configFile := flag.String("config", "", "Path to configuration file")
	port := flag.Int("port", 0, "Port to run the server on (overrides config)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	appLog := logger.New(cfg.App.LogLevel, cfg.App.Env).WithField("service", cfg.App.Name)

	if err := run(cfg, appLog); err != nil {
		log.Fatalf("Application failed: %v", err)
	}
}

func run(cfg *config.Config, appLog logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.App.Name, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			appLog.Warnf("Failed to flush traces: %v", err)
		}
	}()

	// City list persistence
	store, err := citylist.NewSQLite(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	store.SetDefaults(cfg.Cities.Defaults)

	// Weather provider and orchestration
	provider := openweathermap.NewProvider(openweathermap.Config{
		BaseURL: cfg.OpenWeatherMap.BaseURL,
		APIKey:  cfg.OpenWeatherMap.APIKey,
		Units:   cfg.OpenWeatherMap.Units,
		Timeout: cfg.OpenWeatherMap.Timeout,
		Logger:  appLog,
	})
	weatherCollector := collector.NewCollector(provider, provider, appLog)
	weatherCollector.SetFetchTimeout(cfg.OpenWeatherMap.Timeout)
	refresher := collector.NewRefresher(weatherCollector)

	server := api.NewServer(store, refresher, weatherCollector, cfg.Server.Port, appLog)

	// Warm up with an initial refresh so the first log shows which cities resolve
	go initialRefresh(ctx, store, refresher, appLog)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		appLog.Info("Shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLog.Errorf("Error during shutdown: %v", err)
	}

	appLog.Info("Shutdown complete")
	return nil
}

func initialRefresh(ctx context.Context, store citylist.Store, refresher *collector.Refresher, appLog logger.Logger) {
	cities, err := store.List()
	if err != nil {
		appLog.Errorf("Failed to load city list: %v", err)
		return
	}

	snapshot, err := refresher.Refresh(ctx, cities)
	if err != nil {
		if !errors.Is(err, collector.ErrStaleCycle) {
			appLog.Warnf("Initial refresh failed: %v", err)
		}
		return
	}
	appLog.Infof("Initial refresh loaded %d of %d cities", len(snapshot.Weather), len(cities))
}

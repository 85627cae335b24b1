package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"forecastwise/api"
	"forecastwise/app"
	"forecastwise/cities"
	"forecastwise/collector"
	"forecastwise/datasource"
	"forecastwise/telemetry"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		logger.Warn("could not load .env file", "error", err)
	}

	// Parse command line arguments
	port := flag.Int("port", 0, "Port to run the server on (overrides config)")
	configFile := flag.String("config", "", "Path to configuration file")
	enableRateLimiting := flag.Bool("rate-limit", true, "Enable API rate limiting")
	flag.Parse()

	// Load configuration
	config, err := datasource.LoadConfig(*configFile)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *port != 0 {
		config.Port = *port
	}
	if !*enableRateLimiting {
		config.RateLimit.Enabled = false
	}

	shutdownTracing, err := telemetry.SetTracing(config.Tracing.ServiceName, config.Tracing.ZipkinURL)
	if err != nil {
		logger.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}

	dashboard, sources, err := app.NewDashboard(config, logger)
	if err != nil {
		logger.Error("failed to build dashboard", "error", err)
		os.Exit(1)
	}
	logger.Info("dashboard ready",
		"weather", sources.Weather.Name(),
		"history", sources.History.Name(),
		"timezone", config.Timezone)

	server := api.NewServer(dashboard, config.Port,
		api.WithLogger(logger),
		api.WithHistoryCredit(sources.HistoryCredit),
	)

	// Keep every city's series warm in the history cache
	stopWarmer := func() {}
	if config.History.WarmInterval > 0 {
		warmer := collector.NewHistoryWarmer(sources.History, cities.All(), dashboard.HistoryWindow, config.History.WarmInterval)
		warmer.SetFetchTimeout(config.HTTPTimeout)
		stopWarmer = warmer.Start(context.Background())
		go func() {
			for result := range warmer.Results() {
				if result.Err != nil {
					logger.Warn("history warm failed", "city", result.City.Name, "error", result.Err)
					continue
				}
				logger.Debug("history warmed", "city", result.City.Name, "rows", result.Rows)
			}
		}()
	}

	// Set up channel for graceful shutdown
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	// Start the API server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for shutdown signal or server failure
	select {
	case sig := <-shutdownChan:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-serverErr:
		logger.Error("server stopped", "error", err)
	}

	stopWarmer()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.Error("tracing shutdown failed", "error", err)
	}
	logger.Info("shutdown complete")
}

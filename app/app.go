package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"forecastwise/cache"
	"forecastwise/datasource"
	"forecastwise/forecast"
	"forecastwise/pipeline"
	"forecastwise/providers/meteostat"
	"forecastwise/providers/openmeteo"
	"forecastwise/providers/openweathermap"
)

// Sources are the upstreams a dashboard was built with
type Sources struct {
	Weather datasource.WeatherProvider
	History datasource.HistorySource

	// HistoryCredit names the historical data provider for display
	HistoryCredit string
}

// NewSources creates the live and historical providers described by config,
// wrapped with rate limiting and caching when enabled
func NewSources(config *datasource.Config, logger *slog.Logger) (Sources, error) {
	client := &http.Client{Timeout: config.HTTPTimeout}

	var weather datasource.WeatherProvider = openweathermap.NewProvider(
		config.OpenWeatherMap.APIKey,
		openweathermap.WithBaseURL(config.OpenWeatherMap.BaseURL),
		openweathermap.WithHTTPClient(client),
	)

	var (
		history datasource.HistorySource
		credit  string
	)
	switch config.History.Source {
	case datasource.SourceMeteostat:
		history = meteostat.NewDailySource(config.Meteostat.APIKey, config.History.BaseURL, client)
		credit = "Meteostat"
	case datasource.SourceOpenMeteo:
		history = openmeteo.NewArchiveSource(config.History.BaseURL, client)
		credit = "Open-Meteo"
	default:
		return Sources{}, fmt.Errorf("unknown history source %q", config.History.Source)
	}

	if config.RateLimit.Enabled {
		// OpenWeatherMap free tier allows 60 calls/minute
		waitLog := datasource.WithWaitLogger(logger)
		weather = datasource.NewRateLimitedWeatherProvider(weather, config.RateLimit.RPS, config.RateLimit.Burst, waitLog)
		history = datasource.NewRateLimitedHistorySource(history, config.RateLimit.RPS, config.RateLimit.Burst, waitLog)
		logger.Info("applied rate limiting", "rps", config.RateLimit.RPS, "burst", config.RateLimit.Burst)
	}

	if config.HistoryCacheTTL > 0 {
		history = cache.NewCachedHistorySource(history, config.HistoryCacheTTL, cache.WithLogger(logger))
		logger.Info("caching historical series", "ttl", config.HistoryCacheTTL)
	}

	return Sources{Weather: weather, History: history, HistoryCredit: credit}, nil
}

// NewDashboard validates config and builds the dashboard pipeline over its sources
func NewDashboard(config *datasource.Config, logger *slog.Logger) (*pipeline.Dashboard, Sources, error) {
	if err := config.Validate(); err != nil {
		return nil, Sources{}, fmt.Errorf("invalid configuration: %w", err)
	}

	loc, err := config.Location()
	if err != nil {
		return nil, Sources{}, err
	}
	start, err := config.HistoryStartDate()
	if err != nil {
		return nil, Sources{}, err
	}

	sources, err := NewSources(config, logger)
	if err != nil {
		return nil, Sources{}, err
	}

	dashboard := pipeline.NewDashboard(sources.Weather, sources.History, forecast.NewDefaultForecaster(),
		pipeline.WithLocation(loc),
		pipeline.WithHistoryStart(start),
		pipeline.WithHorizon(config.Horizon),
		pipeline.WithTimeout(config.HTTPTimeout),
		pipeline.WithLogger(logger),
	)
	return dashboard, sources, nil
}

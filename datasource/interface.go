package datasource

import (
	"context"
	"errors"
	"time"

	"forecastwise/models"
)

var (
	// ErrUpstreamStatus is returned when a provider reports a non-success status
	ErrUpstreamStatus = errors.New("upstream returned non-success status")

	// ErrMalformedPayload is returned when a provider response lacks required fields
	ErrMalformedPayload = errors.New("malformed upstream payload")
)

// WeatherProvider is an interface for services that can fetch current weather data
type WeatherProvider interface {
	// GetWeather fetches current conditions for a city name
	GetWeather(ctx context.Context, city string) (models.CurrentConditions, error)

	// Name returns the provider's name
	Name() string
}

// HistorySource is an interface for services that can fetch daily historical temperatures
type HistorySource interface {
	// FetchHistory returns the daily rows for a point between start and end, both inclusive.
	// Rows may be unordered and may have missing temperatures.
	FetchHistory(ctx context.Context, lat, lon float64, start, end time.Time) ([]models.DailyObservation, error)

	// Name returns the source's name
	Name() string
}

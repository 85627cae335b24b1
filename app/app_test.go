package app

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forecastwise/cache"
	"forecastwise/datasource"
	"forecastwise/providers/meteostat"
	"forecastwise/providers/openmeteo"
	"forecastwise/providers/openweathermap"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func testConfig(t *testing.T) *datasource.Config {
	t.Helper()
	t.Setenv("OPENWEATHERMAP_API_KEY", "secret")
	config, err := datasource.LoadConfig("")
	require.NoError(t, err)
	return config
}

func TestNewSourcesDefaults(t *testing.T) {
	config := testConfig(t)

	sources, err := NewSources(config, discard)
	require.NoError(t, err)

	assert.IsType(t, &datasource.RateLimitedWeatherProvider{}, sources.Weather)
	assert.IsType(t, &datasource.RateLimitedHistorySource{}, sources.History)
	assert.Equal(t, "OpenWeatherMap [Rate Limited]", sources.Weather.Name())
	assert.Equal(t, "Open-Meteo", sources.HistoryCredit)
}

func TestNewSourcesWithoutRateLimitWithCache(t *testing.T) {
	config := testConfig(t)
	config.RateLimit.Enabled = false
	config.HistoryCacheTTL = time.Hour
	config.History.Source = datasource.SourceMeteostat
	config.Meteostat.APIKey = "rapid"

	sources, err := NewSources(config, discard)
	require.NoError(t, err)

	assert.IsType(t, &openweathermap.Provider{}, sources.Weather)
	require.IsType(t, &cache.CachedHistorySource{}, sources.History)
	assert.Equal(t, "Meteostat", sources.HistoryCredit)
	assert.Contains(t, sources.History.Name(), "[Cached]")
}

func TestNewSourcesOpenMeteo(t *testing.T) {
	config := testConfig(t)
	config.RateLimit.Enabled = false

	sources, err := NewSources(config, discard)
	require.NoError(t, err)
	assert.IsType(t, &openmeteo.ArchiveSource{}, sources.History)

	config.History.Source = datasource.SourceMeteostat
	sources, err = NewSources(config, discard)
	require.NoError(t, err)
	assert.IsType(t, &meteostat.DailySource{}, sources.History)
}

func TestNewDashboard(t *testing.T) {
	config := testConfig(t)

	dashboard, _, err := NewDashboard(config, discard)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", dashboard.Location().String())
	assert.Equal(t, 5, dashboard.Horizon())

	config.OpenWeatherMap.APIKey = ""
	_, _, err = NewDashboard(config, discard)
	assert.Error(t, err)
}

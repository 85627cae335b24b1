package datasource

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forecastwise/models"
)

type stubProvider struct{ calls int }

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) GetWeather(_ context.Context, city string) (models.CurrentConditions, error) {
	s.calls++
	return models.CurrentConditions{City: city, Temperature: 20}, nil
}

type stubHistory struct{ calls int }

func (s *stubHistory) Name() string { return "stub-history" }

func (s *stubHistory) FetchHistory(_ context.Context, _, _ float64, start, _ time.Time) ([]models.DailyObservation, error) {
	s.calls++
	v := 21.0
	return []models.DailyObservation{{Date: start, AvgTemp: &v}}, nil
}

func TestRateLimitedWeatherProviderForwards(t *testing.T) {
	inner := &stubProvider{}
	p := NewRateLimitedWeatherProvider(inner, 10, 2)

	assert.Equal(t, "stub [Rate Limited]", p.Name())

	got, err := p.GetWeather(context.Background(), "Pune")
	require.NoError(t, err)
	assert.Equal(t, "Pune", got.City)
	assert.Equal(t, 1, inner.calls)
}

func TestRateLimitedWeatherProviderCanceled(t *testing.T) {
	inner := &stubProvider{}
	// One token per minute, already spent by the first call
	p := NewRateLimitedWeatherProvider(inner, 1.0/60, 1)
	_, err := p.GetWeather(context.Background(), "Pune")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = p.GetWeather(ctx, "Pune")
	assert.ErrorContains(t, err, "stub [Rate Limited]: rate limit wait canceled")
	assert.Equal(t, 1, inner.calls)
}

func TestRateLimitedHistorySourceForwards(t *testing.T) {
	inner := &stubHistory{}
	s := NewRateLimitedHistorySource(inner, 10, 2)

	assert.Equal(t, "stub-history [Rate Limited]", s.Name())

	start := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	rows, err := s.FetchHistory(context.Background(), 18.52, 73.85, start, start.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, start, rows[0].Date)
	assert.Equal(t, 1, inner.calls)
}

func TestRateLimitedHistorySourceCanceled(t *testing.T) {
	inner := &stubHistory{}
	s := NewRateLimitedHistorySource(inner, 1.0/60, 1)
	day := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := s.FetchHistory(context.Background(), 1, 2, day, day)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = s.FetchHistory(ctx, 1, 2, day, day)
	assert.ErrorContains(t, err, "stub-history [Rate Limited]")
	assert.Equal(t, 1, inner.calls)
}

func TestRateLimitedWaitIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	inner := &stubProvider{}
	// 20 tokens per second, so the second call waits about 50ms
	p := NewRateLimitedWeatherProvider(inner, 20, 1, WithWaitLogger(logger))

	_, err := p.GetWeather(context.Background(), "Pune")
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "rate limit wait")

	_, err = p.GetWeather(context.Background(), "Pune")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "rate limit wait")
	assert.Contains(t, buf.String(), `upstream="stub [Rate Limited]"`)
	assert.Equal(t, 2, inner.calls)
}

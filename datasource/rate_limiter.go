package datasource

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"forecastwise/models"
)

// RateLimitOption configures a rate limited decorator
type RateLimitOption func(*throttle)

// WithWaitLogger logs every call that had to wait for a token
func WithWaitLogger(logger *slog.Logger) RateLimitOption {
	return func(t *throttle) {
		t.logger = logger
	}
}

// throttle is the token bucket shared by the decorators below
type throttle struct {
	limiter *rate.Limiter
	name    string
	logger  *slog.Logger
}

func newThrottle(upstream string, rps float64, burst int, opts []RateLimitOption) throttle {
	t := throttle{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		name:    upstream + " [Rate Limited]",
	}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

// wait blocks until a token is available or ctx is done
func (t *throttle) wait(ctx context.Context) error {
	started := time.Now()
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limit wait canceled: %w", t.name, err)
	}
	if waited := time.Since(started); t.logger != nil && waited >= time.Millisecond {
		t.logger.DebugContext(ctx, "rate limit wait", "upstream", t.name, "waited", waited)
	}
	return nil
}

// RateLimitedWeatherProvider throttles calls to a WeatherProvider
type RateLimitedWeatherProvider struct {
	throttle
	provider WeatherProvider
}

// NewRateLimitedWeatherProvider allows rps calls per second (fractional for slower rates)
// with bursts of up to burst calls
func NewRateLimitedWeatherProvider(provider WeatherProvider, rps float64, burst int, opts ...RateLimitOption) *RateLimitedWeatherProvider {
	return &RateLimitedWeatherProvider{
		throttle: newThrottle(provider.Name(), rps, burst, opts),
		provider: provider,
	}
}

// GetWeather waits for a token, then delegates
func (r *RateLimitedWeatherProvider) GetWeather(ctx context.Context, city string) (models.CurrentConditions, error) {
	if err := r.wait(ctx); err != nil {
		return models.CurrentConditions{}, err
	}
	return r.provider.GetWeather(ctx, city)
}

func (r *RateLimitedWeatherProvider) Name() string {
	return r.name
}

// RateLimitedHistorySource throttles calls to a HistorySource
type RateLimitedHistorySource struct {
	throttle
	source HistorySource
}

// NewRateLimitedHistorySource throttles source like NewRateLimitedWeatherProvider
func NewRateLimitedHistorySource(source HistorySource, rps float64, burst int, opts ...RateLimitOption) *RateLimitedHistorySource {
	return &RateLimitedHistorySource{
		throttle: newThrottle(source.Name(), rps, burst, opts),
		source:   source,
	}
}

// FetchHistory waits for a token, then delegates
func (r *RateLimitedHistorySource) FetchHistory(ctx context.Context, lat, lon float64, start, end time.Time) ([]models.DailyObservation, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.source.FetchHistory(ctx, lat, lon, start, end)
}

func (r *RateLimitedHistorySource) Name() string {
	return r.name
}

var (
	_ WeatherProvider = (*RateLimitedWeatherProvider)(nil)
	_ HistorySource   = (*RateLimitedHistorySource)(nil)
)

package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"forecastwise/datasource"
	"forecastwise/models"
)

// CachedHistorySource wraps a HistorySource and keeps fetched series in memory for a TTL
type CachedHistorySource struct {
	source         datasource.HistorySource
	cache          map[string]cacheEntry // key is lat:lon:start:end
	mutex          sync.RWMutex
	cacheDuration  time.Duration
	cacheHitCount  int
	cacheMissCount int
	logger         *slog.Logger
	now            func() time.Time
}

// cacheEntry represents a cached series with its timestamp
type cacheEntry struct {
	Rows      []models.DailyObservation
	Timestamp time.Time
}

// Option configures a CachedHistorySource
type Option func(*CachedHistorySource)

// WithLogger sets the logger used for hit/miss lines
func WithLogger(logger *slog.Logger) Option {
	return func(c *CachedHistorySource) {
		c.logger = logger
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *CachedHistorySource) {
		c.now = now
	}
}

// NewCachedHistorySource creates a new cached wrapper around a history source
func NewCachedHistorySource(source datasource.HistorySource, cacheDuration time.Duration, opts ...Option) *CachedHistorySource {
	c := &CachedHistorySource{
		source:        source,
		cache:         make(map[string]cacheEntry),
		cacheDuration: cacheDuration,
		logger:        slog.Default(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the name of the underlying source with [Cached] suffix
func (c *CachedHistorySource) Name() string {
	return c.source.Name() + " [Cached]"
}

// FetchHistory returns the cached rows for the same window when still fresh
func (c *CachedHistorySource) FetchHistory(ctx context.Context, lat, lon float64, start, end time.Time) ([]models.DailyObservation, error) {
	key := cacheKey(lat, lon, start, end)

	c.mutex.RLock()
	entry, found := c.cache[key]
	c.mutex.RUnlock()

	if age := c.now().Sub(entry.Timestamp); found && age < c.cacheDuration {
		c.mutex.Lock()
		c.cacheHitCount++
		c.mutex.Unlock()

		c.logger.DebugContext(ctx, "history cache hit",
			"key", key, "source", c.source.Name(), "age", age.Round(time.Second))
		return clone(entry.Rows), nil
	}

	c.mutex.Lock()
	c.cacheMissCount++
	c.mutex.Unlock()

	c.logger.DebugContext(ctx, "history cache miss", "key", key, "source", c.source.Name())

	rows, err := c.source.FetchHistory(ctx, lat, lon, start, end)
	if err != nil {
		return nil, err
	}

	c.mutex.Lock()
	c.cache[key] = cacheEntry{
		Rows:      clone(rows),
		Timestamp: c.now(),
	}
	c.mutex.Unlock()

	return rows, nil
}

// CacheStats returns statistics about cache hits and misses
func (c *CachedHistorySource) CacheStats() (hits, misses int) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.cacheHitCount, c.cacheMissCount
}

func cacheKey(lat, lon float64, start, end time.Time) string {
	return fmt.Sprintf("%.4f:%.4f:%s:%s", lat, lon, start.Format(models.DateLayout), end.Format(models.DateLayout))
}

func clone(rows []models.DailyObservation) []models.DailyObservation {
	out := make([]models.DailyObservation, len(rows))
	copy(out, rows)
	return out
}

// Ensure CachedHistorySource implements the HistorySource interface
var _ datasource.HistorySource = (*CachedHistorySource)(nil)

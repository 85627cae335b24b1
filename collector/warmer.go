package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"forecastwise/datasource"
	"forecastwise/models"
)

// WindowFunc returns the history window to fetch at now
type WindowFunc func(now time.Time) (start, end time.Time)

// Result reports one background fetch
type Result struct {
	City models.City
	Rows int
	Err  error
}

// HistoryWarmer periodically fetches every city's historical series through a
// caching source so dashboard requests find the series already cached
type HistoryWarmer struct {
	source       datasource.HistorySource
	cities       []models.City
	window       WindowFunc
	interval     time.Duration
	fetchTimeout time.Duration
	resultChan   chan Result
}

// NewHistoryWarmer creates a warmer for the given cities
func NewHistoryWarmer(source datasource.HistorySource, cities []models.City, window WindowFunc, interval time.Duration) *HistoryWarmer {
	return &HistoryWarmer{
		source:       source,
		cities:       cities,
		window:       window,
		interval:     interval,
		fetchTimeout: 30 * time.Second,
		resultChan:   make(chan Result, len(cities)),
	}
}

// SetFetchTimeout changes the timeout for each fetch
func (w *HistoryWarmer) SetFetchTimeout(timeout time.Duration) {
	w.fetchTimeout = timeout
}

// Results returns the channel that emits fetch outcomes.
// Outcomes are dropped when nobody reads them.
func (w *HistoryWarmer) Results() <-chan Result {
	return w.resultChan
}

// Start begins warming every city. The returned function stops all workers
// and waits for them; the results channel is closed afterwards.
func (w *HistoryWarmer) Start(ctx context.Context) func() {
	warmCtx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup
	for _, city := range w.cities {
		wg.Add(1)
		go w.warmCity(warmCtx, &wg, city)
	}

	go func() {
		wg.Wait()
		close(w.resultChan)
	}()

	return func() {
		cancel()
		wg.Wait()
	}
}

// warmCity fetches once immediately, then on every tick until ctx is done
func (w *HistoryWarmer) warmCity(ctx context.Context, wg *sync.WaitGroup, city models.City) {
	defer wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.fetchOnce(ctx, city)

	for {
		select {
		case <-ticker.C:
			w.fetchOnce(ctx, city)
		case <-ctx.Done():
			return
		}
	}
}

func (w *HistoryWarmer) fetchOnce(ctx context.Context, city models.City) {
	fetchCtx, cancel := context.WithTimeout(ctx, w.fetchTimeout)
	defer cancel()

	start, end := w.window(time.Now())
	rows, err := w.source.FetchHistory(fetchCtx, city.Latitude, city.Longitude, start, end)
	if err != nil {
		err = fmt.Errorf("error warming %s from %s: %w", city.Name, w.source.Name(), err)
	}

	select {
	case w.resultChan <- Result{City: city, Rows: len(rows), Err: err}:
	default:
	}
}

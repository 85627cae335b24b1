package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forecastwise/models"
)

type recordingSource struct {
	mu    sync.Mutex
	calls map[float64]int
	fail  float64
}

func (s *recordingSource) Name() string { return "recording" }

func (s *recordingSource) FetchHistory(_ context.Context, lat, _ float64, start, _ time.Time) ([]models.DailyObservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[lat]++
	if lat == s.fail {
		return nil, errors.New("unavailable")
	}
	v := 20.0
	return []models.DailyObservation{{Date: start, AvgTemp: &v}, {Date: start.AddDate(0, 0, 1), AvgTemp: &v}}, nil
}

func fixedWindow(time.Time) (time.Time, time.Time) {
	return time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

func TestHistoryWarmerFetchesEveryCity(t *testing.T) {
	cities := []models.City{
		{Name: "Pune", Latitude: 18.52, Longitude: 73.85},
		{Name: "Delhi", Latitude: 28.61, Longitude: 77.20},
	}
	src := &recordingSource{calls: map[float64]int{}, fail: 28.61}
	w := NewHistoryWarmer(src, cities, fixedWindow, time.Hour)

	stop := w.Start(context.Background())

	got := map[string]Result{}
	for len(got) < len(cities) {
		select {
		case r := <-w.Results():
			got[r.City.Name] = r
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for warm results")
		}
	}
	stop()

	require.Contains(t, got, "Pune")
	assert.NoError(t, got["Pune"].Err)
	assert.Equal(t, 2, got["Pune"].Rows)
	require.Contains(t, got, "Delhi")
	assert.ErrorContains(t, got["Delhi"].Err, "error warming Delhi from recording")

	_, open := <-w.Results()
	assert.False(t, open)
}

func TestHistoryWarmerStopsOnContextCancel(t *testing.T) {
	src := &recordingSource{calls: map[float64]int{}}
	w := NewHistoryWarmer(src, []models.City{{Name: "Pune", Latitude: 18.52}}, fixedWindow, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	stop := w.Start(ctx)
	<-w.Results()
	cancel()

	done := make(chan struct{})
	go func() {
		stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("warmer did not stop")
	}

	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Equal(t, 1, src.calls[18.52])
}

package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forecastwise/models"
)

func ptr(v float64) *float64 { return &v }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCleanSeriesDropsMissingAndOrders(t *testing.T) {
	rows := []models.DailyObservation{
		{Date: date(2018, 1, 3), AvgTemp: ptr(23)},
		{Date: date(2018, 1, 1), AvgTemp: ptr(21)},
		{Date: date(2018, 1, 2), AvgTemp: nil},
		{Date: date(2018, 1, 5), AvgTemp: ptr(math.NaN())},
		{Date: date(2018, 1, 4), AvgTemp: ptr(24)},
		{Date: date(2018, 1, 6), AvgTemp: nil},
	}

	got := CleanSeries(rows)

	assert.Equal(t, []models.HistoricalSample{
		{Date: date(2018, 1, 1), AvgTemp: 21},
		{Date: date(2018, 1, 3), AvgTemp: 23},
		{Date: date(2018, 1, 4), AvgTemp: 24},
	}, got)
}

func TestCleanSeriesStrictlyIncreasing(t *testing.T) {
	// Synthetic series: every third day missing, shuffled order, one duplicated day
	var rows []models.DailyObservation
	for i := 59; i >= 0; i-- {
		d := date(2020, 2, 1).AddDate(0, 0, i)
		if i%3 == 0 {
			rows = append(rows, models.DailyObservation{Date: d})
			continue
		}
		rows = append(rows, models.DailyObservation{Date: d.Add(6 * time.Hour), AvgTemp: ptr(float64(i))})
	}
	rows = append(rows, models.DailyObservation{Date: date(2020, 2, 2), AvgTemp: ptr(99)})

	got := CleanSeries(rows)

	require.Len(t, got, 40)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].Date.Before(got[i].Date), "dates must be strictly increasing at %d", i)
	}
	for _, s := range got {
		assert.False(t, math.IsNaN(s.AvgTemp))
		assert.Equal(t, 0, s.Date.Hour())
	}
	// later duplicate wins
	assert.Equal(t, date(2020, 2, 2), got[0].Date)
	assert.Equal(t, 99.0, got[0].AvgTemp)
}

func TestCleanSeriesEmpty(t *testing.T) {
	assert.Empty(t, CleanSeries(nil))
	assert.Empty(t, CleanSeries([]models.DailyObservation{{Date: date(2018, 1, 1)}}))
}

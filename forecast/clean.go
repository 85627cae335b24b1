package forecast

import (
	"math"
	"sort"
	"time"

	"forecastwise/models"
)

// CleanSeries turns provider rows into a training series. Rows without an average
// temperature are dropped, dates are truncated to the calendar day, rows are sorted
// and a repeated day keeps its last value. The result has strictly increasing dates.
func CleanSeries(rows []models.DailyObservation) []models.HistoricalSample {
	samples := make([]models.HistoricalSample, 0, len(rows))
	for _, row := range rows {
		if row.AvgTemp == nil || math.IsNaN(*row.AvgTemp) || math.IsInf(*row.AvgTemp, 0) {
			continue
		}
		samples = append(samples, models.HistoricalSample{Date: Day(row.Date), AvgTemp: *row.AvgTemp})
	}

	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Date.Before(samples[j].Date)
	})

	out := samples[:0]
	for _, s := range samples {
		if n := len(out); n > 0 && out[n-1].Date.Equal(s.Date) {
			out[n-1] = s
			continue
		}
		out = append(out, s)
	}
	return out
}

// Day returns midnight UTC of t's calendar date
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

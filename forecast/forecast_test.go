package forecast

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forecastwise/models"
)

func series(start time.Time, days int, fn func(day int) float64) []models.HistoricalSample {
	out := make([]models.HistoricalSample, days)
	for i := range out {
		out[i] = models.HistoricalSample{Date: start.AddDate(0, 0, i), AvgTemp: fn(i)}
	}
	return out
}

func TestForecastReturnsConsecutiveFutureDays(t *testing.T) {
	history := series(date(2018, 1, 1), 400, func(day int) float64 {
		return 26 + 4*math.Sin(2*math.Pi*float64(day)/365.25)
	})
	last := history[len(history)-1].Date

	points, err := NewDefaultForecaster().Forecast(history, 5)
	require.NoError(t, err)
	require.Len(t, points, 5)

	for i, p := range points {
		assert.Equal(t, last.AddDate(0, 0, i+1), p.Date, "row %d", i)
		assert.False(t, math.IsNaN(p.Temperature))
	}
	assert.Equal(t, last.AddDate(0, 0, 1).Format(models.DateLayout), points[0].DateLabel())
}

func TestForecastIsDeterministic(t *testing.T) {
	history := series(date(2019, 6, 1), 200, func(day int) float64 {
		return 20 + float64(day%11)*0.3 + math.Cos(float64(day))
	})
	f := NewDefaultForecaster()

	first, err := f.Forecast(history, 5)
	require.NoError(t, err)
	second, err := f.Forecast(history, 5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestForecastInsufficientHistory(t *testing.T) {
	f := NewDefaultForecaster()

	_, err := f.Forecast(nil, 5)
	assert.True(t, errors.Is(err, ErrInsufficientHistory))

	_, err = f.Forecast(series(date(2020, 1, 1), 1, func(int) float64 { return 10 }), 5)
	assert.True(t, errors.Is(err, ErrInsufficientHistory))

	points, err := f.Forecast(series(date(2020, 1, 1), MinTrainingSamples, func(int) float64 { return 10 }), 5)
	require.NoError(t, err)
	assert.Len(t, points, 5)
}

func TestForecastRejectsBadInput(t *testing.T) {
	f := NewDefaultForecaster()

	_, err := f.Forecast(series(date(2020, 1, 1), 10, func(int) float64 { return 1 }), 0)
	assert.Error(t, err)

	unordered := []models.HistoricalSample{
		{Date: date(2020, 1, 2), AvgTemp: 1},
		{Date: date(2020, 1, 1), AvgTemp: 2},
		{Date: date(2020, 1, 3), AvgTemp: 3},
	}
	_, err = f.Forecast(unordered, 5)
	assert.True(t, errors.Is(err, ErrUnorderedSeries))
}

func TestForecastConstantSeries(t *testing.T) {
	history := series(date(2018, 1, 1), 365, func(int) float64 { return 27 })

	points, err := NewDefaultForecaster().Forecast(history, 5)
	require.NoError(t, err)

	for _, p := range points {
		assert.InDelta(t, 27, p.Temperature, 1e-6)
	}
}

func TestForecastRecoversWeeklySeasonality(t *testing.T) {
	truth := func(day int) float64 {
		return 25 + 3*math.Sin(2*math.Pi*float64(day)/7)
	}
	history := series(date(2018, 1, 1), 730, truth)

	points, err := NewDefaultForecaster().Forecast(history, 5)
	require.NoError(t, err)

	for i, p := range points {
		assert.InDelta(t, truth(730+i), p.Temperature, 0.25, "day %d", i+1)
	}
}

func TestForecastExtendsLinearTrend(t *testing.T) {
	truth := func(day int) float64 {
		return 20 + 0.01*float64(day)
	}
	history := series(date(2018, 1, 1), 400, truth)

	points, err := NewDefaultForecaster().Forecast(history, 5)
	require.NoError(t, err)

	for i, p := range points {
		assert.InDelta(t, truth(400+i), p.Temperature, 0.5, "day %d", i+1)
	}
}

func TestFitValidatesOptions(t *testing.T) {
	tm := []time.Time{date(2020, 1, 1), date(2020, 1, 2), date(2020, 1, 3)}
	y := []float64{1, 2, 3}

	opts := DefaultOptions()
	opts.ChangepointRange = 0
	_, err := Fit(opts, tm, y)
	assert.Error(t, err)

	opts = DefaultOptions()
	opts.Seasonalities = append(opts.Seasonalities, SeasonalityConfig{Name: "broken", Period: 0, Orders: 2})
	_, err = Fit(opts, tm, y)
	assert.Error(t, err)

	_, err = Fit(DefaultOptions(), tm, y[:2])
	assert.Error(t, err)
}

func TestModelPredictInSample(t *testing.T) {
	tm := make([]time.Time, 60)
	y := make([]float64, 60)
	for i := range tm {
		tm[i] = date(2021, 3, 1).AddDate(0, 0, i)
		y[i] = 18 + 0.05*float64(i)
	}

	m, err := Fit(DefaultOptions(), tm, y)
	require.NoError(t, err)

	fitted := m.Predict(tm)
	require.Len(t, fitted, len(tm))
	for i := range fitted {
		assert.InDelta(t, y[i], fitted[i], 0.5, "sample %d", i)
	}
}

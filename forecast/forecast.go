package forecast

import (
	"errors"
	"fmt"
	"time"

	"forecastwise/models"
)

// MinTrainingSamples is the smallest series the model is fitted on
const MinTrainingSamples = 2

var (
	// ErrInsufficientHistory is returned when the series is too short to fit
	ErrInsufficientHistory = errors.New("insufficient historical data")

	// ErrUnorderedSeries is returned when sample dates are not strictly increasing
	ErrUnorderedSeries = errors.New("series dates are not strictly increasing")
)

// Forecaster fits a seasonal additive model per call and predicts future days
type Forecaster struct {
	opts Options
}

// NewForecaster creates a forecaster with the given model options
func NewForecaster(opts Options) *Forecaster {
	return &Forecaster{opts: opts}
}

// NewDefaultForecaster creates a forecaster with DefaultOptions
func NewDefaultForecaster() *Forecaster {
	return NewForecaster(DefaultOptions())
}

// Options returns the model options used for every fit
func (f *Forecaster) Options() Options {
	return f.opts
}

// Forecast fits the model on series and returns one point per day for the
// horizon days following the last sample. The prediction covers the full
// in-sample range plus the horizon; only the future rows are returned.
func (f *Forecaster) Forecast(series []models.HistoricalSample, horizon int) ([]models.ForecastPoint, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("horizon must be positive, got %d", horizon)
	}
	if len(series) < MinTrainingSamples {
		return nil, fmt.Errorf("%w: %d samples, need at least %d", ErrInsufficientHistory, len(series), MinTrainingSamples)
	}

	t := make([]time.Time, len(series))
	y := make([]float64, len(series))
	for i, s := range series {
		t[i] = s.Date
		y[i] = s.AvgTemp
	}

	model, err := Fit(f.opts, t, y)
	if err != nil {
		return nil, fmt.Errorf("failed to fit model: %w", err)
	}

	frame := futureFrame(t, horizon)
	predicted := model.Predict(frame)

	points := make([]models.ForecastPoint, horizon)
	offset := len(frame) - horizon
	for i := range points {
		points[i] = models.ForecastPoint{
			Date:        frame[offset+i],
			Temperature: predicted[offset+i],
		}
	}
	return points, nil
}

// futureFrame returns the training dates followed by horizon consecutive days
func futureFrame(t []time.Time, horizon int) []time.Time {
	frame := make([]time.Time, 0, len(t)+horizon)
	frame = append(frame, t...)
	last := t[len(t)-1]
	for i := 1; i <= horizon; i++ {
		frame = append(frame, last.AddDate(0, 0, i))
	}
	return frame
}

package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"forecastwise/datasource"
	"forecastwise/forecast"
	"forecastwise/models"
	"forecastwise/telemetry"
)

// DefaultHorizon is the number of forecast days shown on the dashboard
const DefaultHorizon = 5

// Dashboard runs live lookup, history fetch and forecast for one city selection.
// It holds no per-run state and is safe for concurrent use.
type Dashboard struct {
	weather    datasource.WeatherProvider
	history    datasource.HistorySource
	forecaster *forecast.Forecaster

	location     *time.Location
	historyStart time.Time
	horizon      int
	timeout      time.Duration

	logger *slog.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// Option configures a Dashboard
type Option func(*Dashboard)

// WithLocation sets the display time zone used for "today" and header dates
func WithLocation(loc *time.Location) Option {
	return func(d *Dashboard) {
		if loc != nil {
			d.location = loc
		}
	}
}

// WithHistoryStart sets the first day of the training window
func WithHistoryStart(start time.Time) Option {
	return func(d *Dashboard) {
		d.historyStart = forecast.Day(start)
	}
}

// WithHorizon sets the number of forecast days
func WithHorizon(days int) Option {
	return func(d *Dashboard) {
		if days > 0 {
			d.horizon = days
		}
	}
}

// WithTimeout bounds every outbound call. Zero means no per-call bound.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dashboard) {
		d.timeout = timeout
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dashboard) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(d *Dashboard) {
		d.now = now
	}
}

// NewDashboard creates a dashboard pipeline over the given sources
func NewDashboard(weather datasource.WeatherProvider, history datasource.HistorySource, forecaster *forecast.Forecaster, opts ...Option) *Dashboard {
	d := &Dashboard{
		weather:      weather,
		history:      history,
		forecaster:   forecaster,
		location:     time.UTC,
		historyStart: time.Date(2018, time.January, 1, 0, 0, 0, 0, time.UTC),
		horizon:      DefaultHorizon,
		timeout:      10 * time.Second,
		logger:       slog.Default(),
		tracer:       telemetry.Tracer(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Location returns the display time zone
func (d *Dashboard) Location() *time.Location {
	return d.location
}

// Horizon returns the number of forecast days
func (d *Dashboard) Horizon() int {
	return d.horizon
}

// HistoryWindow returns the training window for a run at now: the configured
// start through yesterday, as calendar dates in the display zone
func (d *Dashboard) HistoryWindow(now time.Time) (start, end time.Time) {
	y, m, day := now.In(d.location).Date()
	end = time.Date(y, m, day-1, 0, 0, 0, 0, time.UTC)
	return d.historyStart, end
}

// Run executes the stages in order and always returns a report. Each failed
// stage is recorded on the report and returned as a *StageError inside the
// joined error. A live lookup failure does not stop the forecast.
func (d *Dashboard) Run(ctx context.Context, city models.City) (*models.Report, error) {
	runID := ulid.Make().String()
	logger := d.logger.With("run_id", runID, "city", city.Name)

	ctx, span := d.tracer.Start(ctx, "dashboard-run", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.String("city", city.Name),
	))
	defer span.End()

	now := d.now()
	report := &models.Report{
		RunID:       runID,
		City:        city,
		GeneratedAt: now.In(d.location),
		Forecast:    []models.ForecastPoint{},
	}
	var errs []error
	fail := func(stageErr *StageError) {
		report.Failures = append(report.Failures, stageErr.Failure())
		errs = append(errs, stageErr)
		logger.WarnContext(ctx, "stage failed", "stage", stageErr.Stage, "error", stageErr.Err)
	}

	current, err := d.currentConditions(ctx, city)
	if err != nil {
		fail(err)
	} else {
		report.Current = &current
	}

	series, err := d.historicalSeries(ctx, city, now)
	if err != nil {
		fail(err)
	} else {
		report.TrainingSamples = len(series)
		points, err := d.forecast(ctx, series)
		if err != nil {
			fail(err)
		} else {
			report.Forecast = points
		}
	}

	if len(errs) > 0 {
		span.SetStatus(codes.Error, "one or more stages failed")
	}
	logger.InfoContext(ctx, "dashboard run finished",
		"forecast_points", len(report.Forecast),
		"training_samples", report.TrainingSamples,
		"failures", len(report.Failures),
		"elapsed", d.now().Sub(now))

	return report, errors.Join(errs...)
}

func (d *Dashboard) currentConditions(ctx context.Context, city models.City) (models.CurrentConditions, *StageError) {
	ctx, span := d.tracer.Start(ctx, "current-conditions", trace.WithAttributes(
		attribute.String("provider", d.weather.Name()),
	))
	defer span.End()

	ctx, cancel := d.callContext(ctx)
	defer cancel()

	current, err := d.weather.GetWeather(ctx, city.Name)
	if err != nil {
		recordError(span, err)
		return models.CurrentConditions{}, &StageError{Stage: models.StageCurrent, Message: MessageCurrentFailed, Err: err}
	}
	return current, nil
}

func (d *Dashboard) historicalSeries(ctx context.Context, city models.City, now time.Time) ([]models.HistoricalSample, *StageError) {
	start, end := d.HistoryWindow(now)

	ctx, span := d.tracer.Start(ctx, "historical-series", trace.WithAttributes(
		attribute.String("source", d.history.Name()),
		attribute.String("start", start.Format(models.DateLayout)),
		attribute.String("end", end.Format(models.DateLayout)),
	))
	defer span.End()

	ctx, cancel := d.callContext(ctx)
	defer cancel()

	rows, err := d.history.FetchHistory(ctx, city.Latitude, city.Longitude, start, end)
	if err != nil {
		recordError(span, err)
		return nil, &StageError{Stage: models.StageHistory, Message: MessageHistoryFailed, Err: err}
	}

	series := forecast.CleanSeries(rows)
	span.SetAttributes(attribute.Int("rows", len(rows)), attribute.Int("samples", len(series)))
	if len(series) < forecast.MinTrainingSamples {
		err := forecast.ErrInsufficientHistory
		recordError(span, err)
		return nil, &StageError{Stage: models.StageHistory, Message: MessageInsufficientHistory, Err: err}
	}
	return series, nil
}

func (d *Dashboard) forecast(ctx context.Context, series []models.HistoricalSample) ([]models.ForecastPoint, *StageError) {
	_, span := d.tracer.Start(ctx, "forecast", trace.WithAttributes(
		attribute.Int("samples", len(series)),
		attribute.Int("horizon", d.horizon),
	))
	defer span.End()

	points, err := d.forecaster.Forecast(series, d.horizon)
	if err != nil {
		recordError(span, err)
		message := MessageForecastFailed
		if errors.Is(err, forecast.ErrInsufficientHistory) {
			message = MessageInsufficientHistory
		}
		return nil, &StageError{Stage: models.StageForecast, Message: message, Err: err}
	}
	return points, nil
}

func (d *Dashboard) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.timeout)
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

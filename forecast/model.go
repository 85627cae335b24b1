package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
)

const hoursPerDay = 24

// SeasonalityConfig describes one periodic component as a Fourier series
type SeasonalityConfig struct {
	Name   string  `json:"name"`
	Period float64 `json:"period"` // in days
	Orders int     `json:"orders"`
}

// NewYearlySeasonalityConfig returns a yearly component with the given Fourier order
func NewYearlySeasonalityConfig(orders int) SeasonalityConfig {
	return SeasonalityConfig{Name: "yearly", Period: 365.25, Orders: orders}
}

// NewWeeklySeasonalityConfig returns a weekly component with the given Fourier order
func NewWeeklySeasonalityConfig(orders int) SeasonalityConfig {
	return SeasonalityConfig{Name: "weekly", Period: 7, Orders: orders}
}

// NewDailySeasonalityConfig returns a daily component with the given Fourier order.
// On day-spaced samples its sine terms vanish and its cosine terms coincide with
// the intercept; the penalty keeps the fit well posed.
func NewDailySeasonalityConfig(orders int) SeasonalityConfig {
	return SeasonalityConfig{Name: "daily", Period: 1, Orders: orders}
}

// Options configures the additive model
type Options struct {
	Seasonalities []SeasonalityConfig `json:"seasonalities"`

	// Number of trend changepoints, spread evenly over the first ChangepointRange of history
	Changepoints     int     `json:"changepoints"`
	ChangepointRange float64 `json:"changepointRange"`

	// Ridge penalties. The intercept is never penalised.
	Regularization            float64 `json:"regularization"`
	ChangepointRegularization float64 `json:"changepointRegularization"`
}

// DefaultOptions mirrors the usual additive-model defaults with daily seasonality enabled
func DefaultOptions() Options {
	return Options{
		Seasonalities: []SeasonalityConfig{
			NewYearlySeasonalityConfig(10),
			NewWeeklySeasonalityConfig(3),
			NewDailySeasonalityConfig(4),
		},
		Changepoints:              25,
		ChangepointRange:          0.8,
		Regularization:            1,
		ChangepointRegularization: 10,
	}
}

func (o Options) validate() error {
	for _, s := range o.Seasonalities {
		if s.Period <= 0 || s.Orders < 0 {
			return fmt.Errorf("invalid seasonality %q: period %v, orders %d", s.Name, s.Period, s.Orders)
		}
	}
	if o.Changepoints < 0 {
		return fmt.Errorf("changepoints must not be negative, got %d", o.Changepoints)
	}
	if o.ChangepointRange <= 0 || o.ChangepointRange > 1 {
		return fmt.Errorf("changepoint range must be in (0, 1], got %v", o.ChangepointRange)
	}
	if o.Regularization <= 0 || o.ChangepointRegularization <= 0 {
		return errors.New("regularization must be positive")
	}
	return nil
}

// Model is a fitted additive model: piecewise linear trend plus Fourier seasonalities
type Model struct {
	opts         Options
	origin       time.Time
	span         float64   // days between first and last training sample, at least 1
	changepoints []float64 // in scaled time
	yScale       float64
	coef         []float64
}

// Fit estimates the model on (t, y). t must be strictly increasing.
func Fit(opts Options, t []time.Time, y []float64) (*Model, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if len(t) != len(y) {
		return nil, fmt.Errorf("time and value lengths differ: %d != %d", len(t), len(y))
	}
	if len(t) < MinTrainingSamples {
		return nil, ErrInsufficientHistory
	}
	for i := 1; i < len(t); i++ {
		if !t[i].After(t[i-1]) {
			return nil, fmt.Errorf("%w: %s does not follow %s", ErrUnorderedSeries, t[i], t[i-1])
		}
	}

	m := &Model{opts: opts, origin: t[0], yScale: 1}
	m.span = math.Max(1, m.days(t[len(t)-1]))

	nChangepoints := opts.Changepoints
	if limit := len(t) - 2; nChangepoints > limit {
		nChangepoints = max(limit, 0)
	}
	m.changepoints = make([]float64, nChangepoints)
	for j := range m.changepoints {
		m.changepoints[j] = opts.ChangepointRange * float64(j+1) / float64(nChangepoints+1)
	}

	for _, v := range y {
		m.yScale = math.Max(m.yScale, math.Abs(v))
	}

	n, p := len(t), m.numFeatures()
	design := mat.NewDense(n, p, nil)
	target := mat.NewVecDense(n, nil)
	row := make([]float64, p)
	for i := range t {
		m.features(t[i], row)
		design.SetRow(i, row)
		target.SetVec(i, y[i]/m.yScale)
	}

	var normal mat.SymDense
	normal.SymOuterK(1, design.T())
	for i, penalty := range m.penalties() {
		normal.SetSym(i, i, normal.At(i, i)+penalty)
	}

	var moment mat.VecDense
	moment.MulVec(design.T(), target)

	var chol mat.Cholesky
	if ok := chol.Factorize(&normal); !ok {
		return nil, errors.New("normal equations are not positive definite")
	}
	var coef mat.VecDense
	if err := chol.SolveVecTo(&coef, &moment); err != nil {
		return nil, fmt.Errorf("failed to solve normal equations: %w", err)
	}

	m.coef = make([]float64, p)
	for i := range m.coef {
		m.coef[i] = coef.AtVec(i)
	}
	return m, nil
}

// Predict returns the model value at each time
func (m *Model) Predict(t []time.Time) []float64 {
	out := make([]float64, len(t))
	row := make([]float64, len(m.coef))
	for i, ti := range t {
		m.features(ti, row)
		var sum float64
		for j, c := range m.coef {
			sum += c * row[j]
		}
		out[i] = sum * m.yScale
	}
	return out
}

func (m *Model) numFeatures() int {
	p := 2 + len(m.changepoints)
	for _, s := range m.opts.Seasonalities {
		p += 2 * s.Orders
	}
	return p
}

// penalties returns the ridge penalty per feature column
func (m *Model) penalties() []float64 {
	out := make([]float64, m.numFeatures())
	out[1] = m.opts.Regularization
	i := 2
	for range m.changepoints {
		out[i] = m.opts.ChangepointRegularization
		i++
	}
	for ; i < len(out); i++ {
		out[i] = m.opts.Regularization
	}
	return out
}

// features writes the design row for t into row:
// intercept, scaled time, changepoint hinges, then sin/cos pairs per seasonality
func (m *Model) features(t time.Time, row []float64) {
	days := m.days(t)
	ts := days / m.span

	row[0] = 1
	row[1] = ts
	i := 2
	for _, c := range m.changepoints {
		row[i] = math.Max(0, ts-c)
		i++
	}
	for _, s := range m.opts.Seasonalities {
		for k := 1; k <= s.Orders; k++ {
			x := 2 * math.Pi * float64(k) * days / s.Period
			row[i] = math.Sin(x)
			row[i+1] = math.Cos(x)
			i += 2
		}
	}
}

func (m *Model) days(t time.Time) float64 {
	return t.Sub(m.origin).Hours() / hoursPerDay
}

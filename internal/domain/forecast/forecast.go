// Package forecast fits a linear trend to daily sales and extrapolates it.
package forecast

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/insights/internal/domain/model"
	"github.com/okian/insights/pkg/logger"
)

// DefaultHorizon is the number of days forecast when no horizon is configured.
const DefaultHorizon = 7

// ErrNoHistory is returned when there is nothing to fit.
var ErrNoHistory = errors.New("no historical data to forecast from")

// Model is a fitted line value = Slope*offset + Intercept, where offset is
// the number of days since Origin.
type Model struct {
	Origin     model.Date `json:"origin"`
	Last       model.Date `json:"last"`
	Slope      float64    `json:"slope"`
	Intercept  float64    `json:"intercept"`
	Points     int        `json:"points"`
	Degenerate bool       `json:"degenerate"`
}

// Predict returns the fitted value at d.
func (m Model) Predict(d model.Date) float64 {
	return m.Slope*float64(d.DaysSince(m.Origin)) + m.Intercept
}

// Fit computes the ordinary least squares line through series. With a single
// distinct date the slope is undefined; the model then is the flat line at
// the observed mean and Degenerate is set.
func Fit(series model.DailySeries) (Model, error) {
	first, last, ok := series.Span()
	if !ok {
		return Model{}, ErrNoHistory
	}
	origin, end := first, last
	for _, p := range series {
		if p.Date.Before(origin) {
			origin = p.Date
		}
		if p.Date.After(end) {
			end = p.Date
		}
	}

	n := float64(len(series))
	var sumX, sumY float64
	for _, p := range series {
		sumX += float64(p.Date.DaysSince(origin))
		sumY += p.Value
	}
	meanX, meanY := sumX/n, sumY/n

	var sxx, sxy float64
	for _, p := range series {
		dx := float64(p.Date.DaysSince(origin)) - meanX
		sxx += dx * dx
		sxy += dx * (p.Value - meanY)
	}

	m := Model{Origin: origin, Last: end, Points: len(series)}
	if sxx == 0 {
		m.Intercept = meanY
		m.Degenerate = true
		return m, nil
	}
	m.Slope = sxy / sxx
	m.Intercept = meanY - m.Slope*meanX
	return m, nil
}

// Extrapolate returns horizon contiguous daily predictions starting the day
// after m.Last. Values are not clamped.
func (m Model) Extrapolate(horizon int) []model.ForecastPoint {
	if horizon < 0 {
		horizon = 0
	}
	points := make([]model.ForecastPoint, horizon)
	for i := range points {
		d := m.Last.AddDays(i + 1)
		points[i] = model.ForecastPoint{Date: d, Value: m.Predict(d)}
	}
	return points
}

// Forecaster fits and extrapolates with a fixed horizon.
type Forecaster struct {
	horizon int
	logger  logger.Logger
}

// Option applies a configuration option to the Forecaster.
type Option func(*Forecaster)

// WithHorizon sets the number of forecast days. Values below 1 are ignored.
func WithHorizon(days int) Option {
	return func(f *Forecaster) {
		if days > 0 {
			f.horizon = days
		}
	}
}

// WithLogger sets the logger used by the Forecaster.
func WithLogger(l logger.Logger) Option {
	return func(f *Forecaster) {
		if l != nil {
			f.logger = l
		}
	}
}

// New creates a Forecaster.
func New(opts ...Option) *Forecaster {
	f := &Forecaster{horizon: DefaultHorizon, logger: logger.Nop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Horizon returns the configured number of forecast days.
func (f *Forecaster) Horizon() int { return f.horizon }

// Forecast fits series and returns the forecast points with the model used.
func (f *Forecaster) Forecast(ctx context.Context, series model.DailySeries) ([]model.ForecastPoint, Model, error) {
	m, err := Fit(series)
	if err != nil {
		return nil, Model{}, fmt.Errorf("fit: %w", err)
	}
	if m.Degenerate {
		f.logger.Warn(ctx, "single distinct date, using flat forecast",
			logger.String("date", m.Origin.String()),
			logger.Float64("value", m.Intercept),
		)
	}
	f.logger.Debug(ctx, "model fitted",
		logger.Float64("slope", m.Slope),
		logger.Float64("intercept", m.Intercept),
		logger.Int("points", m.Points),
		logger.Int("horizon", f.horizon),
	)
	return m.Extrapolate(f.horizon), m, nil
}

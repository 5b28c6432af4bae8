// Package pipeline runs the sales data pipeline end to end:
// normalize, validate, clean, aggregate, forecast and combine.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/insights/internal/domain/aggregate"
	"github.com/okian/insights/internal/domain/cleaning"
	"github.com/okian/insights/internal/domain/forecast"
	"github.com/okian/insights/internal/domain/model"
	"github.com/okian/insights/internal/domain/normalize"
	"github.com/okian/insights/pkg/logger"
	"github.com/okian/insights/pkg/metrics"
)

// Stage names used in errors, logs and metrics.
const (
	StageLoad      = "load"
	StageNormalize = "normalize"
	StageValidate  = "validate"
	StageClean     = "clean"
	StageAggregate = "aggregate"
	StageForecast  = "forecast"
	StageCombine   = "combine"
)

// Default pipeline configuration constants.
const (
	defaultPreviewRows = 5
)

// RequiredColumns must exist after normalization.
var RequiredColumns = []string{ //nolint:gochecknoglobals // read-only
	model.ColumnDate,
	model.ColumnProduct,
	model.ColumnSalesAmount,
}

// Loader reads raw tabular input.
type Loader interface {
	Load(ctx context.Context) (*model.Dataset, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) (*model.Dataset, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context) (*model.Dataset, error) { return f(ctx) }

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithCleaner replaces the default Cleaner.
func WithCleaner(c *cleaning.Cleaner) Option {
	return func(p *Pipeline) {
		if c != nil {
			p.cleaner = c
		}
	}
}

// WithForecaster replaces the default Forecaster.
func WithForecaster(f *forecast.Forecaster) Option {
	return func(p *Pipeline) {
		if f != nil {
			p.forecaster = f
		}
	}
}

// WithPreviewRows sets how many cleaned records are kept in Result.Preview.
func WithPreviewRows(n int) Option {
	return func(p *Pipeline) {
		if n >= 0 {
			p.previewRows = n
		}
	}
}

// WithLogger sets the logger used by the Pipeline.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// Pipeline is stateless between runs and safe for concurrent use. Each run
// owns the dataset it loads.
type Pipeline struct {
	cleaner     *cleaning.Cleaner
	forecaster  *forecast.Forecaster
	previewRows int
	logger      logger.Logger
}

// New creates a Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		cleaner:     cleaning.New(),
		forecaster:  forecast.New(),
		previewRows: defaultPreviewRows,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run loads a dataset from in and processes it. On failure the returned
// error is always a *Error and the Result is nil.
func (p *Pipeline) Run(ctx context.Context, in Loader) (res *Result, err error) {
	defer p.recoverPanic(ctx, &res, &err)

	start := time.Now()
	ds, lerr := in.Load(ctx)
	observeStage(StageLoad, start)
	if lerr != nil {
		return nil, p.fail(ctx, newError(KindParse, StageLoad, lerr))
	}
	if ds == nil {
		return nil, p.fail(ctx, newError(KindParse, StageLoad, errors.New("no table found")))
	}
	metrics.RecordRowsIngested(ds.Len())
	return p.process(ctx, ds, start)
}

// RunDataset processes a copy of ds.
func (p *Pipeline) RunDataset(ctx context.Context, ds *model.Dataset) (res *Result, err error) {
	defer p.recoverPanic(ctx, &res, &err)
	if ds == nil {
		return nil, p.fail(ctx, newError(KindParse, StageLoad, errors.New("no table found")))
	}
	return p.process(ctx, ds.Clone(), time.Now())
}

func (p *Pipeline) process(ctx context.Context, ds *model.Dataset, start time.Time) (*Result, error) {
	t := time.Now()
	if err := normalize.Dataset(ds); err != nil {
		return nil, p.fail(ctx, newError(KindSchema, StageNormalize, err))
	}
	observeStage(StageNormalize, t)

	if err := normalize.Require(ds, RequiredColumns...); err != nil {
		return nil, p.fail(ctx, newError(KindSchema, StageValidate, err))
	}

	t = time.Now()
	report, err := p.cleaner.Clean(ctx, ds)
	observeStage(StageClean, t)
	if err != nil {
		return nil, p.fail(ctx, newError(KindSchema, StageClean, err))
	}
	recordReport(report)
	if ds.Len() == 0 {
		return nil, p.fail(ctx, newError(KindEmpty, StageClean,
			fmt.Errorf("%w: %d of %d rows dropped", ErrEmpty, report.Dropped(), report.RowsIn)))
	}

	t = time.Now()
	daily, err := aggregate.Daily(ds)
	if err != nil {
		return nil, p.fail(ctx, newError(KindInternal, StageAggregate, err))
	}
	pivot, err := aggregate.Pivot(ds)
	if err != nil {
		return nil, p.fail(ctx, newError(KindInternal, StageAggregate, err))
	}
	observeStage(StageAggregate, t)

	t = time.Now()
	points, fitted, err := p.forecaster.Forecast(ctx, daily)
	observeStage(StageForecast, t)
	if err != nil {
		kind := KindInternal
		if errors.Is(err, forecast.ErrNoHistory) {
			kind = KindEmpty
		}
		return nil, p.fail(ctx, newError(kind, StageForecast, err))
	}
	if fitted.Degenerate {
		metrics.RecordForecastDegenerate()
	}
	metrics.RecordHistoryDays(len(daily))

	res := &Result{
		Columns:  append([]string(nil), ds.Columns...),
		Preview:  ds.Head(p.previewRows),
		Report:   report,
		Daily:    daily,
		Pivot:    pivot,
		Forecast: points,
		Model:    fitted,
		Combined: model.Combine(daily, points),
	}
	metrics.RecordPipelineLatency(float64(time.Since(start).Microseconds()) / 1000)

	p.logger.Info(ctx, "pipeline completed",
		logger.Int("rows", ds.Len()),
		logger.Int("days", len(daily)),
		logger.Int("products", len(pivot.Products)),
		logger.Bool("degenerate", fitted.Degenerate),
		logger.Duration("took", time.Since(start)),
	)
	return res, nil
}

func (p *Pipeline) fail(ctx context.Context, e *Error) *Error {
	metrics.RecordPipelineError(string(e.Kind))
	if e.Kind == KindInternal {
		p.logger.Error(ctx, "pipeline failed", logger.String("stage", e.Stage), logger.Error(e.Err))
	} else {
		p.logger.Warn(ctx, "pipeline rejected input",
			logger.String("stage", e.Stage),
			logger.String("kind", string(e.Kind)),
			logger.Error(e.Err),
		)
	}
	return e
}

func (p *Pipeline) recoverPanic(ctx context.Context, res **Result, err *error) {
	if r := recover(); r != nil {
		*res = nil
		*err = p.fail(ctx, newError(KindInternal, "panic", fmt.Errorf("%v", r)))
	}
}

func observeStage(stage string, since time.Time) {
	metrics.RecordStageLatency(stage, float64(time.Since(since).Microseconds())/1000)
}

func recordReport(r cleaning.Report) {
	metrics.RecordRowsDropped("missing_date", r.DroppedMissingDate)
	metrics.RecordRowsDropped("missing_product", r.DroppedMissingProduct)
	for col, n := range r.Coerced {
		metrics.RecordValuesCoerced(col, n)
	}
	metrics.RecordValuesFilled(r.TotalFilled())
}

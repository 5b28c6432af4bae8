package cleaning

import (
	"context"

	"github.com/okian/insights/internal/domain/model"
	"github.com/okian/insights/internal/domain/normalize"
	"github.com/okian/insights/pkg/logger"
)

// Cleaner parses dates, drops rows without a date or product, fills numeric
// gaps and coerces the sales columns. Bad values never fail a run; they are
// counted in the Report instead.
type Cleaner struct {
	layouts     []string
	maxWarnings int
	logger      logger.Logger
}

// New creates a Cleaner with permissive date parsing.
func New(opts ...Option) *Cleaner {
	c := &Cleaner{
		maxWarnings: defaultMaxWarnings,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clean mutates ds in place. ds must already be normalized and must carry the
// date and product columns, otherwise model.ErrMissingColumn is returned and
// ds is left untouched.
func (c *Cleaner) Clean(ctx context.Context, ds *model.Dataset) (Report, error) {
	if err := normalize.Require(ds, model.ColumnDate, model.ColumnProduct); err != nil {
		return Report{}, err
	}
	rep := newReport(ds.Len(), c.maxWarnings)
	dateIdx := ds.Index(model.ColumnDate)
	productIdx := ds.Index(model.ColumnProduct)

	c.parseDates(ds, dateIdx, rep)
	c.dropIncomplete(ds, dateIdx, productIdx, rep)

	for col, name := range ds.Columns {
		switch {
		case col == dateIdx, col == productIdx:
			continue
		case name == model.ColumnSalesAmount, name == model.ColumnUnitsSold:
			c.coerce(ds, col, rep)
		case isNumeric(ds, col):
			fillNumeric(ds, col, rep)
		}
	}
	rep.RowsOut = ds.Len()

	fields := []logger.Field{
		logger.Int("rows_in", rep.RowsIn),
		logger.Int("rows_out", rep.RowsOut),
		logger.Int("dropped", rep.Dropped()),
		logger.Int("unparsable_dates", rep.UnparsableDates),
		logger.Int("filled", rep.TotalFilled()),
		logger.Int("coerced", rep.TotalCoerced()),
	}
	if rep.Clean() {
		c.logger.Debug(ctx, "dataset cleaned", fields...)
	} else {
		c.logger.Warn(ctx, "dataset cleaned with data-quality issues", fields...)
	}
	return *rep, nil
}

func (c *Cleaner) parseDates(ds *model.Dataset, dateIdx int, rep *Report) {
	for i := range ds.Records {
		r := &ds.Records[i]
		v := r.Values[dateIdx]
		if v.Kind() != model.KindText {
			continue
		}
		d, ok := parseDate(v.String(), c.layouts)
		if !ok {
			rep.UnparsableDates++
			rep.warn("line %d: unparsable date %q", r.Line, v.String())
			r.Values[dateIdx] = model.Missing()
			continue
		}
		r.Values[dateIdx] = model.DateValue(d)
	}
}

func (c *Cleaner) dropIncomplete(ds *model.Dataset, dateIdx, productIdx int, rep *Report) {
	kept := ds.Records[:0]
	for _, r := range ds.Records {
		switch {
		case r.Values[dateIdx].IsMissing():
			rep.DroppedMissingDate++
		case r.Values[productIdx].IsMissing():
			rep.DroppedMissingProduct++
			rep.warn("line %d: missing product", r.Line)
		default:
			kept = append(kept, r)
		}
	}
	// Clear the tail so dropped records can be collected.
	for i := len(kept); i < len(ds.Records); i++ {
		ds.Records[i] = model.Record{}
	}
	ds.Records = kept
}

// coerce forces column col to numbers; anything unparsable becomes 0.
func (c *Cleaner) coerce(ds *model.Dataset, col int, rep *Report) {
	name := ds.Columns[col]
	for i := range ds.Records {
		r := &ds.Records[i]
		v := r.Values[col]
		if v.IsMissing() {
			rep.Filled[name]++
			r.Values[col] = model.Number(0)
			continue
		}
		n, ok := v.Number()
		if !ok {
			rep.Coerced[name]++
			rep.warn("line %d: unparsable %s %q set to 0", r.Line, name, v.String())
		}
		r.Values[col] = model.Number(n)
	}
}

// isNumeric reports whether every present value of col is a number.
func isNumeric(ds *model.Dataset, col int) bool {
	for _, r := range ds.Records {
		v := r.Values[col]
		if v.IsMissing() {
			continue
		}
		if _, ok := v.Number(); !ok {
			return false
		}
	}
	return true
}

func fillNumeric(ds *model.Dataset, col int, rep *Report) {
	name := ds.Columns[col]
	for i := range ds.Records {
		r := &ds.Records[i]
		v := r.Values[col]
		if v.IsMissing() {
			rep.Filled[name]++
			r.Values[col] = model.Number(0)
			continue
		}
		n, _ := v.Number()
		r.Values[col] = model.Number(n)
	}
}

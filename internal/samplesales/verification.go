package samplesales

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/okian/insights/internal/domain/model"
	"github.com/okian/insights/pkg/logger"
)

var errMismatch = errors.New("result mismatch")

// verifyResults checks every outcome against what its export should produce.
func verifyResults(ctx context.Context, config *Config, outcomes []Outcome, stats *Stats) error {
	logger.Get().Info(ctx, "verifying results", logger.Int("outcomes", len(outcomes)))

	var errs []error
	for _, o := range outcomes {
		if err := verifyOutcome(config, o); err != nil {
			stats.Mismatches++
			logger.Get().Warn(ctx, "verification failed",
				logger.String("owner", o.Export.Owner),
				logger.String("file", o.Export.Name),
				logger.Error(err))
			errs = append(errs, err)
			continue
		}
		stats.Verified++
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	logger.Get().Info(ctx, "result verification completed", logger.Int("verified", stats.Verified))
	return nil
}

// verifyOutcome compares one upload response with its export.
func verifyOutcome(config *Config, o Outcome) error {
	e := o.Export
	if o.Err != nil {
		return fmt.Errorf("%s: %w", e.Name, o.Err)
	}

	if e.Days == 0 {
		if o.Status != http.StatusUnprocessableEntity || o.Error == nil || o.Error.Code != "empty" {
			return fmt.Errorf("%s: %w: expected an empty-dataset rejection, got status %d", e.Name, errMismatch, o.Status)
		}
		return nil
	}
	if o.Response == nil {
		msg := ""
		if o.Error != nil {
			msg = o.Error.Message
		}
		return fmt.Errorf("%s: %w: status %d %s", e.Name, errMismatch, o.Status, msg)
	}

	res := o.Response
	if res.BusinessName != e.Business {
		return fmt.Errorf("%s: %w: business %q, want %q", e.Name, errMismatch, res.BusinessName, e.Business)
	}
	if res.Report.RowsIn != e.Rows {
		return fmt.Errorf("%s: %w: rows in %d, want %d", e.Name, errMismatch, res.Report.RowsIn, e.Rows)
	}
	if err := verifyDaily(e, res.Daily); err != nil {
		return fmt.Errorf("%s: %w", e.Name, err)
	}
	if err := verifyForecast(e, config.Horizon, res.Combined); err != nil {
		return fmt.Errorf("%s: %w", e.Name, err)
	}
	return nil
}

// verifyDaily checks the span and total of the daily series.
func verifyDaily(e Export, daily Table) error {
	if len(daily.Rows) != e.Days {
		return fmt.Errorf("%w: %d daily rows, want %d", errMismatch, len(daily.Rows), e.Days)
	}
	first, _, err := rowPoint(daily.Rows[0])
	if err != nil {
		return err
	}
	last, _, err := rowPoint(daily.Rows[len(daily.Rows)-1])
	if err != nil {
		return err
	}
	if first.Compare(e.FirstDay) != 0 || last.Compare(e.LastDay) != 0 {
		return fmt.Errorf("%w: daily span %s..%s, want %s..%s", errMismatch, first, last, e.FirstDay, e.LastDay)
	}

	total := 0.0
	for _, row := range daily.Rows {
		_, v, err := rowPoint(row)
		if err != nil {
			return err
		}
		total += v
	}
	if math.Abs(total-e.TotalSales) > floatTolerance*math.Max(1, e.TotalSales) {
		return fmt.Errorf("%w: total sales %.2f, want %.2f", errMismatch, total, e.TotalSales)
	}
	return nil
}

// verifyForecast checks that the forecast follows the history day by day.
func verifyForecast(e Export, horizon int, combined Table) error {
	if got, want := len(combined.Rows), e.Days+horizon; got != want {
		return fmt.Errorf("%w: %d combined rows, want %d", errMismatch, got, want)
	}
	for k := 0; k < horizon; k++ {
		row := combined.Rows[e.Days+k]
		d, _, err := rowPoint(row)
		if err != nil {
			return err
		}
		if want := e.LastDay.AddDays(k + 1); d.Compare(want) != 0 {
			return fmt.Errorf("%w: forecast day %d is %s, want %s", errMismatch, k+1, d, want)
		}
		if len(row) < 3 || row[2] != true {
			return fmt.Errorf("%w: forecast day %d not flagged", errMismatch, k+1)
		}
	}
	return nil
}

// rowPoint reads the date and value columns of a table row.
func rowPoint(row []any) (model.Date, float64, error) {
	if len(row) < 2 {
		return model.Date{}, 0, fmt.Errorf("%w: short row %v", errMismatch, row)
	}
	s, ok := row[0].(string)
	if !ok {
		return model.Date{}, 0, fmt.Errorf("%w: date cell %v", errMismatch, row[0])
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return model.Date{}, 0, err
	}
	v, ok := row[1].(float64)
	if !ok {
		return model.Date{}, 0, fmt.Errorf("%w: value cell %v", errMismatch, row[1])
	}
	return d, v, nil
}

package pipeline

import (
	"github.com/okian/insights/internal/domain/cleaning"
	"github.com/okian/insights/internal/domain/forecast"
	"github.com/okian/insights/internal/domain/model"
	"github.com/okian/insights/internal/domain/types"
)

// Table names.
const (
	TableDaily    = "daily_sales"
	TablePivot    = "product_pivot"
	TableForecast = "forecast"
	TableCombined = "combined"
	TablePreview  = "preview"
)

// Result holds every derived view of one successful run.
type Result struct {
	Columns  []string
	Preview  *model.Dataset
	Report   cleaning.Report
	Daily    model.DailySeries
	Pivot    model.ProductPivot
	Forecast []model.ForecastPoint
	Model    forecast.Model
	Combined model.CombinedSeries
}

// DailyTable has columns date, sales_amount.
func (r *Result) DailyTable() types.Table {
	t := types.Table{Name: TableDaily, Columns: []string{model.ColumnDate, model.ColumnSalesAmount}}
	t.Rows = make([][]any, len(r.Daily))
	for i, p := range r.Daily {
		t.Rows[i] = []any{p.Date.String(), p.Value}
	}
	return t
}

// PivotTable has columns date followed by one column per product. Absent cells are nil.
func (r *Result) PivotTable() types.Table {
	cols := make([]string, 0, len(r.Pivot.Products)+1)
	cols = append(cols, model.ColumnDate)
	cols = append(cols, r.Pivot.Products...)
	t := types.Table{Name: TablePivot, Columns: cols}
	t.Rows = make([][]any, len(r.Pivot.Dates))
	for i, d := range r.Pivot.Dates {
		row := make([]any, 0, len(cols))
		row = append(row, d.String())
		for _, c := range r.Pivot.Cells[i] {
			if c.Present {
				row = append(row, c.Value)
			} else {
				row = append(row, nil)
			}
		}
		t.Rows[i] = row
	}
	return t
}

// ForecastTable has columns date, value.
func (r *Result) ForecastTable() types.Table {
	t := types.Table{Name: TableForecast, Columns: []string{model.ColumnDate, "value"}}
	t.Rows = make([][]any, len(r.Forecast))
	for i, p := range r.Forecast {
		t.Rows[i] = []any{p.Date.String(), p.Value}
	}
	return t
}

// CombinedTable has columns date, value, forecast.
func (r *Result) CombinedTable() types.Table {
	t := types.Table{Name: TableCombined, Columns: []string{model.ColumnDate, "value", "forecast"}}
	t.Rows = make([][]any, len(r.Combined))
	for i, p := range r.Combined {
		t.Rows[i] = []any{p.Date.String(), p.Value, p.Forecast}
	}
	return t
}

// PreviewTable renders the first cleaned records.
func (r *Result) PreviewTable() types.Table {
	t := types.Table{Name: TablePreview, Columns: append([]string(nil), r.Preview.Columns...)}
	t.Rows = make([][]any, len(r.Preview.Records))
	for i, rec := range r.Preview.Records {
		row := make([]any, len(rec.Values))
		for j, v := range rec.Values {
			switch v.Kind() {
			case model.KindMissing:
				row[j] = nil
			case model.KindNumber:
				n, _ := v.Number()
				row[j] = n
			default:
				row[j] = v.String()
			}
		}
		t.Rows[i] = row
	}
	return t
}

// Tables returns the three derived output tables in presentation order.
func (r *Result) Tables() []types.Table {
	return []types.Table{r.DailyTable(), r.PivotTable(), r.CombinedTable()}
}

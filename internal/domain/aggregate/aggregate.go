// Package aggregate derives the daily and per-product sales views of a cleaned dataset.
package aggregate

import (
	"errors"
	"fmt"
	"sort"

	"github.com/okian/insights/internal/domain/model"
	"github.com/okian/insights/internal/domain/normalize"
)

// ErrNotCleaned is returned when a record still carries a raw date or an
// unconverted sales value.
var ErrNotCleaned = errors.New("dataset is not cleaned")

// Daily groups ds by date and sums sales_amount, ascending by date.
func Daily(ds *model.Dataset) (model.DailySeries, error) {
	if err := normalize.Require(ds, model.ColumnDate, model.ColumnProduct, model.ColumnSalesAmount); err != nil {
		return nil, err
	}
	dateIdx := ds.Index(model.ColumnDate)
	salesIdx := ds.Index(model.ColumnSalesAmount)

	totals := make(map[model.Date]float64)
	for _, r := range ds.Records {
		d, amount, err := dateAndAmount(r, dateIdx, salesIdx)
		if err != nil {
			return nil, err
		}
		totals[d] += amount
	}

	series := make(model.DailySeries, 0, len(totals))
	for d, v := range totals {
		series = append(series, model.Point{Date: d, Value: v})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
	return series, nil
}

// Pivot groups ds by (date, product) and sums sales_amount into a table with
// one row per date and one column per product. Products are sorted by name.
// Pairs with no records are left absent.
func Pivot(ds *model.Dataset) (model.ProductPivot, error) {
	if err := normalize.Require(ds, model.ColumnDate, model.ColumnProduct, model.ColumnSalesAmount); err != nil {
		return model.ProductPivot{}, err
	}
	dateIdx := ds.Index(model.ColumnDate)
	productIdx := ds.Index(model.ColumnProduct)
	salesIdx := ds.Index(model.ColumnSalesAmount)

	type key struct {
		date    model.Date
		product string
	}
	sums := make(map[key]float64)
	dateSet := make(map[model.Date]struct{})
	productSet := make(map[string]struct{})
	for _, r := range ds.Records {
		d, amount, err := dateAndAmount(r, dateIdx, salesIdx)
		if err != nil {
			return model.ProductPivot{}, err
		}
		p := r.Values[productIdx]
		if p.IsMissing() {
			return model.ProductPivot{}, fmt.Errorf("%w: line %d has no product", ErrNotCleaned, r.Line)
		}
		k := key{date: d, product: p.String()}
		sums[k] += amount
		dateSet[d] = struct{}{}
		productSet[k.product] = struct{}{}
	}

	pivot := model.ProductPivot{
		Dates:    make([]model.Date, 0, len(dateSet)),
		Products: make([]string, 0, len(productSet)),
	}
	for d := range dateSet {
		pivot.Dates = append(pivot.Dates, d)
	}
	sort.Slice(pivot.Dates, func(i, j int) bool { return pivot.Dates[i].Before(pivot.Dates[j]) })
	for p := range productSet {
		pivot.Products = append(pivot.Products, p)
	}
	sort.Strings(pivot.Products)

	pivot.Cells = make([][]model.Cell, len(pivot.Dates))
	for i, d := range pivot.Dates {
		row := make([]model.Cell, len(pivot.Products))
		for j, p := range pivot.Products {
			if v, ok := sums[key{date: d, product: p}]; ok {
				row[j] = model.Cell{Value: v, Present: true}
			}
		}
		pivot.Cells[i] = row
	}
	return pivot, nil
}

func dateAndAmount(r model.Record, dateIdx, salesIdx int) (model.Date, float64, error) {
	d, ok := r.Values[dateIdx].Date()
	if !ok {
		return model.Date{}, 0, fmt.Errorf("%w: line %d has no parsed date", ErrNotCleaned, r.Line)
	}
	v := r.Values[salesIdx]
	if v.Kind() != model.KindNumber {
		return model.Date{}, 0, fmt.Errorf("%w: line %d has non-numeric sales_amount", ErrNotCleaned, r.Line)
	}
	amount, _ := v.Number()
	return d, amount, nil
}

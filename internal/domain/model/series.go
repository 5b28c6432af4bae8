package model

// Point is one (date, value) observation.
type Point struct {
	Date  Date    `json:"date"`
	Value float64 `json:"value"`
}

// DailySeries holds summed sales per day, unique and ascending by date.
type DailySeries []Point

// Span returns the first and last dates of s. ok is false for an empty series.
func (s DailySeries) Span() (first, last Date, ok bool) {
	if len(s) == 0 {
		return Date{}, Date{}, false
	}
	return s[0].Date, s[len(s)-1].Date, true
}

// Lookup returns the value recorded for d.
func (s DailySeries) Lookup(d Date) (float64, bool) {
	for _, p := range s {
		if p.Date == d {
			return p.Value, true
		}
	}
	return 0, false
}

// Total returns the sum of all values.
func (s DailySeries) Total() float64 {
	var sum float64
	for _, p := range s {
		sum += p.Value
	}
	return sum
}

// Cell is one ProductPivot entry. Absent cells have Present == false.
type Cell struct {
	Value   float64
	Present bool
}

// ProductPivot is a date × product table of summed sales.
type ProductPivot struct {
	Dates    []Date
	Products []string
	Cells    [][]Cell // Cells[i][j] is Dates[i] × Products[j]
}

// Get returns the summed sales of product on Dates[row].
func (p ProductPivot) Get(row int, product string) (float64, bool) {
	if row < 0 || row >= len(p.Cells) {
		return 0, false
	}
	for j, name := range p.Products {
		if name == product {
			c := p.Cells[row][j]
			return c.Value, c.Present
		}
	}
	return 0, false
}

// RowSum sums the present cells of Dates[row]. complete is false when any cell is absent.
func (p ProductPivot) RowSum(row int) (sum float64, complete bool) {
	complete = true
	for _, c := range p.Cells[row] {
		if !c.Present {
			complete = false
			continue
		}
		sum += c.Value
	}
	return sum, complete
}

// ForecastPoint is a predicted value for a future day.
type ForecastPoint struct {
	Date  Date    `json:"date"`
	Value float64 `json:"value"`
}

// CombinedPoint is one row of CombinedSeries.
type CombinedPoint struct {
	Date     Date    `json:"date"`
	Value    float64 `json:"value"`
	Forecast bool    `json:"forecast"`
}

// CombinedSeries is history followed by forecast, ordered by date.
type CombinedSeries []CombinedPoint

// Combine appends forecast after history.
func Combine(history DailySeries, forecast []ForecastPoint) CombinedSeries {
	out := make(CombinedSeries, 0, len(history)+len(forecast))
	for _, p := range history {
		out = append(out, CombinedPoint{Date: p.Date, Value: p.Value})
	}
	for _, p := range forecast {
		out = append(out, CombinedPoint{Date: p.Date, Value: p.Value, Forecast: true})
	}
	return out
}

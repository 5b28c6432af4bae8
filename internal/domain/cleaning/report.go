package cleaning

import (
	"fmt"
	"sort"
)

// Report is the data-quality side channel of Clean. Nothing in it is an error.
type Report struct {
	RowsIn                int            `json:"rows_in"`
	RowsOut               int            `json:"rows_out"`
	DroppedMissingDate    int            `json:"dropped_missing_date"`
	DroppedMissingProduct int            `json:"dropped_missing_product"`
	UnparsableDates       int            `json:"unparsable_dates"`
	Filled                map[string]int `json:"filled"`
	Coerced               map[string]int `json:"coerced"`
	Warnings              []string       `json:"warnings"`
	WarningsOmitted       int            `json:"warnings_omitted"`

	maxWarnings int
}

func newReport(rowsIn, maxWarnings int) *Report {
	return &Report{
		RowsIn:      rowsIn,
		Filled:      make(map[string]int),
		Coerced:     make(map[string]int),
		Warnings:    []string{},
		maxWarnings: maxWarnings,
	}
}

// Dropped returns the number of discarded rows.
func (r *Report) Dropped() int {
	return r.DroppedMissingDate + r.DroppedMissingProduct
}

// TotalFilled returns the number of missing numeric cells set to zero.
func (r *Report) TotalFilled() int { return sum(r.Filled) }

// TotalCoerced returns the number of unparsable values replaced with zero.
func (r *Report) TotalCoerced() int { return sum(r.Coerced) }

// Clean reports whether the input needed no changes at all.
func (r *Report) Clean() bool {
	return r.Dropped() == 0 && r.UnparsableDates == 0 && r.TotalFilled() == 0 && r.TotalCoerced() == 0
}

// Summary lists one human readable line per non-zero counter, in a stable order.
func (r *Report) Summary() []string {
	var lines []string
	if r.DroppedMissingDate > 0 {
		lines = append(lines, fmt.Sprintf("%d row(s) dropped: missing or unparsable date", r.DroppedMissingDate))
	}
	if r.DroppedMissingProduct > 0 {
		lines = append(lines, fmt.Sprintf("%d row(s) dropped: missing product", r.DroppedMissingProduct))
	}
	for _, col := range sortedKeys(r.Coerced) {
		lines = append(lines, fmt.Sprintf("%d unparsable %s value(s) set to 0", r.Coerced[col], col))
	}
	for _, col := range sortedKeys(r.Filled) {
		lines = append(lines, fmt.Sprintf("%d missing %s value(s) filled with 0", r.Filled[col], col))
	}
	return lines
}

func (r *Report) warn(format string, args ...any) {
	if len(r.Warnings) >= r.maxWarnings {
		r.WarningsOmitted++
		return
	}
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func sum(m map[string]int) int {
	total := 0
	for _, n := range m {
		total += n
	}
	return total
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k, n := range m {
		if n > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

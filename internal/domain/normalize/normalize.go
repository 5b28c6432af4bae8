// Package normalize canonicalizes dataset column names.
package normalize

import (
	"fmt"
	"strings"

	"github.com/okian/insights/internal/domain/model"
)

// Column trims name, lowercases it and replaces spaces with underscores.
// Applying it twice gives the same result as applying it once.
func Column(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// Columns normalizes every name and returns a new slice.
func Columns(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = Column(n)
	}
	return out
}

// Dataset renames the columns of ds in place. Rows are not touched.
// Two columns collapsing onto one name is reported as ErrDuplicateColumn.
func Dataset(ds *model.Dataset) error {
	names := Columns(ds.Columns)
	seen := make(map[string]int, len(names))
	for i, n := range names {
		if j, ok := seen[n]; ok {
			return fmt.Errorf("%w: %q and %q both normalize to %q",
				model.ErrDuplicateColumn, ds.Columns[j], ds.Columns[i], n)
		}
		seen[n] = i
	}
	ds.Columns = names
	return nil
}

// Require reports the first of names missing from ds as ErrMissingColumn.
func Require(ds *model.Dataset, names ...string) error {
	for _, n := range names {
		if !ds.Has(n) {
			return fmt.Errorf("%w: %q", model.ErrMissingColumn, n)
		}
	}
	return nil
}

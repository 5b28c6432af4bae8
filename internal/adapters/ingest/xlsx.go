package ingest

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/okian/insights/internal/domain/model"
)

// ReadXLSX parses the first sheet of a workbook. Leading blank rows are
// skipped; the first non-blank row is the header. Cells are read as displayed.
func ReadXLSX(r io.Reader) (*model.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q: %v", ErrMalformed, sheets[0], err)
	}

	start := 0
	for start < len(rows) && blank(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil, ErrEmptyFile
	}
	header := nameBlankColumns(rows[start])

	var (
		body  [][]string
		lines []int
	)
	for i := start + 1; i < len(rows); i++ {
		if blank(rows[i]) {
			continue
		}
		body = append(body, rows[i])
		lines = append(lines, i+1)
	}
	return model.NewDatasetAt(header, body, lines), nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

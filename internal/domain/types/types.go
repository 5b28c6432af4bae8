// Package types contains the tabular output shape shared by the pipeline,
// the HTTP API and the command line tools.
package types

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Table is an ordered set of rows under stable column names. Cells hold
// string, float64, bool or nil (absent).
type Table struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Strings renders every cell as text. Absent cells become "".
func (t Table) Strings() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = FormatCell(c)
		}
		out[i] = cells
	}
	return out
}

// WriteCSV writes the header and rows of t to w.
func (t Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(t.Strings()); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// Markdown renders t as a GitHub flavoured markdown table.
func (t Table) Markdown() string {
	var b strings.Builder
	writeMarkdownRow(&b, t.Columns)
	b.WriteString("|" + strings.Repeat(" --- |", len(t.Columns)) + "\n")
	for _, row := range t.Strings() {
		writeMarkdownRow(&b, row)
	}
	return b.String()
}

var markdownCellEscaper = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ") //nolint:gochecknoglobals // read-only

func writeMarkdownRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" " + markdownCellEscaper.Replace(c) + " |")
	}
	b.WriteString("\n")
}

// FormatCell renders one table cell.
func FormatCell(c any) string {
	switch v := c.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

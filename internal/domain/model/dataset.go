package model

// Canonical column names the pipeline relies on.
const (
	ColumnDate        = "date"
	ColumnProduct     = "product"
	ColumnSalesAmount = "sales_amount"
	ColumnUnitsSold   = "units_sold"
)

// Record is one row of a Dataset. Values are positional and aligned with
// Dataset.Columns.
type Record struct {
	Line   int // 1-based line in the source file, 0 when unknown
	Values []Value
}

// Dataset is an ordered sequence of records sharing one schema.
type Dataset struct {
	Columns []string
	Records []Record
}

// NewDataset builds a Dataset from a header and raw string rows. Short rows
// are padded with missing values and long rows are truncated. Lines are
// numbered from 2, the header being line 1.
func NewDataset(header []string, rows [][]string) *Dataset {
	return NewDatasetAt(header, rows, nil)
}

// NewDatasetAt is NewDataset with the source line of every row given in
// lines. Rows beyond len(lines) are numbered as NewDataset does.
func NewDatasetAt(header []string, rows [][]string, lines []int) *Dataset {
	ds := &Dataset{
		Columns: append([]string(nil), header...),
		Records: make([]Record, 0, len(rows)),
	}
	for i, row := range rows {
		values := make([]Value, len(header))
		for j := range values {
			if j < len(row) {
				values[j] = CellOf(row[j])
			}
		}
		line := i + 2
		if i < len(lines) {
			line = lines[i]
		}
		ds.Records = append(ds.Records, Record{Line: line, Values: values})
	}
	return ds
}

// Len returns the number of records.
func (ds *Dataset) Len() int { return len(ds.Records) }

// Index returns the position of column name, or -1.
func (ds *Dataset) Index(name string) int {
	for i, c := range ds.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Has reports whether the dataset has column name.
func (ds *Dataset) Has(name string) bool { return ds.Index(name) >= 0 }

// Get returns the value of column name in r, or Missing when the column is absent.
func (ds *Dataset) Get(r Record, name string) Value {
	i := ds.Index(name)
	if i < 0 || i >= len(r.Values) {
		return Missing()
	}
	return r.Values[i]
}

// Clone returns a deep copy of ds.
func (ds *Dataset) Clone() *Dataset {
	out := &Dataset{
		Columns: append([]string(nil), ds.Columns...),
		Records: make([]Record, len(ds.Records)),
	}
	for i, r := range ds.Records {
		out.Records[i] = Record{Line: r.Line, Values: append([]Value(nil), r.Values...)}
	}
	return out
}

// Head returns a copy holding at most n leading records.
func (ds *Dataset) Head(n int) *Dataset {
	if n < 0 {
		n = 0
	}
	if n > len(ds.Records) {
		n = len(ds.Records)
	}
	head := &Dataset{Columns: ds.Columns, Records: ds.Records[:n]}
	return head.Clone()
}

package types_test

import (
	"bytes"
	"testing"

	types "github.com/okian/insights/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTable(t *testing.T) {
	Convey("Given a pivot-like table with an absent cell", t, func() {
		table := types.Table{
			Name:    "product_pivot",
			Columns: []string{"date", "A", "B"},
			Rows: [][]any{
				{"2024-01-01", 10.0, nil},
				{"2024-01-02", 2.5, 7.0},
			},
		}

		Convey("When rendering strings", func() {
			rows := table.Strings()

			Convey("Then absent cells should be empty", func() {
				So(rows[0], ShouldResemble, []string{"2024-01-01", "10", ""})
				So(rows[1], ShouldResemble, []string{"2024-01-02", "2.5", "7"})
			})
		})

		Convey("When writing CSV", func() {
			var buf bytes.Buffer
			err := table.WriteCSV(&buf)

			Convey("Then header and rows should be written", func() {
				So(err, ShouldBeNil)
				So(buf.String(), ShouldEqual, "date,A,B\n2024-01-01,10,\n2024-01-02,2.5,7\n")
			})
		})

		Convey("When rendering markdown", func() {
			md := table.Markdown()

			Convey("Then it should contain a header separator", func() {
				So(md, ShouldStartWith, "| date | A | B |\n| --- | --- | --- |\n")
				So(md, ShouldContainSubstring, "| 2024-01-02 | 2.5 | 7 |")
			})
		})
	})

	Convey("Given product names holding a pipe", t, func() {
		table := types.Table{
			Columns: []string{"date", "Tea|Large"},
			Rows:    [][]any{{"2024-01-01", "a|b"}},
		}

		Convey("When rendering markdown", func() {
			md := table.Markdown()

			Convey("Then the pipes should be escaped", func() {
				So(md, ShouldStartWith, "| date | Tea\\|Large |\n| --- | --- |\n")
				So(md, ShouldContainSubstring, "| 2024-01-01 | a\\|b |")
			})
		})
	})

	Convey("Given assorted cell values", t, func() {
		So(types.FormatCell(true), ShouldEqual, "true")
		So(types.FormatCell(nil), ShouldEqual, "")
		So(types.FormatCell(3), ShouldEqual, "3")
	})
}

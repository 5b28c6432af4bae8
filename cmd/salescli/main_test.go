package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/subcommands"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/insights/pkg/logger"
)

func init() {
	if err := logger.InitWith(io.Discard, logger.FormatText); err != nil {
		panic(err)
	}
}

const sales = "Date,Product,Sales Amount\n" +
	"2024-01-01,Coffee,100\n" +
	"2024-01-01,Tea,50\n" +
	"2024-01-02,Coffee,oops\n" +
	"2024-01-03,Tea,250\n" +
	"someday,Coffee,5\n"

func writeSales(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "sales.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(c subcommands.Command, args ...string) subcommands.ExitStatus {
	f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	c.SetFlags(f)
	if err := f.Parse(args); err != nil {
		return subcommands.ExitUsageError
	}
	return c.Execute(context.Background(), f)
}

func TestReport(t *testing.T) {
	convey.Convey("Given a messy sales file", t, func() {
		path := writeSales(t, sales)
		var out bytes.Buffer
		errOut = &bytes.Buffer{}

		convey.Convey("When printing a plain report", func() {
			status := execute(&reportCmd{out: &out}, "-plain", "-h", "3", path)

			convey.Convey("Then every section should be present", func() {
				convey.So(status, convey.ShouldEqual, subcommands.ExitSuccess)
				md := out.String()
				convey.So(md, convey.ShouldContainSubstring, "# Sales report: sales.csv")
				convey.So(md, convey.ShouldContainSubstring, "## Daily sales trend")
				convey.So(md, convey.ShouldContainSubstring, "| date | Coffee | Tea |")
				convey.So(md, convey.ShouldContainSubstring, "## Sales forecast (next 3 days)")
				convey.So(md, convey.ShouldContainSubstring, "1 row(s) dropped: missing or unparsable date")
				convey.So(md, convey.ShouldContainSubstring, "1 unparsable sales_amount value(s) set to 0")
			})
		})

		convey.Convey("When rendering for the terminal", func() {
			status := execute(&reportCmd{out: &out}, path)

			convey.Convey("Then something should be printed", func() {
				convey.So(status, convey.ShouldEqual, subcommands.ExitSuccess)
				convey.So(out.Len(), convey.ShouldBeGreaterThan, 0)
			})
		})

		convey.Convey("When no file is given", func() {
			status := execute(&reportCmd{out: &out})

			convey.Convey("Then it should be a usage error", func() {
				convey.So(status, convey.ShouldEqual, subcommands.ExitUsageError)
			})
		})
	})

	convey.Convey("Given a file without a date column", t, func() {
		path := writeSales(t, "Product,Sales Amount\nTea,1\n")
		var out, stderr bytes.Buffer
		errOut = &stderr

		convey.Convey("When printing a report", func() {
			status := execute(&reportCmd{out: &out}, "-plain", path)

			convey.Convey("Then only the user facing error should be printed", func() {
				convey.So(status, convey.ShouldEqual, subcommands.ExitFailure)
				convey.So(out.Len(), convey.ShouldEqual, 0)
				convey.So(stderr.String(), convey.ShouldStartWith, "Error processing file: ")
			})
		})
	})
}

func TestExport(t *testing.T) {
	convey.Convey("Given a sales file", t, func() {
		path := writeSales(t, sales)
		dir := filepath.Join(t.TempDir(), "out")
		var out bytes.Buffer
		errOut = &bytes.Buffer{}

		convey.Convey("When exporting to a directory", func() {
			status := execute(&exportCmd{out: &out}, "-dir", dir, path)

			convey.Convey("Then the three tables should be written", func() {
				convey.So(status, convey.ShouldEqual, subcommands.ExitSuccess)
				for _, name := range []string{"daily_sales.csv", "product_pivot.csv", "combined.csv"} {
					_, err := os.Stat(filepath.Join(dir, name))
					convey.So(err, convey.ShouldBeNil)
				}
				daily, _ := os.ReadFile(filepath.Join(dir, "daily_sales.csv"))
				convey.So(string(daily), convey.ShouldEqual, "date,sales_amount\n2024-01-01,150\n2024-01-02,0\n2024-01-03,250\n")
				pivot, _ := os.ReadFile(filepath.Join(dir, "product_pivot.csv"))
				convey.So(string(pivot), convey.ShouldContainSubstring, "2024-01-03,,250\n")
			})
		})

		convey.Convey("When exporting one table to stdout", func() {
			status := execute(&exportCmd{out: &out}, "-table", "combined", "-h", "2", path)

			convey.Convey("Then history and forecast rows should be flagged", func() {
				convey.So(status, convey.ShouldEqual, subcommands.ExitSuccess)
				lines := strings.Split(strings.TrimSpace(out.String()), "\n")
				convey.So(lines[0], convey.ShouldEqual, "date,value,forecast")
				convey.So(len(lines), convey.ShouldEqual, 1+3+2)
				convey.So(lines[1], convey.ShouldEndWith, ",false")
				convey.So(lines[5], convey.ShouldStartWith, "2024-01-05,")
				convey.So(lines[5], convey.ShouldEndWith, ",true")
			})
		})

		convey.Convey("When the table name is unknown", func() {
			status := execute(&exportCmd{out: &out}, "-table", "nope", path)

			convey.Convey("Then it should be a usage error", func() {
				convey.So(status, convey.ShouldEqual, subcommands.ExitUsageError)
			})
		})
	})
}

func TestForecast(t *testing.T) {
	convey.Convey("Given a two day sales file", t, func() {
		path := writeSales(t, "date,product,sales_amount\n2024-01-01,A,100\n2024-01-02,A,200\n")
		var out bytes.Buffer
		errOut = &bytes.Buffer{}

		convey.Convey("When printing the forecast as json", func() {
			status := execute(&forecastCmd{out: &out}, "-json", "-h", "1", path)
			convey.So(status, convey.ShouldEqual, subcommands.ExitSuccess)

			var got struct {
				Model struct {
					Slope     float64 `json:"slope"`
					Intercept float64 `json:"intercept"`
				} `json:"model"`
				Forecast []struct {
					Date  string  `json:"date"`
					Value float64 `json:"value"`
				} `json:"forecast"`
			}
			convey.So(json.Unmarshal(out.Bytes(), &got), convey.ShouldBeNil)

			convey.Convey("Then the line through both days should be extended", func() {
				convey.So(got.Model.Slope, convey.ShouldAlmostEqual, 100, 1e-9)
				convey.So(got.Model.Intercept, convey.ShouldAlmostEqual, 100, 1e-9)
				convey.So(got.Forecast, convey.ShouldHaveLength, 1)
				convey.So(got.Forecast[0].Date, convey.ShouldEqual, "2024-01-03")
				convey.So(got.Forecast[0].Value, convey.ShouldAlmostEqual, 300, 1e-9)
			})
		})

		convey.Convey("When the horizon is not positive", func() {
			status := execute(&forecastCmd{out: &out}, "-h", "0", path)

			convey.Convey("Then it should be a usage error", func() {
				convey.So(status, convey.ShouldEqual, subcommands.ExitUsageError)
			})
		})
	})
}

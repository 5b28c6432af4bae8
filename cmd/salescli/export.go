package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/subcommands"

	"github.com/okian/insights/internal/domain/pipeline"
	"github.com/okian/insights/internal/domain/types"
)

// exportCmd holds the flags for the 'export' subcommand.
type exportCmd struct {
	pipelineFlags
	dir   string
	table string
	out   io.Writer
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write the derived tables of a sales file as CSV" }
func (*exportCmd) Usage() string {
	return `salescli export [-h days] [-dir <dir>] [-table <name>] <file.csv|file.xlsx>

  Writes daily_sales.csv, product_pivot.csv and combined.csv into -dir.
  With -table, writes only that table to standard output.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	c.pipelineFlags.SetFlags(f)
	f.StringVar(&c.dir, "dir", ".", "output directory")
	f.StringVar(&c.table, "table", "", "write one table (daily_sales, product_pivot, forecast, combined, preview) to stdout")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	res, _, status := c.run(ctx, f)
	if status != subcommands.ExitSuccess {
		return status
	}

	if c.table != "" {
		t, ok := tableByName(res, c.table)
		if !ok {
			fmt.Fprintf(errOut, "Error: unknown table %q\n", c.table)
			return subcommands.ExitUsageError
		}
		if err := t.WriteCSV(c.out); err != nil {
			fmt.Fprintln(errOut, "Error:", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		fmt.Fprintln(errOut, "Error:", err)
		return subcommands.ExitFailure
	}
	for _, t := range res.Tables() {
		path := filepath.Join(c.dir, t.Name+".csv")
		if err := writeTableFile(path, t); err != nil {
			fmt.Fprintln(errOut, "Error:", err)
			return subcommands.ExitFailure
		}
		fmt.Fprintln(c.out, path)
	}
	return subcommands.ExitSuccess
}

func writeTableFile(path string, t types.Table) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return t.WriteCSV(f)
}

func tableByName(res *pipeline.Result, name string) (types.Table, bool) {
	switch name {
	case pipeline.TableDaily:
		return res.DailyTable(), true
	case pipeline.TablePivot:
		return res.PivotTable(), true
	case pipeline.TableForecast:
		return res.ForecastTable(), true
	case pipeline.TableCombined:
		return res.CombinedTable(), true
	case pipeline.TablePreview:
		return res.PreviewTable(), true
	default:
		return types.Table{}, false
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"

	"github.com/okian/insights/internal/domain/pipeline"
	"github.com/okian/insights/internal/domain/types"
)

// reportCmd holds the flags for the 'report' subcommand.
type reportCmd struct {
	pipelineFlags
	plain bool
	out   io.Writer
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "print the cleaned data, trends and forecast of a sales file" }
func (*reportCmd) Usage() string {
	return `salescli report [-h days] [-preview n] [-plain] <file.csv|file.xlsx>

  Runs the pipeline and prints a markdown report: data preview, data quality
  notes, daily sales, sales by product and the forecast.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	c.pipelineFlags.SetFlags(f)
	f.BoolVar(&c.plain, "plain", false, "print raw markdown instead of rendering it")
}

func (c *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	res, file, status := c.run(ctx, f)
	if status != subcommands.ExitSuccess {
		return status
	}
	printMarkdown(c.out, reportMarkdown(filepath.Base(file), res), c.plain)
	return subcommands.ExitSuccess
}

func reportMarkdown(name string, res *pipeline.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Sales report: %s\n\n", name)

	b.WriteString("## Data preview\n\n")
	b.WriteString(res.PreviewTable().Markdown())

	b.WriteString("\n## Data quality\n\n")
	if res.Report.Clean() {
		b.WriteString("No issues found.\n")
	}
	for _, line := range res.Report.Summary() {
		b.WriteString("- " + line + "\n")
	}
	for _, w := range res.Report.Warnings {
		b.WriteString("- " + w + "\n")
	}
	if res.Report.WarningsOmitted > 0 {
		fmt.Fprintf(&b, "- … and %d more\n", res.Report.WarningsOmitted)
	}

	section(&b, "Daily sales trend", res.DailyTable())
	section(&b, "Sales by product", res.PivotTable())

	m := res.Model
	fmt.Fprintf(&b, "\n## Sales forecast (next %d days)\n\n", len(res.Forecast))
	if m.Degenerate {
		b.WriteString("Only one day of history; the forecast repeats its total.\n\n")
	} else {
		fmt.Fprintf(&b, "Trend: %+.2f per day over %d days.\n\n", m.Slope, m.Points)
	}
	b.WriteString(res.ForecastTable().Markdown())
	return b.String()
}

func section(b *strings.Builder, title string, t types.Table) {
	fmt.Fprintf(b, "\n## %s\n\n", title)
	b.WriteString(t.Markdown())
}

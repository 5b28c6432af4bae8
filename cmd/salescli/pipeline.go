package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"github.com/okian/insights/internal/adapters/ingest"
	"github.com/okian/insights/internal/config"
	"github.com/okian/insights/internal/domain/cleaning"
	"github.com/okian/insights/internal/domain/forecast"
	"github.com/okian/insights/internal/domain/pipeline"
	"github.com/okian/insights/pkg/logger"
)

const wordWrap = 100

// pipelineFlags are shared by every command that runs the pipeline.
type pipelineFlags struct {
	horizon     int
	preview     int
	maxWarnings int
}

func (p *pipelineFlags) SetFlags(f *flag.FlagSet) {
	defaults := config.New()
	f.IntVar(&p.horizon, "h", defaults.ForecastHorizon, "number of days to forecast")
	f.IntVar(&p.preview, "preview", defaults.PreviewRows, "number of cleaned rows to preview")
	f.IntVar(&p.maxWarnings, "warnings", defaults.MaxWarnings, "maximum data-quality warnings to keep")
}

// run loads the single file argument and processes it.
func (p *pipelineFlags) run(ctx context.Context, f *flag.FlagSet) (*pipeline.Result, string, subcommands.ExitStatus) {
	if f.NArg() != 1 {
		return nil, "", subcommands.ExitUsageError
	}
	if p.horizon < 1 {
		return nil, "", subcommands.ExitUsageError
	}
	file := f.Arg(0)
	l := logger.Named("salescli")
	pipe := pipeline.New(
		pipeline.WithCleaner(cleaning.New(cleaning.WithMaxWarnings(p.maxWarnings), cleaning.WithLogger(l))),
		pipeline.WithForecaster(forecast.New(forecast.WithHorizon(p.horizon), forecast.WithLogger(l))),
		pipeline.WithPreviewRows(p.preview),
		pipeline.WithLogger(l),
	)
	res, err := pipe.Run(ctx, ingest.File(file))
	if err != nil {
		var perr *pipeline.Error
		if errors.As(err, &perr) {
			fmt.Fprintln(errOut, perr.Message())
		} else {
			fmt.Fprintln(errOut, "Error:", err)
		}
		return nil, file, subcommands.ExitFailure
	}
	return res, file, subcommands.ExitSuccess
}

// errOut receives user facing errors.
var errOut io.Writer = os.Stderr //nolint:gochecknoglobals // replaced in tests

// printMarkdown renders md for the terminal, or writes it as is when plain
// is set or rendering fails.
func printMarkdown(w io.Writer, md string, plain bool) {
	if !plain {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(wordWrap))
		if err == nil {
			if out, err := r.Render(md); err == nil {
				fmt.Fprint(w, out)
				return
			}
		}
	}
	fmt.Fprint(w, md)
}

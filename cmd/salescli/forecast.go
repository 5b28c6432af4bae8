package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/google/subcommands"

	"github.com/okian/insights/internal/domain/forecast"
	"github.com/okian/insights/internal/domain/model"
)

// forecastCmd holds the flags for the 'forecast' subcommand.
type forecastCmd struct {
	pipelineFlags
	json bool
	out  io.Writer
}

type forecastOutput struct {
	Model    forecast.Model        `json:"model"`
	Forecast []model.ForecastPoint `json:"forecast"`
}

func (*forecastCmd) Name() string     { return "forecast" }
func (*forecastCmd) Synopsis() string { return "print the fitted trend and forecast of a sales file" }
func (*forecastCmd) Usage() string {
	return `salescli forecast [-h days] [-json] <file.csv|file.xlsx>
`
}

func (c *forecastCmd) SetFlags(f *flag.FlagSet) {
	c.pipelineFlags.SetFlags(f)
	f.BoolVar(&c.json, "json", false, "print JSON instead of CSV")
}

func (c *forecastCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	res, _, status := c.run(ctx, f)
	if status != subcommands.ExitSuccess {
		return status
	}
	if c.json {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(forecastOutput{Model: res.Model, Forecast: res.Forecast}); err != nil {
			fmt.Fprintln(errOut, "Error:", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	if err := res.ForecastTable().WriteCSV(c.out); err != nil {
		fmt.Fprintln(errOut, "Error:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

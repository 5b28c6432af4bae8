// Command salescli runs the sales pipeline over local files.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"github.com/okian/insights/pkg/logger"
	"github.com/okian/insights/pkg/metrics"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	for _, c := range commands() {
		commander.Register(c, "pipeline")
	}

	verbose := flag.Bool("v", false, "log pipeline stages to stderr")
	flag.Parse()

	if err := logger.InitWith(os.Stderr, logger.FormatText); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	} else {
		_ = logger.SetLevelString("error")
	}

	// Nothing scrapes a one-shot run.
	metrics.SetEnabled(false)

	os.Exit(int(commander.Execute(context.Background())))
}

func commands() []subcommands.Command {
	return []subcommands.Command{
		&reportCmd{out: os.Stdout},
		&exportCmd{out: os.Stdout},
		&forecastCmd{out: os.Stdout},
	}
}

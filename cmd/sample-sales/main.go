package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/insights/internal/samplesales"
)

const defaultRunTimeout = 10 * time.Minute

func main() {
	os.Exit(run())
}

func run() int {
	var (
		baseURL   = flag.String("url", "http://localhost:9080", "Base URL of the service")
		owners    = flag.Int("owners", samplesales.DefaultOwners, "Number of business owners")
		days      = flag.Int("days", samplesales.DefaultDays, "Days of sales history per owner")
		products  = flag.Int("products", samplesales.DefaultProducts, "Products per owner")
		horizon   = flag.Int("horizon", samplesales.DefaultHorizon, "Forecast horizon the service runs with")
		messiness = flag.Float64("messiness", samplesales.DefaultMessiness, "Share of rows damaged on purpose")
		seed      = flag.Uint64("seed", 0, "Generator seed, 0 for random")
		workers   = flag.Int("workers", samplesales.DefaultWorkers, "Concurrent uploads")
		timeout   = flag.Duration("timeout", samplesales.DefaultTimeout, "HTTP request timeout")
		outputDir = flag.String("out", "", "Directory to save the generated exports to")
		noUpload  = flag.Bool("no-upload", false, "Only generate and save the exports")
		logFile   = flag.String("log", "", "Also write logs to this file")
		verbose   = flag.Bool("verbose", false, "Enable verbose logging")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		samplesales.ShowHelp(os.Stdout)
		return 0
	}

	closer, err := samplesales.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return 1
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	config := &samplesales.Config{
		BaseURL:   *baseURL,
		Owners:    *owners,
		Days:      *days,
		Products:  *products,
		Horizon:   *horizon,
		Messiness: *messiness,
		Seed:      *seed,
		Workers:   *workers,
		Timeout:   *timeout,
		OutputDir: *outputDir,
		NoUpload:  *noUpload,
		Verbose:   *verbose,
	}

	if _, err := samplesales.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Sample run failed: " + err.Error() + "\n")
		return 1
	}
	return 0
}

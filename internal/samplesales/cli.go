package samplesales

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/insights/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging sends logs to stderr and, when logFile is set, to that file too.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	var (
		w      io.Writer = os.Stderr
		closer io.Closer = io.NopCloser(nil)
	)
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, file)
		closer = file
	}

	if err := logger.InitWith(w, logger.FormatText); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	level := "info"
	if verbose {
		level = "debug"
	}
	if err := logger.SetLevelString(level); err != nil {
		return nil, err
	}
	return closer, nil
}

// ShowHelp prints usage information for the sample sales tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Insights Sample Sales Tool
==========================

Generates messy point-of-sale exports, uploads them for a set of freshly
signed-up business owners and checks the cleaned history and forecast.

Usage:
  sample-sales [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -owners int
        Number of business owners (default 5)
  -days int
        Days of sales history per owner (default 30)
  -products int
        Products per owner (default 3)
  -horizon int
        Forecast horizon the service runs with (default 7)
  -messiness float
        Share of rows damaged on purpose (default 0.1)
  -seed uint
        Generator seed, 0 for random
  -workers int
        Concurrent uploads (default 4)
  -timeout duration
        HTTP request timeout (default 30s)
  -out string
        Directory to save the generated exports to
  -no-upload
        Only generate and save the exports
  -log string
        Also write logs to this file
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Upload to a local server
  sample-sales

  # Write reproducible exports without uploading
  sample-sales -no-upload -seed 42 -out ./samples
`)
}

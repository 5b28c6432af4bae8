package samplesales

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/insights/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run executes the complete sample run: generate, save, upload and verify.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	applyDefaults(config)
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting sample sales run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("owners", config.Owners),
		logger.Int("days", config.Days),
		logger.Int("workers", config.Workers),
		logger.Float64("messiness", config.Messiness),
		logger.Duration("timeout", config.Timeout),
		logger.Bool("upload", !config.NoUpload))

	// Step 1: Generate exports
	exports, err := GenerateExports(ctx, config, stats)
	if err != nil {
		return stats, fmt.Errorf("export generation failed: %w", err)
	}

	// Step 2: Save exports
	if config.OutputDir != "" {
		if err := saveExports(ctx, config.OutputDir, exports); err != nil {
			return stats, fmt.Errorf("saving exports failed: %w", err)
		}
	}

	if !config.NoUpload {
		// Step 3: Check service health
		if err := checkServiceHealth(ctx, config); err != nil {
			return stats, fmt.Errorf("service health check failed: %w", err)
		}

		// Step 4: Upload concurrently
		outcomes := submitExports(ctx, config, exports, stats)

		// Step 5: Verify results
		if err := verifyResults(ctx, config, outcomes, stats); err != nil {
			finish(stats)
			displayFinalStats(ctx, stats)
			return stats, fmt.Errorf("result verification failed: %w", err)
		}
	}

	finish(stats)
	displayFinalStats(ctx, stats)

	logger.Get().Info(ctx, "sample run completed successfully")
	return stats, nil
}

func applyDefaults(config *Config) {
	if config.Owners <= 0 {
		config.Owners = DefaultOwners
	}
	if config.Days <= 0 {
		config.Days = DefaultDays
	}
	if config.Products <= 0 {
		config.Products = DefaultProducts
	}
	if config.Horizon <= 0 {
		config.Horizon = DefaultHorizon
	}
	if config.Messiness < 0 {
		config.Messiness = 0
	}
	if config.Messiness > 1 {
		config.Messiness = 1
	}
	if config.Workers <= 0 {
		config.Workers = DefaultWorkers
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
}

func finish(stats *Stats) {
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.BaseURL, config.Timeout)
	resp, err := client.Get(ctx, "/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if _, err := readResponseBody(resp); err != nil {
		return err
	}

	// Any 200 counts; the endpoint serves Prometheus metrics.
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveExports writes every export under dir.
func saveExports(ctx context.Context, dir string, exports []Export) error {
	if err := os.MkdirAll(dir, directoryPermission); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	for _, e := range exports {
		path := filepath.Join(dir, e.Name)
		if err := os.WriteFile(path, e.Data, filePermission); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	logger.Get().Info(ctx, "exports saved", logger.String("dir", dir), logger.Int("count", len(exports)))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, uploadsPerSecond float64

	if stats.UploadsSubmitted > 0 {
		successRate = float64(stats.UploadsOK) / float64(stats.UploadsSubmitted) * percentageMultiplier
	}
	if stats.Duration > 0 {
		uploadsPerSecond = float64(stats.UploadsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("exportsGenerated", stats.ExportsGenerated),
		logger.Int("rowsGenerated", stats.RowsGenerated),
		logger.Int("rowsDamaged", stats.RowsDamaged),
		logger.Int("uploadsSubmitted", stats.UploadsSubmitted),
		logger.Int("uploadsOK", stats.UploadsOK),
		logger.Int("uploadsRejected", stats.UploadsRejected),
		logger.Int("uploadsFailed", stats.UploadsFailed),
		logger.Int("verified", stats.Verified),
		logger.Int("mismatches", stats.Mismatches),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("uploadsPerSecond", uploadsPerSecond))
}

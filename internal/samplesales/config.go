package samplesales

import (
	"time"

	"github.com/okian/insights/internal/domain/model"
)

// Config holds configuration for a sample upload run
type Config struct {
	BaseURL   string        // Base URL of the service
	Owners    int           // Number of business owners to sign up
	Days      int           // Days of sales history per owner
	Products  int           // Products sold per owner
	Horizon   int           // Forecast horizon the service is configured with
	Messiness float64       // Share of rows damaged on purpose, 0..1
	Seed      uint64        // Generator seed; 0 picks a random one
	Workers   int           // Number of concurrent uploads
	Timeout   time.Duration // HTTP request timeout
	OutputDir string        // Directory the generated exports are saved to
	NoUpload  bool          // Only generate and save the exports
	Verbose   bool          // Enable verbose logging
}

// Export is one generated sales export and what the service should make of it.
type Export struct {
	Owner    string
	Password string
	Business string
	Name     string
	Data     []byte

	// Expected results after cleaning.
	Rows       int
	Damaged    int
	FirstDay   model.Date
	LastDay    model.Date
	Days       int
	TotalSales float64
}

// UploadResponse is the part of an upload response the run verifies.
type UploadResponse struct {
	BusinessName string `json:"business_name"`
	Format       string `json:"format"`
	Report       struct {
		RowsIn  int `json:"rows_in"`
		RowsOut int `json:"rows_out"`
	} `json:"report"`
	Model struct {
		Slope      float64 `json:"slope"`
		Intercept  float64 `json:"intercept"`
		Degenerate bool    `json:"degenerate"`
	} `json:"model"`
	Daily    Table `json:"daily"`
	Combined Table `json:"combined"`
}

// Table mirrors the service's tabular output.
type Table struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// ErrorResponse is the body of a failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Stats holds run statistics
type Stats struct {
	ExportsGenerated int
	RowsGenerated    int
	RowsDamaged      int
	UploadsSubmitted int
	UploadsOK        int
	UploadsRejected  int
	UploadsFailed    int
	Verified         int
	Mismatches       int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}

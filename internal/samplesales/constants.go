package samplesales

import "time"

// Defaults used when a Config field is left zero.
const (
	DefaultOwners    = 5
	DefaultDays      = 30
	DefaultProducts  = 3
	DefaultHorizon   = 7
	DefaultMessiness = 0.1
	DefaultWorkers   = 4
	DefaultTimeout   = 30 * time.Second
)

const (
	samplePassword       = "sample-password"
	percentageMultiplier = 100
	floatTolerance       = 1e-6
)

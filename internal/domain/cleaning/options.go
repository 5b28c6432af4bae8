// Package cleaning turns a normalized dataset into one the aggregator can trust.
package cleaning

import "github.com/okian/insights/pkg/logger"

// Default cleaner configuration constants.
const (
	defaultMaxWarnings = 20
)

// Option applies a configuration option to the Cleaner.
type Option func(*Cleaner)

// WithDateLayouts restricts date parsing to the given time.Parse layouts.
func WithDateLayouts(layouts ...string) Option {
	return func(c *Cleaner) {
		if len(layouts) > 0 {
			c.layouts = append([]string(nil), layouts...)
		}
	}
}

// WithMaxWarnings bounds the number of warning lines kept in a Report.
// Zero keeps counts only.
func WithMaxWarnings(n int) Option {
	return func(c *Cleaner) {
		if n >= 0 {
			c.maxWarnings = n
		}
	}
}

// WithLogger sets the logger used for data-quality notes.
func WithLogger(l logger.Logger) Option {
	return func(c *Cleaner) {
		if l != nil {
			c.logger = l
		}
	}
}

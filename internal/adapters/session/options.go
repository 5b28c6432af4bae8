package session

import (
	"time"

	"github.com/okian/insights/pkg/logger"
)

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithTTL sets the session lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithJanitorInterval sets how often Run sweeps expired sessions.
func WithJanitorInterval(interval time.Duration) Option {
	return func(m *Manager) {
		if interval > 0 {
			m.janitorInterval = interval
		}
	}
}

// WithClock overrides time.Now for session expiry.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets the logger used by the Manager.
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

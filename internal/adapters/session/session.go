// Package session keeps login sessions and issues signed bearer tokens for them.
// A session is created at login and destroyed at logout or when its TTL passes.
package session

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/okian/insights/internal/domain/account"
	"github.com/okian/insights/pkg/logger"
	"github.com/okian/insights/pkg/metrics"
)

// Default session configuration constants.
const (
	defaultTTL             = time.Hour
	defaultJanitorInterval = time.Minute
	generatedSecretBytes   = 32
	issuer                 = "insights"
)

// Session is the per-login state handed to request handlers.
type Session struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	BusinessName string    `json:"business_name"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether s is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Manager stores sessions in memory and signs their tokens with HS256.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]Session

	secret          []byte
	ttl             time.Duration
	janitorInterval time.Duration
	now             func() time.Time
	logger          logger.Logger
}

// NewManager creates a Manager. An empty secret is replaced with random
// bytes, which invalidates tokens across restarts.
func NewManager(secret []byte, opts ...Option) (*Manager, error) {
	m := &Manager{
		sessions:        make(map[uuid.UUID]Session),
		ttl:             defaultTTL,
		janitorInterval: defaultJanitorInterval,
		now:             time.Now,
		logger:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if len(secret) == 0 {
		secret = make([]byte, generatedSecretBytes)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
	}
	m.secret = secret
	return m, nil
}

// Create opens a session for a and returns it with its bearer token.
func (m *Manager) Create(ctx context.Context, a account.Account) (Session, string, error) {
	now := m.now()
	s := Session{
		ID:           uuid.New(),
		Username:     a.Username,
		BusinessName: a.BusinessName,
		CreatedAt:    now,
		ExpiresAt:    now.Add(m.ttl),
	}
	claims := jwt.RegisteredClaims{
		ID:        s.ID.String(),
		Subject:   s.Username,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(s.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return Session{}, "", fmt.Errorf("sign session token: %w", err)
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	n := len(m.sessions)
	m.mu.Unlock()

	metrics.UpdateSessionsActive(n)
	m.logger.Info(ctx, "session created", logger.String("username", s.Username), logger.String("session_id", s.ID.String()))
	return s, token, nil
}

// Resolve verifies token and returns its live session.
func (m *Manager) Resolve(_ context.Context, token string) (Session, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, ErrExpired
		}
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	id, err := uuid.Parse(claims.ID)
	if err != nil {
		return Session{}, fmt.Errorf("%w: bad session id", ErrInvalidToken)
	}

	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return Session{}, ErrNotFound
	}
	if s.Expired(m.now()) {
		m.Destroy(context.Background(), id)
		return Session{}, ErrExpired
	}
	return s, nil
}

// Destroy ends the session. It reports whether the session existed.
func (m *Manager) Destroy(ctx context.Context, id uuid.UUID) bool {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()

	if ok {
		metrics.UpdateSessionsActive(n)
		m.logger.Debug(ctx, "session destroyed", logger.String("session_id", id.String()))
	}
	return ok
}

// Count returns the number of stored sessions, expired ones included until swept.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes expired sessions and returns how many were removed.
func (m *Manager) Sweep() int {
	now := m.now()
	m.mu.Lock()
	removed := 0
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	metrics.UpdateSessionsActive(n)
	return removed
}

// Run sweeps expired sessions periodically until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Debug(ctx, "expired sessions swept", logger.Int("count", n))
			}
		}
	}
}

// TTL returns the session lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }

type ctxKey struct{}

// NewContext returns ctx carrying s.
func NewContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session carried by ctx.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}

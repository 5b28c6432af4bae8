// Package account manages business accounts: signup and credential checks.
// It is independent of the sales pipeline.
package account

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/okian/insights/pkg/logger"
	"github.com/okian/insights/pkg/metrics"
)

// Account is a registered business owner.
type Account struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	BusinessName string    `json:"business_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store persists accounts. Implementations must be safe for concurrent use.
type Store interface {
	// Find returns the account for username or ErrNotFound.
	Find(ctx context.Context, username string) (Account, error)
	// Create stores a new account or returns ErrExists.
	Create(ctx context.Context, a Account) error
	// Count returns the number of stored accounts.
	Count(ctx context.Context) (int, error)
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithBcryptCost sets the bcrypt cost used for new passwords.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.cost = cost
		}
	}
}

// WithLogger sets the logger used by the Service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service implements signup and login on top of a Store.
type Service struct {
	store  Store
	cost   int
	logger logger.Logger
	now    func() time.Time
}

// NewService creates a Service backed by store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		cost:   bcrypt.DefaultCost,
		logger: logger.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signup trims every field, hashes the password and creates the account.
// It returns ErrMissingFields when any field is blank and ErrExists when the
// username is taken.
func (s *Service) Signup(ctx context.Context, username, password, businessName string) (Account, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	businessName = strings.TrimSpace(businessName)
	if username == "" || password == "" || businessName == "" {
		return Account{}, ErrMissingFields
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return Account{}, fmt.Errorf("hash password: %w", err)
	}
	a := Account{
		Username:     username,
		PasswordHash: string(hash),
		BusinessName: businessName,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Create(ctx, a); err != nil {
		if !errors.Is(err, ErrExists) {
			s.logger.Error(ctx, "account store create failed", logger.String("username", username), logger.Error(err))
		}
		return Account{}, err
	}
	metrics.RecordAccountCreated()
	s.logger.Info(ctx, "account created", logger.String("username", username))
	return a, nil
}

// Login checks credentials. Unknown users and wrong passwords both yield
// ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (Account, error) {
	a, err := s.store.Find(ctx, username)
	if errors.Is(err, ErrNotFound) {
		metrics.RecordLoginFailure()
		return Account{}, ErrInvalidCredentials
	}
	if err != nil {
		return Account{}, fmt.Errorf("find account: %w", err)
	}
	if !checkPassword(a.PasswordHash, password) {
		metrics.RecordLoginFailure()
		s.logger.Debug(ctx, "login rejected", logger.String("username", username))
		return Account{}, ErrInvalidCredentials
	}
	return a, nil
}

// Find returns the account for username.
func (s *Service) Find(ctx context.Context, username string) (Account, error) {
	return s.store.Find(ctx, username)
}

// Count returns the number of accounts.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// checkPassword accepts bcrypt hashes and, for users files written before
// hashing was introduced, plain text.
func checkPassword(stored, password string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return stored != "" && subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}

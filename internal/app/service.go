// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/okian/insights/internal/adapters/mq/queue"
	"github.com/okian/insights/internal/adapters/mq/worker"
	"github.com/okian/insights/internal/adapters/repository"
	"github.com/okian/insights/internal/adapters/session"
	"github.com/okian/insights/internal/config"
	"github.com/okian/insights/internal/domain/account"
	"github.com/okian/insights/internal/domain/cleaning"
	"github.com/okian/insights/internal/domain/forecast"
	"github.com/okian/insights/internal/domain/pipeline"
	"github.com/okian/insights/pkg/logger"
	"github.com/okian/insights/pkg/metrics"
)

// Service implements the API dependencies for the insights system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    account.Store
	accounts *account.Service
	sessions *session.Manager
	pipeline *pipeline.Pipeline
	jobs     *queue.InMemoryQueue
	pool     *worker.Pool

	// Configuration
	storeKind   string
	userFile    string
	databaseURL string
	sessionTTL  time.Duration
	jwtSecret   []byte
	horizon     int
	previewRows int
	maxWarnings int
	bcryptCost  int
	workers     int
	queueCap    int

	// State
	started     bool
	ownsStore   bool
	startedAt   time.Time
	cancel      context.CancelFunc
	janitorDone chan struct{}
	uploads     atomic.Int64
	failures    atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithUserStore selects the account backend by name: memory, file or postgres.
func WithUserStore(kind string) Option {
	return func(s *Service) {
		if kind != "" {
			s.storeKind = kind
		}
	}
}

// WithUserFile sets the users file of the file store.
func WithUserFile(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.userFile = path
		}
	}
}

// WithDatabaseURL sets the DSN of the postgres store.
func WithDatabaseURL(dsn string) Option {
	return func(s *Service) {
		s.databaseURL = dsn
	}
}

// WithAccountStore injects a ready account store, bypassing WithUserStore.
func WithAccountStore(store account.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithSessionTTL sets the login session lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithJWTSecret sets the key signing session tokens.
func WithJWTSecret(secret string) Option {
	return func(s *Service) {
		s.jwtSecret = []byte(secret)
	}
}

// WithForecastHorizon sets the number of forecast days.
func WithForecastHorizon(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.horizon = days
		}
	}
}

// WithPreviewRows sets how many cleaned records an upload echoes back.
func WithPreviewRows(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.previewRows = n
		}
	}
}

// WithMaxWarnings bounds the data-quality warnings kept per upload.
func WithMaxWarnings(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxWarnings = n
		}
	}
}

// WithWorkers sets how many pipeline runs execute at once. Zero uses one per CPU.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.workers = n
		}
	}
}

// WithQueueCapacity sets how many uploads may wait for a free worker.
func WithQueueCapacity(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.queueCap = n
		}
	}
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

// OptionsFromConfig maps a loaded configuration to service options.
func OptionsFromConfig(cfg *config.Config) []Option {
	return []Option{
		WithUserStore(cfg.UserStore),
		WithUserFile(cfg.UserFile),
		WithDatabaseURL(cfg.DatabaseURL),
		WithSessionTTL(cfg.SessionTTL()),
		WithJWTSecret(cfg.JWTSecret),
		WithForecastHorizon(cfg.ForecastHorizon),
		WithPreviewRows(cfg.PreviewRows),
		WithMaxWarnings(cfg.MaxWarnings),
		WithWorkers(cfg.Workers),
		WithQueueCapacity(cfg.QueueCapacity),
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		storeKind:   config.StoreMemory,
		sessionTTL:  time.Hour,
		horizon:     forecast.DefaultHorizon,
		previewRows: 5,
		maxWarnings: 20,
		bcryptCost:  bcrypt.DefaultCost,
		workers:     4,
		queueCap:    64,
		logger:      nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting insights service...")

	if s.store == nil {
		store, err := s.openStore(ctx)
		if err != nil {
			return err
		}
		s.store = store
		s.ownsStore = true
	}
	s.accounts = account.NewService(s.store,
		account.WithBcryptCost(s.bcryptCost),
		account.WithLogger(s.logger.Named("account")),
	)

	sessions, err := session.NewManager(s.jwtSecret,
		session.WithTTL(s.sessionTTL),
		session.WithLogger(s.logger.Named("session")),
	)
	if err != nil {
		s.closeStore()
		return fmt.Errorf("start sessions: %w", err)
	}
	if len(s.jwtSecret) == 0 {
		s.logger.Warn(ctx, "no jwt_secret configured; sessions will not survive a restart")
	}
	s.sessions = sessions

	pipeLogger := s.logger.Named("pipeline")
	s.pipeline = pipeline.New(
		pipeline.WithCleaner(cleaning.New(
			cleaning.WithMaxWarnings(s.maxWarnings),
			cleaning.WithLogger(pipeLogger),
		)),
		pipeline.WithForecaster(forecast.New(
			forecast.WithHorizon(s.horizon),
			forecast.WithLogger(pipeLogger),
		)),
		pipeline.WithPreviewRows(s.previewRows),
		pipeline.WithLogger(pipeLogger),
	)

	s.jobs = queue.NewInMemoryQueue(queue.WithCapacity(s.queueCap))
	s.pool = worker.NewPool(s.workers, s.jobs, s.pipeline, worker.WithLogger(s.logger.Named("worker")))
	s.pool.Start(ctx)

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.janitorDone = make(chan struct{})
	go func() {
		defer close(s.janitorDone)
		s.sessions.Run(runCtx)
	}()

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "insights service started",
		logger.String("userStore", s.storeKind),
		logger.Int("forecastHorizon", s.horizon),
		logger.Duration("sessionTTL", s.sessionTTL),
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueCapacity", s.queueCap),
	)

	return nil
}

func (s *Service) openStore(ctx context.Context) (account.Store, error) {
	switch s.storeKind {
	case config.StoreMemory:
		s.logger.Info(ctx, "using memory user store")
		return repository.NewMemoryStore(), nil
	case config.StoreFile:
		s.logger.Info(ctx, "using file user store", logger.String("path", s.userFile))
		store, err := repository.NewFileStore(s.userFile)
		if err != nil {
			return nil, fmt.Errorf("open user file: %w", err)
		}
		return store, nil
	case config.StorePostgres:
		s.logger.Info(ctx, "using postgres user store")
		store, err := repository.NewPostgresStore(ctx, s.databaseURL)
		if err != nil {
			return nil, fmt.Errorf("open user database: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, s.storeKind)
	}
}

func (s *Service) closeStore() {
	if closer, ok := s.store.(repository.Closer); ok {
		closer.Close()
	}
	if s.ownsStore {
		s.store = nil
		s.ownsStore = false
	}
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping insights service...")

	if err := s.pool.Shutdown(context.Background()); err != nil {
		s.logger.Warn(context.Background(), "worker pool shutdown incomplete", logger.Error(err))
	}
	s.cancel()
	<-s.janitorDone
	s.closeStore()

	s.started = false
	s.logger.Info(context.Background(), "insights service stopped")
}

// components returns the running components or ErrNotStarted.
func (s *Service) components() (*account.Service, *session.Manager, *worker.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, nil, ErrNotStarted
	}
	return s.accounts, s.sessions, s.pool, nil
}

// Signup registers a new business owner.
func (s *Service) Signup(ctx context.Context, username, password, businessName string) (account.Account, error) {
	accounts, _, _, err := s.components()
	if err != nil {
		return account.Account{}, err
	}
	return accounts.Signup(ctx, username, password, businessName)
}

// Login checks credentials.
func (s *Service) Login(ctx context.Context, username, password string) (account.Account, error) {
	accounts, _, _, err := s.components()
	if err != nil {
		return account.Account{}, err
	}
	return accounts.Login(ctx, username, password)
}

// OpenSession starts a session for an authenticated account.
func (s *Service) OpenSession(ctx context.Context, a account.Account) (session.Session, string, error) {
	_, sessions, _, err := s.components()
	if err != nil {
		return session.Session{}, "", err
	}
	return sessions.Create(ctx, a)
}

// ResolveSession returns the live session behind token.
func (s *Service) ResolveSession(ctx context.Context, token string) (session.Session, error) {
	_, sessions, _, err := s.components()
	if err != nil {
		return session.Session{}, err
	}
	return sessions.Resolve(ctx, token)
}

// CloseSession ends a session.
func (s *Service) CloseSession(ctx context.Context, id uuid.UUID) bool {
	_, sessions, _, err := s.components()
	if err != nil {
		return false
	}
	return sessions.Destroy(ctx, id)
}

// Process runs the sales pipeline over one upload on the worker pool.
// It returns queue.ErrFull when every worker is busy and the queue is full.
func (s *Service) Process(ctx context.Context, in pipeline.Loader) (*pipeline.Result, error) {
	_, _, pool, err := s.components()
	if err != nil {
		return nil, err
	}
	s.uploads.Add(1)
	res, err := pool.Submit(ctx, in)
	if err != nil {
		s.failures.Add(1)
		return nil, err
	}
	return res, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":         s.started,
		"userStore":       s.storeKind,
		"forecastHorizon": s.horizon,
		"uploads":         s.uploads.Load(),
		"failedUploads":   s.failures.Load(),
	}

	if s.started {
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
		activeSessions := s.sessions.Count()
		stats["activeSessions"] = activeSessions
		metrics.UpdateSessionsActive(activeSessions)
		stats["workers"] = s.pool.Size()
		stats["busyWorkers"] = s.pool.Busy()
		stats["queuedUploads"] = s.jobs.Len(ctx)

		if n, err := s.store.Count(ctx); err == nil {
			stats["accounts"] = n
		} else {
			s.logger.Warn(ctx, "count accounts failed", logger.Error(err))
		}
	}

	return stats
}

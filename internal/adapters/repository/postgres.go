package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/okian/insights/internal/domain/account"
)

// PostgresStore keeps accounts in a Postgres table.
type PostgresStore struct {
	pool     *pgxpool.Pool
	table    string
	maxConns int32
}

// NewPostgresStore connects to dsn, pings the server and creates the
// accounts table when missing.
func NewPostgresStore(ctx context.Context, dsn string, opts ...Option) (*PostgresStore, error) {
	s := &PostgresStore{table: defaultTable, maxConns: defaultMaxConns}
	for _, opt := range opts {
		opt(s)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDSN, err)
	}
	cfg.MaxConns = s.maxConns

	pool, err := pgxpool.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s.pool = pool

	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ident() string {
	return pgx.Identifier{s.table}.Sanitize()
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		username      TEXT PRIMARY KEY,
		password_hash TEXT NOT NULL,
		business_name TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, s.ident())
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create accounts table: %w", err)
	}
	return nil
}

// Find implements account.Store.
func (s *PostgresStore) Find(ctx context.Context, username string) (account.Account, error) {
	query := fmt.Sprintf(`SELECT username, password_hash, business_name, created_at FROM %s WHERE username = $1`, s.ident())
	var a account.Account
	err := s.pool.QueryRow(ctx, query, key(username)).Scan(&a.Username, &a.PasswordHash, &a.BusinessName, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return account.Account{}, account.ErrNotFound
	}
	if err != nil {
		return account.Account{}, fmt.Errorf("find account: %w", err)
	}
	return a, nil
}

// Create implements account.Store.
func (s *PostgresStore) Create(ctx context.Context, a account.Account) error {
	query := fmt.Sprintf(`INSERT INTO %s (username, password_hash, business_name, created_at)
		VALUES ($1, $2, $3, $4) ON CONFLICT (username) DO NOTHING`, s.ident())
	tag, err := s.pool.Exec(ctx, query, key(a.Username), a.PasswordHash, a.BusinessName, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return account.ErrExists
	}
	return nil
}

// Count implements account.Store.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, s.ident())).Scan(&n); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

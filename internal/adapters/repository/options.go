package repository

// Default Postgres store configuration constants.
const (
	defaultTable    = "accounts"
	defaultMaxConns = 4
)

// Option applies a configuration option to the PostgresStore.
type Option func(*PostgresStore)

// WithTable sets the accounts table name.
func WithTable(name string) Option {
	return func(s *PostgresStore) {
		if name != "" {
			s.table = name
		}
	}
}

// WithMaxConns bounds the connection pool size.
func WithMaxConns(n int32) Option {
	return func(s *PostgresStore) {
		if n > 0 {
			s.maxConns = n
		}
	}
}

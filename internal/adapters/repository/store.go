// Package repository provides account.Store implementations: in memory,
// a CSV users file and Postgres.
package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/okian/insights/internal/domain/account"
)

// Closer is implemented by stores holding external resources.
type Closer interface {
	Close()
}

// MemoryStore keeps accounts in a map. Useful for tests and demos.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]account.Account
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[string]account.Account)}
}

// Find implements account.Store.
func (s *MemoryStore) Find(_ context.Context, username string) (account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[key(username)]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	return a, nil
}

// Create implements account.Store.
func (s *MemoryStore) Create(_ context.Context, a account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(a.Username)
	if _, ok := s.accounts[k]; ok {
		return account.ErrExists
	}
	s.accounts[k] = a
	return nil
}

// Count implements account.Store.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts), nil
}

// key is the lookup form of a username. Surrounding whitespace is ignored;
// case is significant.
func key(username string) string {
	return strings.TrimSpace(username)
}

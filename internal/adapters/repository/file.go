package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/okian/insights/internal/domain/account"
)

// usersHeader is the header of the users file.
var usersHeader = []string{"username", "password", "business_name"} //nolint:gochecknoglobals // read-only

// FileStore keeps accounts in a CSV users file with the columns
// username, password, business_name. The password column holds a bcrypt hash.
// The whole file is rewritten on every signup.
type FileStore struct {
	mu       sync.RWMutex
	path     string
	order    []string
	accounts map[string]account.Account
}

// NewFileStore opens path, creating it with a header when it does not exist.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, accounts: make(map[string]account.Account)}
	if err := s.load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		if err := s.flush(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Find implements account.Store.
func (s *FileStore) Find(_ context.Context, username string) (account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[key(username)]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	return a, nil
}

// Create implements account.Store.
func (s *FileStore) Create(_ context.Context, a account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(a.Username)
	if _, ok := s.accounts[k]; ok {
		return account.ErrExists
	}
	s.accounts[k] = a
	s.order = append(s.order, k)
	if err := s.flush(); err != nil {
		delete(s.accounts, k)
		s.order = s.order[:len(s.order)-1]
		return err
	}
	return nil
}

// Count implements account.Store.
func (s *FileStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts), nil
}

func (s *FileStore) load() error {
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read users file %s: %w", s.path, err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[h] = i
	}
	for _, name := range usersHeader {
		if _, ok := cols[name]; !ok {
			return fmt.Errorf("users file %s: missing column %q", s.path, name)
		}
	}

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read users file %s: %w", s.path, err)
		}
		get := func(name string) string {
			if i := cols[name]; i < len(rec) {
				return rec[i]
			}
			return ""
		}
		k := key(get("username"))
		if k == "" {
			continue
		}
		if _, dup := s.accounts[k]; dup {
			continue
		}
		s.accounts[k] = account.Account{
			Username:     k,
			PasswordHash: get("password"),
			BusinessName: get("business_name"),
		}
		s.order = append(s.order, k)
	}
}

// flush writes the users file through a temporary file and a rename.
func (s *FileStore) flush() error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".users-*.csv")
	if err != nil {
		return fmt.Errorf("create temp users file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	w := csv.NewWriter(tmp)
	if err := w.Write(usersHeader); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write users file: %w", err)
	}
	for _, k := range s.order {
		a := s.accounts[k]
		if err := w.Write([]string{a.Username, a.PasswordHash, a.BusinessName}); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("write users file: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write users file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close users file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace users file: %w", err)
	}
	return nil
}

// Package memory is an in-process implementation of domain.Store. A single
// RWMutex serializes transactions; each transaction works on a staged copy
// of the data that replaces the committed copy only when fn succeeds.
package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"account-ledger/internal/domain"
)

type snapshot struct {
	accounts   map[uuid.UUID]domain.Account
	statements []domain.Statement
}

func (s *snapshot) clone() *snapshot {
	accounts := make(map[uuid.UUID]domain.Account, len(s.accounts))
	for id, a := range s.accounts {
		accounts[id] = a
	}
	statements := make([]domain.Statement, len(s.statements), len(s.statements)+2)
	copy(statements, s.statements)
	return &snapshot{accounts: accounts, statements: statements}
}

type database struct {
	mu   sync.RWMutex
	data *snapshot
}

type Store struct {
	db     *database
	staged *snapshot
	logger *slog.Logger
}

var _ domain.Store = (*Store)(nil)

func NewStore(logger *slog.Logger) *Store {
	return &Store{
		db: &database{
			data: &snapshot{accounts: make(map[uuid.UUID]domain.Account)},
		},
		logger: logger,
	}
}

func (s *Store) Account() domain.AccountRepository {
	return &accountRepository{store: s}
}

func (s *Store) Statement() domain.StatementRepository {
	return &statementRepository{store: s}
}

// WithTransaction holds the write lock for the whole of fn. Repositories
// must be taken from the Store handed to fn; using the outer Store inside fn
// blocks forever.
func (s *Store) WithTransaction(ctx context.Context, fn func(domain.Store) error) error {
	if s.staged != nil {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	staged := s.db.data.clone()
	if err := fn(&Store{db: s.db, staged: staged, logger: s.logger}); err != nil {
		return err
	}
	s.db.data = staged
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) read(fn func(*snapshot) error) error {
	if s.staged != nil {
		return fn(s.staged)
	}
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return fn(s.db.data)
}

// write applies fn to the staged copy, or, outside a transaction, to a copy
// that is committed when fn succeeds.
func (s *Store) write(fn func(*snapshot) error) error {
	if s.staged != nil {
		return fn(s.staged)
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	next := s.db.data.clone()
	if err := fn(next); err != nil {
		return err
	}
	s.db.data = next
	return nil
}

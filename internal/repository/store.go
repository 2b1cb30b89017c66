package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"account-ledger/internal/domain"
	"account-ledger/internal/errors"
)

// Store provides a unified interface for all repository operations with transaction support
type Store struct {
	db       DB
	executor SQLExecutor
	logger   *slog.Logger
}

var _ domain.Store = (*Store)(nil)

// NewStore creates a new Store instance
func NewStore(db DB, logger *slog.Logger) *Store {
	return &Store{
		db:       db,
		executor: db,
		logger:   logger,
	}
}

// Account returns an AccountRepository using the current executor
func (s *Store) Account() domain.AccountRepository {
	return NewAccountRepository(s.executor, s.logger)
}

// Statement returns a StatementRepository using the current executor
func (s *Store) Statement() domain.StatementRepository {
	return NewStatementRepository(s.executor, s.logger)
}

// WithTransaction executes a function within a database transaction. Row
// locks taken inside fn are held until commit or rollback.
func (s *Store) WithTransaction(ctx context.Context, fn func(domain.Store) error) error {
	// Nested calls reuse the surrounding transaction
	if _, inTx := s.executor.(*sql.Tx); inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		s.logger.Error("Failed to begin transaction", "error", err)
		return errors.Wrap(errors.InternalError, "failed to begin transaction", err)
	}

	txStore := &Store{
		db:       s.db,
		executor: tx,
		logger:   s.logger,
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("Failed to roll back transaction", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("Failed to commit transaction", "error", err)
		return errors.Wrap(errors.InternalError, "failed to commit transaction", err)
	}
	return nil
}

// Ping checks database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

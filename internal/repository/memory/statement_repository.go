package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"account-ledger/internal/domain"
	"account-ledger/internal/errors"
)

type statementRepository struct {
	store *Store
}

func (r *statementRepository) CreateStatement(ctx context.Context, statement *domain.Statement) error {
	if err := statement.Validate(); err != nil {
		return errors.NewAppError(errors.InvalidInput, "invalid statement").WithDetails(err.Error())
	}

	return r.store.write(func(s *snapshot) error {
		for _, ref := range []*uuid.UUID{statement.OriginAccountID, statement.DestinationAccountID} {
			if ref == nil {
				continue
			}
			if _, ok := s.accounts[*ref]; !ok {
				return errors.ErrAccountNotFound
			}
		}

		statement.CreatedAt = time.Now().UTC()
		s.statements = append(s.statements, *statement)
		r.store.logger.Info("Statement created successfully",
			"statement_id", statement.ID,
			"transaction_type", statement.Type,
			"category", statement.Category)
		return nil
	})
}

func (r *statementRepository) CurrentBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	balance := decimal.Zero
	err := r.store.read(func(s *snapshot) error {
		balance = domain.DeriveBalance(accountID, s.statements)
		return nil
	})
	return balance, err
}

func (r *statementRepository) ListMovements(ctx context.Context, ownerID uuid.UUID, filter domain.MovementFilter) ([]domain.Movement, int, error) {
	var matched []domain.Movement
	err := r.store.read(func(s *snapshot) error {
		// Newest first; statements are kept in insertion order.
		for i := len(s.statements) - 1; i >= 0; i-- {
			st := &s.statements[i]
			origin := lookup(s, st.OriginAccountID)
			destination := lookup(s, st.DestinationAccountID)

			if !ownedBy(origin, ownerID) && !ownedBy(destination, ownerID) {
				continue
			}
			if filter.AccountID != nil && !st.Touches(*filter.AccountID) {
				continue
			}
			if filter.Type != "" && st.Type != filter.Type {
				continue
			}
			if filter.Category != "" && st.Category != filter.Category {
				continue
			}
			if !filter.Created.Contains(st.CreatedAt) {
				continue
			}
			if filter.Search != "" && !searchMatches(filter.Search, origin, destination) {
				continue
			}
			matched = append(matched, toMovement(st, origin, destination))
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return paginate(matched, filter.Pagination.Normalize()), len(matched), nil
}

func lookup(s *snapshot, ref *uuid.UUID) *domain.Account {
	if ref == nil {
		return nil
	}
	a, ok := s.accounts[*ref]
	if !ok {
		return nil
	}
	return &a
}

func ownedBy(a *domain.Account, ownerID uuid.UUID) bool {
	return a != nil && a.OwnerID == ownerID
}

func searchMatches(term string, accounts ...*domain.Account) bool {
	for _, a := range accounts {
		if a != nil && containsFold(term, a.Name, a.AccountNumber) {
			return true
		}
	}
	return false
}

func toMovement(st *domain.Statement, origin, destination *domain.Account) domain.Movement {
	m := domain.Movement{
		ID:                st.ID,
		Type:              st.Type,
		Category:          st.Category,
		Amount:            st.Amount,
		Description:       st.Description,
		ExternalReference: st.ExternalReference,
		ProcessedAt:       st.ProcessedAt,
		CreatedAt:         st.CreatedAt,
	}
	if origin != nil {
		m.Origin = &domain.MovementAccount{ID: origin.ID, Name: origin.Name, AccountNumber: origin.AccountNumber}
	}
	if destination != nil {
		m.Destination = &domain.MovementAccount{ID: destination.ID, Name: destination.Name, AccountNumber: destination.AccountNumber}
	}
	return m
}

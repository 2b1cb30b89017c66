package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"account-ledger/internal/domain"
	"account-ledger/internal/errors"
)

type accountRepository struct {
	store *Store
}

func (r *accountRepository) CreateAccount(ctx context.Context, account *domain.Account) error {
	return r.store.write(func(s *snapshot) error {
		if _, taken := s.accounts[account.ID]; taken {
			return errors.ErrDuplicateAccount
		}
		// Mirrors the (account_number, agency, owner_id) unique constraint,
		// which also covers soft-deleted rows.
		for _, existing := range s.accounts {
			if existing.OwnerID == account.OwnerID &&
				existing.AccountNumber == account.AccountNumber &&
				existing.Agency == account.Agency {
				r.store.logger.Warn("Duplicate account creation attempt",
					"owner_id", account.OwnerID, "account_number", account.AccountNumber)
				return errors.ErrDuplicateAccount
			}
		}

		now := time.Now().UTC()
		account.CreatedAt = now
		account.UpdatedAt = now
		s.accounts[account.ID] = *account
		r.store.logger.Info("Account created successfully", "account_id", account.ID)
		return nil
	})
}

func (r *accountRepository) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	var found *domain.Account
	err := r.store.read(func(s *snapshot) error {
		a, ok := s.accounts[id]
		if !ok || a.DeletedAt != nil {
			return errors.ErrAccountNotFound
		}
		found = &a
		return nil
	})
	return found, err
}

func (r *accountRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.store.read(func(s *snapshot) error {
		a, ok := s.accounts[id]
		exists = ok && a.DeletedAt == nil
		return nil
	})
	return exists, err
}

func (r *accountRepository) FindByOwnerAndNumber(ctx context.Context, ownerID uuid.UUID, accountNumber string) (*domain.Account, error) {
	var found *domain.Account
	err := r.store.read(func(s *snapshot) error {
		for _, a := range s.accounts {
			if a.OwnerID == ownerID && a.AccountNumber == accountNumber && a.DeletedAt == nil {
				found = &a
				return nil
			}
		}
		return nil
	})
	return found, err
}

// LockAccounts needs no row locks: the transaction already holds the store's
// write lock.
func (r *accountRepository) LockAccounts(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*domain.Account, error) {
	locked := make(map[uuid.UUID]*domain.Account, len(ids))
	err := r.store.read(func(s *snapshot) error {
		for _, id := range ids {
			if a, ok := s.accounts[id]; ok && a.DeletedAt == nil {
				locked[id] = &a
			}
		}
		return nil
	})
	return locked, err
}

func (r *accountRepository) ListAccounts(ctx context.Context, ownerID uuid.UUID, filter domain.AccountFilter) ([]domain.Account, int, error) {
	var matched []domain.Account
	err := r.store.read(func(s *snapshot) error {
		for _, a := range s.accounts {
			if a.OwnerID != ownerID || a.DeletedAt != nil {
				continue
			}
			if filter.Type != "" && a.Type != filter.Type {
				continue
			}
			if filter.Status != "" && a.Status != filter.Status {
				continue
			}
			if filter.Search != "" && !containsFold(filter.Search, a.Name, a.AccountNumber) {
				continue
			}
			if !filter.Created.Contains(a.CreatedAt) {
				continue
			}
			matched = append(matched, a)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sortAccounts(matched, filter.OrderBy, filter.Sort)
	page := paginate(matched, filter.Pagination.Normalize())
	return page, len(matched), nil
}

func sortAccounts(accounts []domain.Account, orderBy domain.AccountOrderBy, order domain.SortOrder) {
	compare := func(a, b domain.Account) int {
		switch orderBy {
		case domain.OrderByAccountNumber:
			return strings.Compare(a.AccountNumber, b.AccountNumber)
		case domain.OrderByName:
			return strings.Compare(a.Name, b.Name)
		default:
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}
	sort.SliceStable(accounts, func(i, j int) bool {
		c := compare(accounts[i], accounts[j])
		if c == 0 {
			c = strings.Compare(accounts[i].ID.String(), accounts[j].ID.String())
		}
		if order == domain.SortAsc {
			return c < 0
		}
		return c > 0
	})
}

func containsFold(term string, fields ...string) bool {
	term = strings.ToLower(term)
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

func paginate[T any](items []T, p domain.Pagination) []T {
	start := p.Offset()
	if start >= len(items) {
		return nil
	}
	end := len(items)
	if p.Limit < end-start {
		end = start + p.Limit
	}
	return items[start:end]
}

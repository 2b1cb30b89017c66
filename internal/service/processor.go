package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"account-ledger/internal/domain"
	"account-ledger/internal/errors"
)

// Processor executes one kind of ledger event. Implementations validate the
// event shape, then, inside a single transaction, check account existence,
// check funds when debiting and append exactly one statement. Balances in the
// result are re-derived after the transaction commits.
type Processor interface {
	Kind() domain.EventKind
	Process(ctx context.Context, event domain.Event) (*domain.EventResult, error)
}

func validateEventAmount(amount decimal.Decimal) error {
	if err := domain.ValidateAmount(amount); err != nil {
		return errors.ErrInvalidAmount.WithDetails(err.Error())
	}
	return nil
}

// validateEventText rejects descriptions and references the statement
// columns cannot hold.
func validateEventText(event domain.Event) error {
	if err := domain.ValidateStatementText(event.Description, event.ExternalReference); err != nil {
		return errors.NewAppError(errors.InvalidInput, "invalid event").WithDetails(err.Error())
	}
	return nil
}

// requireAccounts checks ids in the given order so the first missing account
// is the one reported.
func requireAccounts(locked map[uuid.UUID]*domain.Account, ids ...uuid.UUID) error {
	for _, id := range ids {
		if _, ok := locked[id]; !ok {
			return errors.ErrAccountNotFound.WithDetails(fmt.Sprintf("account %s does not exist", id))
		}
	}
	return nil
}

// ensureFunds compares the derived balance read under the row lock with the
// requested amount.
func ensureFunds(ctx context.Context, tx domain.Store, accountID uuid.UUID, amount decimal.Decimal) error {
	balance, err := tx.Statement().CurrentBalance(ctx, accountID)
	if err != nil {
		return err
	}
	if balance.LessThan(amount) {
		return errors.ErrInsufficientBalance.WithDetails(fmt.Sprintf(
			"current balance %s, requested %s",
			domain.FormatAmount(balance), domain.FormatAmount(amount)))
	}
	return nil
}

func balanceOf(ctx context.Context, store domain.Store, accountID uuid.UUID) (*domain.AccountBalance, error) {
	balance, err := store.Statement().CurrentBalance(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &domain.AccountBalance{ID: accountID, Balance: balance}, nil
}

func describe(description, fallback string) string {
	if description != "" {
		return description
	}
	return fallback
}

func now() time.Time {
	return time.Now().UTC()
}

package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeChecking AccountType = "CHECKING"
	AccountTypeSavings  AccountType = "SAVINGS"
	AccountTypeBusiness AccountType = "BUSINESS"
)

func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeChecking, AccountTypeSavings, AccountTypeBusiness:
		return true
	}
	return false
}

type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "ACTIVE"
	AccountStatusInactive AccountStatus = "INACTIVE"
	AccountStatusBlocked  AccountStatus = "BLOCKED"
	AccountStatusClosed   AccountStatus = "CLOSED"
)

func (s AccountStatus) IsValid() bool {
	switch s {
	case AccountStatusActive, AccountStatusInactive, AccountStatusBlocked, AccountStatusClosed:
		return true
	}
	return false
}

// Account holds registry metadata only. Its balance is always derived from
// statements and never stored here.
type Account struct {
	ID            uuid.UUID     `json:"id"`
	Name          string        `json:"name"`
	AccountNumber string        `json:"account_number"`
	Agency        string        `json:"agency"`
	Type          AccountType   `json:"account_type"`
	Status        AccountStatus `json:"status"`
	BankName      string        `json:"bank_name"`
	BankCode      string        `json:"bank_code"`
	OwnerID       uuid.UUID     `json:"owner_id"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	DeletedAt     *time.Time    `json:"deleted_at,omitempty"`
}

// AccountView is an account paired with its derived balance.
type AccountView struct {
	Account
	Balance decimal.Decimal `json:"balance"`
}

type AccountRepository interface {
	CreateAccount(ctx context.Context, account *Account) error
	GetAccount(ctx context.Context, id uuid.UUID) (*Account, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// FindByOwnerAndNumber returns nil, nil when no account matches.
	FindByOwnerAndNumber(ctx context.Context, ownerID uuid.UUID, accountNumber string) (*Account, error)
	// LockAccounts locks the rows of the given accounts until the enclosing
	// transaction ends and returns the ones that exist, keyed by id.
	LockAccounts(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*Account, error)
	ListAccounts(ctx context.Context, ownerID uuid.UUID, filter AccountFilter) ([]Account, int, error)
}

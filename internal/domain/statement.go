package domain

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeDeposit TransactionType = "DEPOSIT"
	TransactionTypeDebit   TransactionType = "DEBIT"
)

func (t TransactionType) IsValid() bool {
	return t == TransactionTypeDeposit || t == TransactionTypeDebit
}

type Category string

const (
	CategoryDeposit  Category = "DEPOSIT"
	CategoryWithdraw Category = "WITHDRAW"
	CategoryTransfer Category = "TRANSFER"
	CategoryPayment  Category = "PAYMENT"
	CategoryFee      Category = "FEE"
	CategoryInterest Category = "INTEREST"
	CategoryRefund   Category = "REFUND"
	CategoryOther    Category = "OTHER"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryDeposit, CategoryWithdraw, CategoryTransfer, CategoryPayment,
		CategoryFee, CategoryInterest, CategoryRefund, CategoryOther:
		return true
	}
	return false
}

// Column limits of account_statements, counted in characters.
const (
	MaxDescriptionLength       = 500
	MaxExternalReferenceLength = 100
)

// Statement is one immutable ledger entry. A transfer is a single statement
// carrying both the origin and the destination account.
type Statement struct {
	ID                   uuid.UUID       `json:"id"`
	Type                 TransactionType `json:"transaction_type"`
	Category             Category        `json:"category"`
	Amount               decimal.Decimal `json:"amount"`
	Description          string          `json:"description,omitempty"`
	ExternalReference    string          `json:"external_reference,omitempty"`
	ProcessedAt          *time.Time      `json:"processed_at,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	OriginAccountID      *uuid.UUID      `json:"origin_account_id,omitempty"`
	DestinationAccountID *uuid.UUID      `json:"destination_account_id,omitempty"`
}

// Validate checks the structural invariants every persisted statement obeys.
func (s *Statement) Validate() error {
	if !s.Type.IsValid() {
		return fmt.Errorf("invalid transaction type %q", s.Type)
	}
	if !s.Category.IsValid() {
		return fmt.Errorf("invalid category %q", s.Category)
	}
	if err := ValidateAmount(s.Amount); err != nil {
		return err
	}
	if err := ValidateStatementText(s.Description, s.ExternalReference); err != nil {
		return err
	}
	if s.OriginAccountID == nil && s.DestinationAccountID == nil {
		return fmt.Errorf("statement must reference an origin or a destination account")
	}
	if s.Category == CategoryTransfer {
		if s.OriginAccountID == nil || s.DestinationAccountID == nil {
			return fmt.Errorf("transfer statement requires both origin and destination")
		}
		if *s.OriginAccountID == *s.DestinationAccountID {
			return fmt.Errorf("transfer statement origin and destination must differ")
		}
	}
	return nil
}

// ValidateStatementText checks description and external reference against
// their column limits.
func ValidateStatementText(description, externalReference string) error {
	if n := utf8.RuneCountInString(description); n > MaxDescriptionLength {
		return fmt.Errorf("description must be at most %d characters, got %d", MaxDescriptionLength, n)
	}
	if n := utf8.RuneCountInString(externalReference); n > MaxExternalReferenceLength {
		return fmt.Errorf("external_reference must be at most %d characters, got %d", MaxExternalReferenceLength, n)
	}
	return nil
}

// Touches reports whether the statement references accountID on either side.
func (s *Statement) Touches(accountID uuid.UUID) bool {
	return isAccount(s.OriginAccountID, accountID) || isAccount(s.DestinationAccountID, accountID)
}

func newStatement(t TransactionType, c Category, amount decimal.Decimal, description string, now time.Time) *Statement {
	processedAt := now
	return &Statement{
		ID:          uuid.New(),
		Type:        t,
		Category:    c,
		Amount:      amount,
		Description: description,
		ProcessedAt: &processedAt,
	}
}

func NewDepositStatement(destination uuid.UUID, amount decimal.Decimal, description string, now time.Time) *Statement {
	s := newStatement(TransactionTypeDeposit, CategoryDeposit, amount, description, now)
	s.DestinationAccountID = &destination
	return s
}

func NewWithdrawStatement(origin uuid.UUID, amount decimal.Decimal, description string, now time.Time) *Statement {
	s := newStatement(TransactionTypeDebit, CategoryWithdraw, amount, description, now)
	s.OriginAccountID = &origin
	return s
}

func NewTransferStatement(origin, destination uuid.UUID, amount decimal.Decimal, description string, now time.Time) *Statement {
	s := newStatement(TransactionTypeDebit, CategoryTransfer, amount, description, now)
	s.OriginAccountID = &origin
	s.DestinationAccountID = &destination
	return s
}

// MovementAccount is the account side of a movement projection.
type MovementAccount struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	AccountNumber string    `json:"account_number"`
}

// Movement is a statement enriched with both accounts' display fields.
type Movement struct {
	ID                uuid.UUID        `json:"id"`
	Origin            *MovementAccount `json:"origin,omitempty"`
	Destination       *MovementAccount `json:"destination,omitempty"`
	Type              TransactionType  `json:"transaction_type"`
	Category          Category         `json:"category"`
	Amount            decimal.Decimal  `json:"amount"`
	Description       string           `json:"description,omitempty"`
	ExternalReference string           `json:"external_reference,omitempty"`
	ProcessedAt       *time.Time       `json:"processed_at,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
}

// StatementRepository is append-only: statements are created and read, never
// updated or deleted.
type StatementRepository interface {
	CreateStatement(ctx context.Context, statement *Statement) error
	// CurrentBalance folds every statement touching accountID. It returns
	// zero for an account without statements.
	CurrentBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)
	ListMovements(ctx context.Context, ownerID uuid.UUID, filter MovementFilter) ([]Movement, int, error)
}

func isAccount(ref *uuid.UUID, id uuid.UUID) bool {
	return ref != nil && *ref == id
}

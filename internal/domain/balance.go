package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Contribution returns the signed effect of s on accountID's balance. Rules
// are evaluated in order and the first match wins:
//
//	destination + DEPOSIT                 => +amount
//	origin + DEBIT, category not TRANSFER => -amount
//	destination + TRANSFER                => +amount
//	origin + TRANSFER                     => -amount
//
// Anything else contributes zero. The SQL aggregate in the Postgres statement
// repository mirrors this order exactly.
func (s *Statement) Contribution(accountID uuid.UUID) decimal.Decimal {
	isOrigin := isAccount(s.OriginAccountID, accountID)
	isDestination := isAccount(s.DestinationAccountID, accountID)

	switch {
	case isDestination && s.Type == TransactionTypeDeposit:
		return s.Amount
	case isOrigin && s.Type == TransactionTypeDebit && s.Category != CategoryTransfer:
		return s.Amount.Neg()
	case isDestination && s.Category == CategoryTransfer:
		return s.Amount
	case isOrigin && s.Category == CategoryTransfer:
		return s.Amount.Neg()
	default:
		return decimal.Zero
	}
}

// DeriveBalance folds statements into accountID's balance.
func DeriveBalance(accountID uuid.UUID, statements []Statement) decimal.Decimal {
	balance := decimal.Zero
	for i := range statements {
		balance = balance.Add(statements[i].Contribution(accountID))
	}
	return balance
}

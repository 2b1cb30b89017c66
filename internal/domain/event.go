package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventKind string

const (
	EventDeposit  EventKind = "deposit"
	EventWithdraw EventKind = "withdraw"
	EventTransfer EventKind = "transfer"
)

// Event is an inbound deposit, withdraw or transfer request. Which account
// fields are required depends on Kind and is checked by the processor.
type Event struct {
	Kind              EventKind
	Origin            *uuid.UUID
	Destination       *uuid.UUID
	Amount            decimal.Decimal
	Description       string
	ExternalReference string
}

type AccountBalance struct {
	ID      uuid.UUID       `json:"id"`
	Balance decimal.Decimal `json:"balance"`
}

// EventResult carries the post-commit balances of the accounts an event
// touched.
type EventResult struct {
	Origin      *AccountBalance `json:"origin,omitempty"`
	Destination *AccountBalance `json:"destination,omitempty"`
}

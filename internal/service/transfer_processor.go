package service

import (
	"context"
	"fmt"
	"log/slog"

	"account-ledger/internal/domain"
	"account-ledger/internal/errors"
)

type TransferProcessor struct {
	store  domain.Store
	logger *slog.Logger
}

func NewTransferProcessor(store domain.Store, logger *slog.Logger) *TransferProcessor {
	return &TransferProcessor{
		store:  store,
		logger: logger,
	}
}

func (p *TransferProcessor) Kind() domain.EventKind {
	return domain.EventTransfer
}

// Process moves value between two accounts as a single statement row that
// references both of them.
func (p *TransferProcessor) Process(ctx context.Context, event domain.Event) (*domain.EventResult, error) {
	if event.Origin == nil {
		return nil, errors.NewAppError(errors.MissingAccount, "origin is required for transfers")
	}
	if event.Destination == nil {
		return nil, errors.NewAppError(errors.MissingAccount, "destination is required for transfers")
	}
	origin, destination := *event.Origin, *event.Destination
	if origin == destination {
		return nil, errors.ErrSameAccountTransfer
	}
	if err := validateEventAmount(event.Amount); err != nil {
		return nil, err
	}
	if err := validateEventText(event); err != nil {
		return nil, err
	}

	p.logger.Info("Processing transfer",
		"origin", origin,
		"destination", destination,
		"amount", event.Amount)

	err := p.store.WithTransaction(ctx, func(tx domain.Store) error {
		locked, err := tx.Account().LockAccounts(ctx, origin, destination)
		if err != nil {
			return err
		}
		if err := requireAccounts(locked, origin, destination); err != nil {
			return err
		}
		if err := ensureFunds(ctx, tx, origin, event.Amount); err != nil {
			return err
		}

		statement := domain.NewTransferStatement(origin, destination, event.Amount,
			describe(event.Description, fmt.Sprintf("Transfer to account %s", destination)), now())
		statement.ExternalReference = event.ExternalReference
		return tx.Statement().CreateStatement(ctx, statement)
	})
	if err != nil {
		p.logger.Warn("Transfer rejected", "origin", origin, "destination", destination, "error", err)
		return nil, err
	}

	originBalance, err := balanceOf(ctx, p.store, origin)
	if err != nil {
		return nil, err
	}
	destinationBalance, err := balanceOf(ctx, p.store, destination)
	if err != nil {
		return nil, err
	}

	p.logger.Info("Transfer completed",
		"origin", origin,
		"destination", destination,
		"origin_balance", originBalance.Balance,
		"destination_balance", destinationBalance.Balance)
	return &domain.EventResult{Origin: originBalance, Destination: destinationBalance}, nil
}

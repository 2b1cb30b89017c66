package service

import (
	"context"
	"log/slog"

	"account-ledger/internal/domain"
	"account-ledger/internal/errors"
)

type DepositProcessor struct {
	store  domain.Store
	logger *slog.Logger
}

func NewDepositProcessor(store domain.Store, logger *slog.Logger) *DepositProcessor {
	return &DepositProcessor{
		store:  store,
		logger: logger,
	}
}

func (p *DepositProcessor) Kind() domain.EventKind {
	return domain.EventDeposit
}

func (p *DepositProcessor) Process(ctx context.Context, event domain.Event) (*domain.EventResult, error) {
	if event.Destination == nil {
		return nil, errors.NewAppError(errors.MissingAccount, "destination is required for deposits")
	}
	if err := validateEventAmount(event.Amount); err != nil {
		return nil, err
	}
	if err := validateEventText(event); err != nil {
		return nil, err
	}
	destination := *event.Destination

	p.logger.Info("Processing deposit", "destination", destination, "amount", event.Amount)

	err := p.store.WithTransaction(ctx, func(tx domain.Store) error {
		locked, err := tx.Account().LockAccounts(ctx, destination)
		if err != nil {
			return err
		}
		if err := requireAccounts(locked, destination); err != nil {
			return err
		}

		statement := domain.NewDepositStatement(destination, event.Amount,
			describe(event.Description, "Deposit via event"), now())
		statement.ExternalReference = event.ExternalReference
		return tx.Statement().CreateStatement(ctx, statement)
	})
	if err != nil {
		p.logger.Warn("Deposit rejected", "destination", destination, "error", err)
		return nil, err
	}

	balance, err := balanceOf(ctx, p.store, destination)
	if err != nil {
		return nil, err
	}

	p.logger.Info("Deposit completed", "destination", destination, "balance", balance.Balance)
	return &domain.EventResult{Destination: balance}, nil
}

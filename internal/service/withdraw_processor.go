package service

import (
	"context"
	"log/slog"

	"account-ledger/internal/domain"
	"account-ledger/internal/errors"
)

type WithdrawProcessor struct {
	store  domain.Store
	logger *slog.Logger
}

func NewWithdrawProcessor(store domain.Store, logger *slog.Logger) *WithdrawProcessor {
	return &WithdrawProcessor{
		store:  store,
		logger: logger,
	}
}

func (p *WithdrawProcessor) Kind() domain.EventKind {
	return domain.EventWithdraw
}

func (p *WithdrawProcessor) Process(ctx context.Context, event domain.Event) (*domain.EventResult, error) {
	if event.Origin == nil {
		return nil, errors.NewAppError(errors.MissingAccount, "origin is required for withdrawals")
	}
	if err := validateEventAmount(event.Amount); err != nil {
		return nil, err
	}
	if err := validateEventText(event); err != nil {
		return nil, err
	}
	origin := *event.Origin

	p.logger.Info("Processing withdrawal", "origin", origin, "amount", event.Amount)

	err := p.store.WithTransaction(ctx, func(tx domain.Store) error {
		locked, err := tx.Account().LockAccounts(ctx, origin)
		if err != nil {
			return err
		}
		if err := requireAccounts(locked, origin); err != nil {
			return err
		}
		if err := ensureFunds(ctx, tx, origin, event.Amount); err != nil {
			return err
		}

		statement := domain.NewWithdrawStatement(origin, event.Amount,
			describe(event.Description, "Withdrawal via event"), now())
		statement.ExternalReference = event.ExternalReference
		return tx.Statement().CreateStatement(ctx, statement)
	})
	if err != nil {
		p.logger.Warn("Withdrawal rejected", "origin", origin, "error", err)
		return nil, err
	}

	balance, err := balanceOf(ctx, p.store, origin)
	if err != nil {
		return nil, err
	}

	p.logger.Info("Withdrawal completed", "origin", origin, "balance", balance.Balance)
	return &domain.EventResult{Origin: balance}, nil
}

package service

import (
	"context"
	"log/slog"

	"account-ledger/internal/domain"
	"account-ledger/internal/errors"
)

// Dispatcher routes an event to the processor registered for its kind.
type Dispatcher struct {
	processors map[domain.EventKind]Processor
	logger     *slog.Logger
}

func NewDispatcher(logger *slog.Logger, processors ...Processor) *Dispatcher {
	d := &Dispatcher{
		processors: make(map[domain.EventKind]Processor, len(processors)),
		logger:     logger,
	}
	for _, p := range processors {
		d.processors[p.Kind()] = p
	}
	return d
}

// NewLedgerDispatcher registers the deposit, withdraw and transfer processors.
func NewLedgerDispatcher(store domain.Store, logger *slog.Logger) *Dispatcher {
	return NewDispatcher(logger,
		NewDepositProcessor(store, logger),
		NewWithdrawProcessor(store, logger),
		NewTransferProcessor(store, logger),
	)
}

func (d *Dispatcher) Select(kind domain.EventKind) (Processor, error) {
	p, ok := d.processors[kind]
	if !ok {
		return nil, errors.NewAppErrorf(errors.UnsupportedEvent, "unsupported event type: %q", kind)
	}
	return p, nil
}

func (d *Dispatcher) Dispatch(ctx context.Context, event domain.Event) (*domain.EventResult, error) {
	d.logger.Info("Dispatching event", "event_type", event.Kind)

	p, err := d.Select(event.Kind)
	if err != nil {
		d.logger.Warn("Unsupported event type", "event_type", event.Kind)
		return nil, err
	}
	return p.Process(ctx, event)
}

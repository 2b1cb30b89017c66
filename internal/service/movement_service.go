package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"account-ledger/internal/domain"
)

type MovementService struct {
	store  domain.Store
	logger *slog.Logger
}

func NewMovementService(store domain.Store, logger *slog.Logger) *MovementService {
	return &MovementService{
		store:  store,
		logger: logger,
	}
}

// ListMovements pages through statements whose origin or destination account
// belongs to ownerID, newest first.
func (s *MovementService) ListMovements(ctx context.Context, ownerID uuid.UUID, filter domain.MovementFilter) (*domain.Page[domain.Movement], error) {
	s.logger.Info("Listing movements", "owner_id", ownerID)

	filter.Pagination = filter.Pagination.Normalize()
	movements, total, err := s.store.Statement().ListMovements(ctx, ownerID, filter)
	if err != nil {
		return nil, err
	}
	return domain.NewPage(movements, filter.Pagination, total), nil
}

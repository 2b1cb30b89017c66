package handler

import (
	"net/http"
	"strings"
	"time"

	"account-ledger/internal/domain"
	"account-ledger/internal/service"
)

type MovementHandler struct {
	movementService *service.MovementService
}

func NewMovementHandler(movementService *service.MovementService) *MovementHandler {
	return &MovementHandler{
		movementService: movementService,
	}
}

type MovementResponse struct {
	ID                string                  `json:"id"`
	Origin            *domain.MovementAccount `json:"origin"`
	Destination       *domain.MovementAccount `json:"destination"`
	TransactionType   string                  `json:"transaction_type"`
	Category          string                  `json:"category"`
	Amount            string                  `json:"amount"`
	Description       string                  `json:"description,omitempty"`
	ExternalReference string                  `json:"external_reference,omitempty"`
	ProcessedAt       *time.Time              `json:"processed_at,omitempty"`
	CreatedAt         time.Time               `json:"created_at"`
}

func newMovementResponse(m domain.Movement) MovementResponse {
	return MovementResponse{
		ID:                m.ID.String(),
		Origin:            m.Origin,
		Destination:       m.Destination,
		TransactionType:   string(m.Type),
		Category:          string(m.Category),
		Amount:            domain.FormatAmount(m.Amount),
		Description:       m.Description,
		ExternalReference: m.ExternalReference,
		ProcessedAt:       m.ProcessedAt,
		CreatedAt:         m.CreatedAt,
	}
}

func (h *MovementHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	ownerID, err := ownerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	filter, err := parseMovementFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}

	page, err := h.movementService.ListMovements(r.Context(), ownerID, filter)
	if err != nil {
		writeError(w, err)
		return
	}

	data := make([]MovementResponse, 0, len(page.Data))
	for _, m := range page.Data {
		data = append(data, newMovementResponse(m))
	}
	writePage(w, data, page.Meta)
}

func parseMovementFilter(r *http.Request) (domain.MovementFilter, error) {
	var filter domain.MovementFilter
	var err error

	if filter.Pagination, err = parsePagination(r); err != nil {
		return filter, err
	}
	if filter.Created, err = parseDateRange(r); err != nil {
		return filter, err
	}

	q := r.URL.Query()
	if raw := q.Get("account_id"); raw != "" {
		if filter.AccountID, err = parseOptionalAccountID(&raw); err != nil {
			return filter, err
		}
	}

	txType, err := enumParam(r, "transaction_type", func(v string) bool { return domain.TransactionType(v).IsValid() })
	if err != nil {
		return filter, err
	}
	category, err := enumParam(r, "category", func(v string) bool { return domain.Category(v).IsValid() })
	if err != nil {
		return filter, err
	}

	filter.Type = domain.TransactionType(txType)
	filter.Category = domain.Category(category)
	filter.Search = strings.TrimSpace(q.Get("search"))
	return filter, nil
}

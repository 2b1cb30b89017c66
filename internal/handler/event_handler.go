package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"account-ledger/internal/domain"
	"account-ledger/internal/errors"
	"account-ledger/internal/service"
)

type EventHandler struct {
	dispatcher *service.Dispatcher
}

func NewEventHandler(dispatcher *service.Dispatcher) *EventHandler {
	return &EventHandler{
		dispatcher: dispatcher,
	}
}

type EventRequest struct {
	Type              string          `json:"type"`
	Origin            *string         `json:"origin"`
	Destination       *string         `json:"destination"`
	Amount            decimal.Decimal `json:"amount"`
	Description       string          `json:"description"`
	ExternalReference string          `json:"external_reference"`
}

type EventResponse struct {
	Origin      *AccountBalanceResponse `json:"origin,omitempty"`
	Destination *AccountBalanceResponse `json:"destination,omitempty"`
}

// ProcessEvent handles POST /events for deposit, withdraw and transfer.
func (h *EventHandler) ProcessEvent(w http.ResponseWriter, r *http.Request) {
	if _, err := ownerFromRequest(r); err != nil {
		writeError(w, err)
		return
	}

	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	event, err := req.toEvent()
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.dispatcher.Dispatch(r.Context(), event)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, EventResponse{
		Origin:      newAccountBalanceResponse(result.Origin),
		Destination: newAccountBalanceResponse(result.Destination),
	})
}

func (req EventRequest) toEvent() (domain.Event, error) {
	origin, err := parseOptionalAccountID(req.Origin)
	if err != nil {
		return domain.Event{}, err
	}
	destination, err := parseOptionalAccountID(req.Destination)
	if err != nil {
		return domain.Event{}, err
	}
	return domain.Event{
		Kind:              domain.EventKind(strings.ToLower(strings.TrimSpace(req.Type))),
		Origin:            origin,
		Destination:       destination,
		Amount:            req.Amount,
		Description:       strings.TrimSpace(req.Description),
		ExternalReference: strings.TrimSpace(req.ExternalReference),
	}, nil
}

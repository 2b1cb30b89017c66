package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"account-ledger/internal/domain"
	"account-ledger/internal/errors"
)

// UserIDHeader carries the authenticated owner id set by the gateway.
const UserIDHeader = "X-User-ID"

type Response struct {
	Data  interface{}      `json:"data,omitempty"`
	Meta  *domain.PageMeta `json:"meta,omitempty"`
	Error *Error           `json:"error,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type AccountBalanceResponse struct {
	ID      string `json:"id"`
	Balance string `json:"balance"`
}

func newAccountBalanceResponse(b *domain.AccountBalance) *AccountBalanceResponse {
	if b == nil {
		return nil
	}
	return &AccountBalanceResponse{
		ID:      b.ID.String(),
		Balance: domain.FormatAmount(b.Balance),
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := Response{Data: data}
	json.NewEncoder(w).Encode(response)
}

func writePage(w http.ResponseWriter, data interface{}, meta domain.PageMeta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(Response{Data: data, Meta: &meta})
}

// writeError renders err; anything that is not an AppError is reported as an
// internal error without leaking its text.
func writeError(w http.ResponseWriter, err error) {
	appErr, ok := errors.As(err)
	if !ok || appErr.Kind() == errors.KindInternal {
		appErr = errors.NewAppError(errors.InternalError, "an unexpected error occurred")
	}

	w.Header().Set("Content-Type", "application/json")

	statusCode := appErr.HTTPStatus()
	errResponse := Error{
		Code:    string(appErr.Code),
		Message: appErr.Message,
		Details: appErr.Details,
	}

	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(Response{Error: &errResponse})
}

func ownerFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(r.Header.Get(UserIDHeader))
	if raw == "" {
		return uuid.Nil, errors.ErrUnauthorized
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, errors.ErrUnauthorized
	}
	return id, nil
}

func parseAccountID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, errors.ErrInvalidAccountID.WithDetails(err.Error())
	}
	return id, nil
}

func parseOptionalAccountID(raw *string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := parseAccountID(*raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parsePagination(r *http.Request) (domain.Pagination, error) {
	q := r.URL.Query()
	var p domain.Pagination
	for _, f := range []struct {
		key string
		dst *int
	}{{"page", &p.Page}, {"limit", &p.Limit}} {
		v := q.Get(f.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, errors.NewAppErrorf(errors.InvalidInput, "invalid %s value", f.key).WithDetails(err.Error())
		}
		*f.dst = n
	}
	return p.Normalize(), nil
}

// parseDateRange reads start_date/end_date. Either RFC 3339 or a plain date
// is accepted; a plain end date covers the whole day.
func parseDateRange(r *http.Request) (domain.DateRange, error) {
	var dr domain.DateRange
	q := r.URL.Query()

	if v := q.Get("start_date"); v != "" {
		t, err := parseTime(v, false)
		if err != nil {
			return dr, errors.NewAppError(errors.InvalidInput, "invalid start_date").WithDetails(err.Error())
		}
		dr.From = &t
	}
	if v := q.Get("end_date"); v != "" {
		t, err := parseTime(v, true)
		if err != nil {
			return dr, errors.NewAppError(errors.InvalidInput, "invalid end_date").WithDetails(err.Error())
		}
		dr.To = &t
	}
	return dr, nil
}

func parseTime(v string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// enumParam upper-cases the query value and checks it with valid.
func enumParam(r *http.Request, key string, valid func(string) bool) (string, error) {
	v := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get(key)))
	if v == "" {
		return "", nil
	}
	if !valid(v) {
		return "", errors.NewAppErrorf(errors.InvalidInput, "invalid %s %q", key, v)
	}
	return v, nil
}

package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"account-ledger/internal/domain"
	"account-ledger/internal/errors"
	"account-ledger/internal/service"
)

type AccountHandler struct {
	accountService *service.AccountService
}

func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
	}
}

type CreateAccountRequest struct {
	Name           string          `json:"name"`
	AccountNumber  string          `json:"account_number"`
	Agency         string          `json:"agency"`
	AccountType    string          `json:"account_type"`
	BankName       string          `json:"bank_name"`
	BankCode       string          `json:"bank_code"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

type AccountResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	AccountNumber string    `json:"account_number"`
	Agency        string    `json:"agency"`
	AccountType   string    `json:"account_type"`
	Status        string    `json:"status"`
	BankName      string    `json:"bank_name"`
	BankCode      string    `json:"bank_code"`
	Balance       string    `json:"balance"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func newAccountResponse(v domain.AccountView) AccountResponse {
	return AccountResponse{
		ID:            v.ID.String(),
		Name:          v.Name,
		AccountNumber: v.AccountNumber,
		Agency:        v.Agency,
		AccountType:   string(v.Type),
		Status:        string(v.Status),
		BankName:      v.BankName,
		BankCode:      v.BankCode,
		Balance:       domain.FormatAmount(v.Balance),
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	ownerID, err := ownerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	account, err := h.accountService.CreateAccount(r.Context(), ownerID, service.CreateAccountInput{
		Name:           req.Name,
		AccountNumber:  req.AccountNumber,
		Agency:         req.Agency,
		Type:           domain.AccountType(strings.ToUpper(strings.TrimSpace(req.AccountType))),
		BankName:       req.BankName,
		BankCode:       req.BankCode,
		InitialBalance: req.InitialBalance,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newAccountResponse(*account))
}

func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	ownerID, err := ownerFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	filter, err := parseAccountFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}

	page, err := h.accountService.ListAccounts(r.Context(), ownerID, filter)
	if err != nil {
		writeError(w, err)
		return
	}

	data := make([]AccountResponse, 0, len(page.Data))
	for _, v := range page.Data {
		data = append(data, newAccountResponse(v))
	}
	writePage(w, data, page.Meta)
}

func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseAccountID(mux.Vars(r)["account_id"])
	if err != nil {
		writeError(w, err)
		return
	}

	balance, err := h.accountService.GetBalance(r.Context(), accountID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newAccountBalanceResponse(balance))
}

func parseAccountFilter(r *http.Request) (domain.AccountFilter, error) {
	var filter domain.AccountFilter
	var err error

	if filter.Pagination, err = parsePagination(r); err != nil {
		return filter, err
	}
	if filter.Created, err = parseDateRange(r); err != nil {
		return filter, err
	}

	accountType, err := enumParam(r, "account_type", func(v string) bool { return domain.AccountType(v).IsValid() })
	if err != nil {
		return filter, err
	}
	status, err := enumParam(r, "status", func(v string) bool { return domain.AccountStatus(v).IsValid() })
	if err != nil {
		return filter, err
	}
	sort, err := enumParam(r, "sort", func(v string) bool { return v == string(domain.SortAsc) || v == string(domain.SortDesc) })
	if err != nil {
		return filter, err
	}

	q := r.URL.Query()
	if orderBy := strings.ToLower(q.Get("order_by")); orderBy != "" {
		if !domain.AccountOrderBy(orderBy).IsValid() {
			return filter, errors.NewAppErrorf(errors.InvalidInput, "invalid order_by %q", orderBy)
		}
		filter.OrderBy = domain.AccountOrderBy(orderBy)
	}

	filter.Type = domain.AccountType(accountType)
	filter.Status = domain.AccountStatus(status)
	filter.Sort = domain.SortOrder(sort)
	filter.Search = strings.TrimSpace(q.Get("search"))
	return filter, nil
}

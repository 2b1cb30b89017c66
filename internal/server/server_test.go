package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account-ledger/internal/repository/memory"
)

type envelope struct {
	Data json.RawMessage `json:"data"`
	Meta *struct {
		Page       int `json:"page"`
		Limit      int `json:"limit"`
		Total      int `json:"total"`
		TotalPages int `json:"total_pages"`
	} `json:"meta"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
}

type apiClient struct {
	t      *testing.T
	router http.Handler
	owner  string
}

func newAPIClient(t *testing.T) *apiClient {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewServerWithStore(memory.NewStore(logger), logger)
	return &apiClient{t: t, router: s.GetRouter(), owner: uuid.New().String()}
}

func (c *apiClient) do(method, path string, body any) (int, envelope) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.owner != "" {
		req.Header.Set("X-User-ID", c.owner)
	}
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func (c *apiClient) createAccount(number, initial string) string {
	c.t.Helper()
	code, env := c.do(http.MethodPost, "/accounts", map[string]any{
		"name":            "Account " + number,
		"account_number":  number,
		"agency":          "0001",
		"account_type":    "savings",
		"bank_name":       "Ledger Bank",
		"bank_code":       "999",
		"initial_balance": initial,
	})
	require.Equal(c.t, http.StatusCreated, code)

	var account struct {
		ID          string `json:"id"`
		AccountType string `json:"account_type"`
		Balance     string `json:"balance"`
	}
	require.NoError(c.t, json.Unmarshal(env.Data, &account))
	assert.Equal(c.t, "SAVINGS", account.AccountType)
	return account.ID
}

type balances struct {
	Origin *struct {
		ID      string `json:"id"`
		Balance string `json:"balance"`
	} `json:"origin"`
	Destination *struct {
		ID      string `json:"id"`
		Balance string `json:"balance"`
	} `json:"destination"`
}

func TestEventFlow(t *testing.T) {
	c := newAPIClient(t)
	a := c.createAccount("100", "0")
	b := c.createAccount("200", "0")

	code, env := c.do(http.MethodPost, "/events", map[string]any{"type": "deposit", "destination": a, "amount": 100})
	require.Equal(t, http.StatusCreated, code)
	var res balances
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Nil(t, res.Origin)
	assert.Equal(t, "100.00", res.Destination.Balance)

	code, _ = c.do(http.MethodPost, "/events", map[string]any{"type": "withdraw", "origin": a, "amount": "30"})
	require.Equal(t, http.StatusCreated, code)

	code, env = c.do(http.MethodPost, "/events", map[string]any{"type": "TRANSFER", "origin": a, "destination": b, "amount": "70.00"})
	require.Equal(t, http.StatusCreated, code)
	res = balances{}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "0.00", res.Origin.Balance)
	assert.Equal(t, "70.00", res.Destination.Balance)

	code, env = c.do(http.MethodPost, "/events", map[string]any{"type": "withdraw", "origin": a, "amount": "0.01"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "insufficient_balance", env.Error.Code)

	code, env = c.do(http.MethodGet, "/accounts/"+b+"/balance", nil)
	require.Equal(t, http.StatusOK, code)
	var bal struct {
		Balance string `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &bal))
	assert.Equal(t, "70.00", bal.Balance)

	code, env = c.do(http.MethodGet, "/movements?account_id="+a+"&limit=2", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 3, env.Meta.Total)
	assert.Equal(t, 2, env.Meta.TotalPages)
	var movements []struct {
		Category string `json:"category"`
		Amount   string `json:"amount"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &movements))
	require.Len(t, movements, 2)
	assert.Equal(t, "TRANSFER", movements[0].Category)
	assert.Equal(t, "30.00", movements[1].Amount)
}

func TestEventErrors(t *testing.T) {
	c := newAPIClient(t)
	a := c.createAccount("100", "10")

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"malformed uuid", map[string]any{"type": "deposit", "destination": "not-a-uuid", "amount": "1"}, http.StatusBadRequest, "invalid_account_id"},
		{"unknown type", map[string]any{"type": "refund", "destination": a, "amount": "1"}, http.StatusBadRequest, "unsupported_event"},
		{"missing destination", map[string]any{"type": "deposit", "amount": "1"}, http.StatusBadRequest, "missing_account"},
		{"zero amount", map[string]any{"type": "deposit", "destination": a, "amount": "0"}, http.StatusBadRequest, "invalid_amount"},
		{"three decimals", map[string]any{"type": "deposit", "destination": a, "amount": "1.005"}, http.StatusBadRequest, "invalid_amount"},
		{"same account", map[string]any{"type": "transfer", "origin": a, "destination": a, "amount": "1"}, http.StatusBadRequest, "same_account_transfer"},
		{"unknown account", map[string]any{"type": "withdraw", "origin": uuid.New().String(), "amount": "1"}, http.StatusNotFound, "account_not_found"},
		{"bad json", "{", http.StatusBadRequest, "invalid_input"},
		{"description too long", map[string]any{"type": "deposit", "destination": a, "amount": "1", "description": strings.Repeat("a", 501)}, http.StatusBadRequest, "invalid_input"},
		{"external reference too long", map[string]any{"type": "withdraw", "origin": a, "amount": "1", "external_reference": strings.Repeat("r", 101)}, http.StatusBadRequest, "invalid_input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := c.do(http.MethodPost, "/events", tt.body)
			assert.Equal(t, tt.status, code)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestAccountsEndpoints(t *testing.T) {
	c := newAPIClient(t)
	c.createAccount("200", "1.5")
	c.createAccount("100", "0")

	code, env := c.do(http.MethodPost, "/accounts", map[string]any{
		"account_number": "100", "agency": "0002", "bank_name": "b", "bank_code": "1",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "duplicate_account", env.Error.Code)

	code, env = c.do(http.MethodGet, "/accounts?order_by=account_number&sort=asc", nil)
	require.Equal(t, http.StatusOK, code)
	var accounts []struct {
		AccountNumber string `json:"account_number"`
		Balance       string `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &accounts))
	require.Len(t, accounts, 2)
	assert.Equal(t, "100", accounts[0].AccountNumber)
	assert.Equal(t, "1.50", accounts[1].Balance)
	assert.Equal(t, 1, env.Meta.Page)
	assert.Equal(t, 10, env.Meta.Limit)

	code, env = c.do(http.MethodGet, "/accounts?page=5", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, "[]", string(env.Data))
	assert.Equal(t, 2, env.Meta.Total)

	for _, path := range []string{"/accounts?page=1152921504606846977", "/movements?page=1152921504606846977"} {
		code, env = c.do(http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, code, path)
		assert.JSONEq(t, "[]", string(env.Data), path)
		assert.Equal(t, 1152921504606846977, env.Meta.Page, path)
	}

	code, env = c.do(http.MethodGet, "/accounts?order_by=balance", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_input", env.Error.Code)

	code, env = c.do(http.MethodGet, "/accounts/"+uuid.New().String()+"/balance", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "account_not_found", env.Error.Code)

	code, env = c.do(http.MethodGet, "/accounts/42/balance", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_account_id", env.Error.Code)
}

func TestOwnerHeaderRequired(t *testing.T) {
	c := newAPIClient(t)
	c.owner = ""

	for _, path := range []string{"/accounts", "/movements"} {
		code, env := c.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, code, path)
		assert.Equal(t, "unauthorized", env.Error.Code)
	}

	c.owner = "not-a-uuid"
	code, _ := c.do(http.MethodPost, "/events", map[string]any{"type": "deposit"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestHealth(t *testing.T) {
	c := newAPIClient(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy"`)
}

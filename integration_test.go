package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"account-ledger/internal/config"
	"account-ledger/internal/server"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

type IntegrationTestSuite struct {
	suite.Suite
	postgresContainer *tcpostgres.PostgresContainer
	serverInstance    *server.Server
	baseURL           string
	client            *http.Client
	ownerID           string

	checking string
	savings  string
}

func (suite *IntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	postgresContainer, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("account_ledger"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		suite.T().Fatalf("Failed to start postgres container: %s", err)
	}
	suite.postgresContainer = postgresContainer

	host, err := postgresContainer.Host(ctx)
	if err != nil {
		suite.T().Fatalf("Failed to get container host: %s", err)
	}
	port, err := postgresContainer.MappedPort(ctx, "5432")
	if err != nil {
		suite.T().Fatalf("Failed to get mapped port: %s", err)
	}

	cfg := config.Default()
	cfg.ServerPort = "0"
	cfg.DBHost = host
	cfg.DBPort = port.Port()
	cfg.DBAutoMigrate = true

	serverInstance, _, err := server.StartServer(cfg, nil)
	if err != nil {
		suite.T().Fatalf("Failed to start application server: %s", err)
	}
	suite.serverInstance = serverInstance
	suite.baseURL = serverInstance.GetBaseURL()
	suite.client = &http.Client{Timeout: 30 * time.Second}
	suite.ownerID = uuid.New().String()

	if err := suite.waitForServerReady(); err != nil {
		suite.T().Fatal(err)
	}
}

func (suite *IntegrationTestSuite) waitForServerReady() error {
	timeout := 30 * time.Second
	start := time.Now()

	for time.Since(start) < timeout {
		resp, err := http.Get(suite.baseURL + "/health")
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			return nil
		}
		if resp != nil {
			resp.Body.Close()
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("server not ready after %v", timeout)
}

func (suite *IntegrationTestSuite) TearDownSuite() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if suite.serverInstance != nil {
		suite.serverInstance.Stop(ctx)
	}
	if suite.postgresContainer != nil {
		suite.postgresContainer.Terminate(ctx)
	}
}

// call sends body as JSON with the suite owner and decodes the envelope.
func (suite *IntegrationTestSuite) call(method, path string, body interface{}) (int, map[string]interface{}) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, suite.baseURL+path, reader)
	suite.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", suite.ownerID)

	resp, err := suite.client.Do(req)
	suite.Require().NoError(err)
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	var response map[string]interface{}
	if err := json.Unmarshal(respBody, &response); err != nil {
		suite.T().Logf("Failed to parse response: %s", respBody)
	}
	return resp.StatusCode, response
}

func (suite *IntegrationTestSuite) createAccount(number, initialBalance string) (int, map[string]interface{}) {
	return suite.call(http.MethodPost, "/accounts", map[string]interface{}{
		"name":            "Account " + number,
		"account_number":  number,
		"agency":          "0001",
		"account_type":    "CHECKING",
		"bank_name":       "Ledger Bank",
		"bank_code":       "999",
		"initial_balance": initialBalance,
	})
}

func (suite *IntegrationTestSuite) event(kind, origin, destination, amount string) (int, map[string]interface{}) {
	req := map[string]interface{}{"type": kind, "amount": amount}
	if origin != "" {
		req["origin"] = origin
	}
	if destination != "" {
		req["destination"] = destination
	}
	return suite.call(http.MethodPost, "/events", req)
}

func (suite *IntegrationTestSuite) balance(accountID string) string {
	status, response := suite.call(http.MethodGet, "/accounts/"+accountID+"/balance", nil)
	suite.Require().Equal(http.StatusOK, status)
	return data(response)["balance"].(string)
}

func (suite *IntegrationTestSuite) assertDecimalEqual(expected, actual string) {
	expectedDec, err := decimal.NewFromString(expected)
	if err != nil {
		suite.T().Fatalf("Invalid expected decimal: %s", expected)
	}
	actualDec, err := decimal.NewFromString(actual)
	if err != nil {
		suite.T().Fatalf("Invalid actual decimal: %s", actual)
	}
	assert.True(suite.T(), expectedDec.Equal(actualDec),
		"Decimal values not equal: expected %s, got %s", expected, actual)
}

func (suite *IntegrationTestSuite) assertErrorCode(response map[string]interface{}, code string) {
	errorData, hasError := response["error"]
	if assert.True(suite.T(), hasError, "Response should have 'error' field for error cases") {
		assert.Equal(suite.T(), code, errorData.(map[string]interface{})["code"])
	}
}

func data(response map[string]interface{}) map[string]interface{} {
	d, _ := response["data"].(map[string]interface{})
	return d
}

func (suite *IntegrationTestSuite) stepHealthCheck() {
	resp, err := suite.client.Get(suite.baseURL + "/health")
	suite.Require().NoError(err)
	defer resp.Body.Close()
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	var healthResp map[string]interface{}
	assert.NoError(suite.T(), json.NewDecoder(resp.Body).Decode(&healthResp))
	assert.Equal(suite.T(), "healthy", healthResp["status"])
}

func (suite *IntegrationTestSuite) stepCreateAccounts() {
	status, response := suite.createAccount("10001", "0")
	suite.Require().Equal(http.StatusCreated, status)
	suite.checking = data(response)["id"].(string)
	assert.Equal(suite.T(), "0.00", data(response)["balance"])

	status, response = suite.createAccount("10002", "0.00")
	suite.Require().Equal(http.StatusCreated, status)
	suite.savings = data(response)["id"].(string)

	suite.assertDecimalEqual("0", suite.balance(suite.checking))
}

func (suite *IntegrationTestSuite) stepDepositWithdrawTransfer() {
	status, response := suite.event("deposit", "", suite.checking, "100.00")
	suite.Require().Equal(http.StatusCreated, status)
	dest := data(response)["destination"].(map[string]interface{})
	assert.Equal(suite.T(), "100.00", dest["balance"])

	status, response = suite.event("withdraw", suite.checking, "", "30")
	suite.Require().Equal(http.StatusCreated, status)
	origin := data(response)["origin"].(map[string]interface{})
	assert.Equal(suite.T(), "70.00", origin["balance"])

	status, response = suite.event("transfer", suite.checking, suite.savings, "70.00")
	suite.Require().Equal(http.StatusCreated, status)
	assert.Equal(suite.T(), "0.00", data(response)["origin"].(map[string]interface{})["balance"])
	assert.Equal(suite.T(), "70.00", data(response)["destination"].(map[string]interface{})["balance"])
}

func (suite *IntegrationTestSuite) stepInsufficientBalance() {
	status, response := suite.event("withdraw", suite.checking, "", "0.01")
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, status)
	suite.assertErrorCode(response, "insufficient_balance")

	suite.assertDecimalEqual("0", suite.balance(suite.checking))
}

func (suite *IntegrationTestSuite) stepRejectedEvents() {
	status, response := suite.event("transfer", suite.savings, suite.savings, "1.00")
	assert.Equal(suite.T(), http.StatusBadRequest, status)
	suite.assertErrorCode(response, "same_account_transfer")

	status, response = suite.event("deposit", "", suite.savings, "-5.00")
	assert.Equal(suite.T(), http.StatusBadRequest, status)
	suite.assertErrorCode(response, "invalid_amount")

	status, response = suite.event("deposit", "", suite.savings, "0.00")
	assert.Equal(suite.T(), http.StatusBadRequest, status)
	suite.assertErrorCode(response, "invalid_amount")

	status, response = suite.event("deposit", "", uuid.New().String(), "5.00")
	assert.Equal(suite.T(), http.StatusNotFound, status)
	suite.assertErrorCode(response, "account_not_found")

	status, response = suite.event("refund", "", suite.savings, "5.00")
	assert.Equal(suite.T(), http.StatusBadRequest, status)
	suite.assertErrorCode(response, "unsupported_event")

	suite.assertDecimalEqual("70", suite.balance(suite.savings))
}

func (suite *IntegrationTestSuite) stepAccountNotFound() {
	status, response := suite.call(http.MethodGet, "/accounts/"+uuid.New().String()+"/balance", nil)
	assert.Equal(suite.T(), http.StatusNotFound, status)
	suite.assertErrorCode(response, "account_not_found")
}

func (suite *IntegrationTestSuite) stepDuplicateAccountCreation() {
	status, response := suite.createAccount("10001", "0")
	assert.Equal(suite.T(), http.StatusConflict, status)
	suite.assertErrorCode(response, "duplicate_account")
}

func (suite *IntegrationTestSuite) stepListings() {
	status, response := suite.call(http.MethodGet, "/accounts?order_by=account_number&sort=asc", nil)
	suite.Require().Equal(http.StatusOK, status)
	accounts := response["data"].([]interface{})
	suite.Require().Len(accounts, 2)
	assert.Equal(suite.T(), "10001", accounts[0].(map[string]interface{})["account_number"])
	assert.Equal(suite.T(), "70.00", accounts[1].(map[string]interface{})["balance"])
	assert.Equal(suite.T(), float64(2), response["meta"].(map[string]interface{})["total"])

	status, response = suite.call(http.MethodGet, "/movements?account_id="+suite.checking, nil)
	suite.Require().Equal(http.StatusOK, status)
	movements := response["data"].([]interface{})
	suite.Require().Len(movements, 3)
	latest := movements[0].(map[string]interface{})
	assert.Equal(suite.T(), "TRANSFER", latest["category"])
	assert.Equal(suite.T(), "70.00", latest["amount"])

	status, response = suite.call(http.MethodGet, "/movements?page=9", nil)
	suite.Require().Equal(http.StatusOK, status)
	assert.Empty(suite.T(), response["data"])
}

func (suite *IntegrationTestSuite) stepConcurrentWithdrawals() {
	const workers = 20

	var wg sync.WaitGroup
	statuses := make(chan int, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, _ := suite.event("withdraw", suite.savings, "", "10.00")
			statuses <- status
		}()
	}
	wg.Wait()
	close(statuses)

	succeeded := 0
	for status := range statuses {
		if status == http.StatusCreated {
			succeeded++
		} else {
			assert.Equal(suite.T(), http.StatusUnprocessableEntity, status)
		}
	}
	assert.Equal(suite.T(), 7, succeeded)
	suite.assertDecimalEqual("0", suite.balance(suite.savings))
}

func (suite *IntegrationTestSuite) stepMissingOwner() {
	resp, err := suite.client.Get(suite.baseURL + "/accounts")
	suite.Require().NoError(err)
	resp.Body.Close()
	assert.Equal(suite.T(), http.StatusUnauthorized, resp.StatusCode)
}

func (suite *IntegrationTestSuite) TestFlow() {
	if testing.Short() {
		suite.T().Skip("Skipping integration test in short mode")
	}

	suite.stepHealthCheck()
	suite.stepCreateAccounts()
	suite.stepDepositWithdrawTransfer()
	suite.stepInsufficientBalance()
	suite.stepRejectedEvents()
	suite.stepAccountNotFound()
	suite.stepDuplicateAccountCreation()
	suite.stepListings()
	suite.stepConcurrentWithdrawals()
	suite.stepMissingOwner()
}

func TestIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	suite.Run(t, new(IntegrationTestSuite))
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"account-ledger/internal/domain"
	"account-ledger/internal/errors"
)

const initialDepositDescription = "Initial deposit"

type CreateAccountInput struct {
	Name           string
	AccountNumber  string
	Agency         string
	Type           domain.AccountType
	BankName       string
	BankCode       string
	InitialBalance decimal.Decimal
}

type AccountService struct {
	store  domain.Store
	logger *slog.Logger
}

func NewAccountService(store domain.Store, logger *slog.Logger) *AccountService {
	return &AccountService{
		store:  store,
		logger: logger,
	}
}

// CreateAccount registers an account and, when the initial balance is
// positive, its opening DEPOSIT statement in the same transaction.
func (s *AccountService) CreateAccount(ctx context.Context, ownerID uuid.UUID, in CreateAccountInput) (*domain.AccountView, error) {
	s.logger.Info("Creating account",
		"owner_id", ownerID,
		"account_number", in.AccountNumber,
		"initial_balance", in.InitialBalance)

	if ownerID == uuid.Nil {
		return nil, errors.ErrUnauthorized
	}
	if err := normalizeAccountInput(&in); err != nil {
		return nil, err
	}

	existing, err := s.store.Account().FindByOwnerAndNumber(ctx, ownerID, in.AccountNumber)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.logger.Warn("Account number already registered for owner",
			"owner_id", ownerID, "account_number", in.AccountNumber)
		return nil, errors.ErrDuplicateAccount.WithDetails(
			fmt.Sprintf("account %s already exists", in.AccountNumber))
	}

	account := &domain.Account{
		ID:            uuid.New(),
		Name:          in.Name,
		AccountNumber: in.AccountNumber,
		Agency:        in.Agency,
		Type:          in.Type,
		Status:        domain.AccountStatusActive,
		BankName:      in.BankName,
		BankCode:      in.BankCode,
		OwnerID:       ownerID,
	}

	err = s.store.WithTransaction(ctx, func(tx domain.Store) error {
		if err := tx.Account().CreateAccount(ctx, account); err != nil {
			return err
		}
		if !in.InitialBalance.IsPositive() {
			return nil
		}
		opening := domain.NewDepositStatement(account.ID, in.InitialBalance, initialDepositDescription, now())
		return tx.Statement().CreateStatement(ctx, opening)
	})
	if err != nil {
		s.logger.Error("Account creation failed", "owner_id", ownerID, "error", err)
		return nil, err
	}

	balance, err := s.store.Statement().CurrentBalance(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Account created successfully", "account_id", account.ID, "balance", balance)
	return &domain.AccountView{Account: *account, Balance: balance}, nil
}

// GetBalance returns the derived balance of an existing account.
func (s *AccountService) GetBalance(ctx context.Context, accountID uuid.UUID) (*domain.AccountBalance, error) {
	s.logger.Info("Getting account balance", "account_id", accountID)

	exists, err := s.store.Account().Exists(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.ErrAccountNotFound
	}

	return balanceOf(ctx, s.store, accountID)
}

// ListAccounts pages through the owner's accounts, each paired with its
// derived balance.
func (s *AccountService) ListAccounts(ctx context.Context, ownerID uuid.UUID, filter domain.AccountFilter) (*domain.Page[domain.AccountView], error) {
	s.logger.Info("Listing accounts", "owner_id", ownerID)

	filter.Pagination = filter.Pagination.Normalize()
	accounts, total, err := s.store.Account().ListAccounts(ctx, ownerID, filter)
	if err != nil {
		return nil, err
	}

	views := make([]domain.AccountView, 0, len(accounts))
	for _, account := range accounts {
		balance, err := s.store.Statement().CurrentBalance(ctx, account.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, domain.AccountView{Account: account, Balance: balance})
	}

	return domain.NewPage(views, filter.Pagination, total), nil
}

func normalizeAccountInput(in *CreateAccountInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.AccountNumber = strings.TrimSpace(in.AccountNumber)
	in.Agency = strings.TrimSpace(in.Agency)
	in.BankName = strings.TrimSpace(in.BankName)
	in.BankCode = strings.TrimSpace(in.BankCode)
	if in.Type == "" {
		in.Type = domain.AccountTypeChecking
	}

	fields := []struct {
		name     string
		value    string
		required bool
		max      int
	}{
		{"name", in.Name, false, 100},
		{"account_number", in.AccountNumber, true, 20},
		{"agency", in.Agency, true, 10},
		{"bank_name", in.BankName, true, 100},
		{"bank_code", in.BankCode, true, 10},
	}
	for _, f := range fields {
		if f.required && f.value == "" {
			return errors.NewAppErrorf(errors.InvalidInput, "%s is required", f.name)
		}
		if len(f.value) > f.max {
			return errors.NewAppErrorf(errors.InvalidInput, "%s must be at most %d characters", f.name, f.max)
		}
	}

	if !in.Type.IsValid() {
		return errors.NewAppErrorf(errors.InvalidInput, "unsupported account type %q", in.Type)
	}
	if in.InitialBalance.IsNegative() {
		return errors.ErrInvalidAmount.WithDetails("initial balance cannot be negative")
	}
	if in.InitialBalance.IsPositive() {
		if err := domain.ValidateAmount(in.InitialBalance); err != nil {
			return errors.ErrInvalidAmount.WithDetails(err.Error())
		}
	}
	return nil
}

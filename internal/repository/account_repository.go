package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"account-ledger/internal/domain"
	"account-ledger/internal/errors"
)

const accountColumns = `a.id, a.name, a.account_number, a.agency, a.account_type, a.status,
		a.bank_name, a.bank_code, a.owner_id, a.created_at, a.updated_at, a.deleted_at`

var accountOrderColumns = map[domain.AccountOrderBy]string{
	domain.OrderByCreatedAt:     "a.created_at",
	domain.OrderByAccountNumber: "a.account_number",
	domain.OrderByName:          "a.name",
}

type accountRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewAccountRepository(db SQLExecutor, logger *slog.Logger) domain.AccountRepository {
	return &accountRepository{
		db:     db,
		logger: logger,
	}
}

func (r *accountRepository) CreateAccount(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts
		(id, name, account_number, agency, account_type, status, bank_name, bank_code, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	now := time.Now().UTC()
	var name interface{}
	if account.Name != "" {
		name = account.Name
	}

	_, err := r.db.ExecContext(ctx,
		query,
		account.ID,
		name,
		account.AccountNumber,
		account.Agency,
		string(account.Type),
		string(account.Status),
		account.BankName,
		account.BankCode,
		account.OwnerID,
		now,
		now,
	)

	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			r.logger.Warn("Duplicate account creation attempt",
				"owner_id", account.OwnerID, "account_number", account.AccountNumber)
			return errors.ErrDuplicateAccount
		}
		r.logger.Error("Failed to create account", "account_id", account.ID, "error", err)
		return errors.Wrap(errors.InternalError, "failed to create account", err)
	}

	account.CreatedAt = now
	account.UpdatedAt = now
	r.logger.Info("Account created successfully", "account_id", account.ID)
	return nil
}

func (r *accountRepository) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts a WHERE a.id = $1 AND a.deleted_at IS NULL`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			r.logger.Warn("Account not found", "account_id", id)
			return nil, errors.ErrAccountNotFound
		}
		r.logger.Error("Failed to get account", "account_id", id, "error", err)
		return nil, errors.Wrap(errors.InternalError, "failed to get account", err)
	}
	return account, nil
}

func (r *accountRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1 AND deleted_at IS NULL)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		r.logger.Error("Failed to check account existence", "account_id", id, "error", err)
		return false, errors.Wrap(errors.InternalError, "failed to check account", err)
	}
	return exists, nil
}

func (r *accountRepository) FindByOwnerAndNumber(ctx context.Context, ownerID uuid.UUID, accountNumber string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts a
		WHERE a.owner_id = $1 AND a.account_number = $2 AND a.deleted_at IS NULL
		LIMIT 1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, ownerID, accountNumber))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to find account by number",
			"owner_id", ownerID, "account_number", accountNumber, "error", err)
		return nil, errors.Wrap(errors.InternalError, "failed to find account", err)
	}
	return account, nil
}

// LockAccounts takes FOR UPDATE row locks in ascending id order so that two
// transactions touching the same pair of accounts always queue instead of
// deadlocking.
func (r *accountRepository) LockAccounts(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*domain.Account, error) {
	keys := sortedUniqueIDs(ids)
	if len(keys) == 0 {
		return map[uuid.UUID]*domain.Account{}, nil
	}

	query := `SELECT ` + accountColumns + ` FROM accounts a
		WHERE a.id = ANY($1::uuid[]) AND a.deleted_at IS NULL
		ORDER BY a.id
		FOR UPDATE`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(keys))
	if err != nil {
		r.logger.Error("Failed to lock accounts", "account_ids", keys, "error", err)
		return nil, errors.Wrap(errors.InternalError, "failed to lock accounts", err)
	}
	defer rows.Close()

	locked := make(map[uuid.UUID]*domain.Account, len(keys))
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, errors.Wrap(errors.InternalError, "failed to scan account", err)
		}
		locked[account.ID] = account
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.InternalError, "failed to lock accounts", err)
	}

	r.logger.Debug("Accounts locked", "account_ids", keys, "found", len(locked))
	return locked, nil
}

func (r *accountRepository) ListAccounts(ctx context.Context, ownerID uuid.UUID, filter domain.AccountFilter) ([]domain.Account, int, error) {
	w := &whereBuilder{}
	w.and("a.owner_id = " + w.arg(ownerID))
	w.and("a.deleted_at IS NULL")
	if filter.Type != "" {
		w.and("a.account_type = " + w.arg(string(filter.Type)))
	}
	if filter.Status != "" {
		w.and("a.status = " + w.arg(string(filter.Status)))
	}
	if filter.Search != "" {
		p := w.arg(containsPattern(filter.Search))
		w.and(fmt.Sprintf("(a.name ILIKE %s OR a.account_number ILIKE %s)", p, p))
	}
	w.dateRange("a.created_at", filter.Created)

	var total int
	countQuery := `SELECT COUNT(*) FROM accounts a` + w.String()
	if err := r.db.QueryRowContext(ctx, countQuery, w.args...).Scan(&total); err != nil {
		r.logger.Error("Failed to count accounts", "owner_id", ownerID, "error", err)
		return nil, 0, errors.Wrap(errors.InternalError, "failed to count accounts", err)
	}

	column, ok := accountOrderColumns[filter.OrderBy]
	if !ok {
		column = accountOrderColumns[domain.OrderByCreatedAt]
	}
	direction := "DESC"
	if filter.Sort == domain.SortAsc {
		direction = "ASC"
	}

	page := filter.Pagination.Normalize()
	query := fmt.Sprintf(`SELECT %s FROM accounts a%s ORDER BY %s %s, a.id %s LIMIT %s OFFSET %s`,
		accountColumns, w.String(), column, direction, direction, w.arg(page.Limit), w.arg(page.Offset()))

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		r.logger.Error("Failed to list accounts", "owner_id", ownerID, "error", err)
		return nil, 0, errors.Wrap(errors.InternalError, "failed to list accounts", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, 0, errors.Wrap(errors.InternalError, "failed to scan account", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(errors.InternalError, "failed to list accounts", err)
	}
	return accounts, total, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var account domain.Account
	var name sql.NullString
	var accountType, status string
	var deletedAt sql.NullTime

	err := row.Scan(
		&account.ID,
		&name,
		&account.AccountNumber,
		&account.Agency,
		&accountType,
		&status,
		&account.BankName,
		&account.BankCode,
		&account.OwnerID,
		&account.CreatedAt,
		&account.UpdatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	account.Name = name.String
	account.Type = domain.AccountType(accountType)
	account.Status = domain.AccountStatus(status)
	if deletedAt.Valid {
		t := deletedAt.Time
		account.DeletedAt = &t
	}
	return &account, nil
}

func sortedUniqueIDs(ids []uuid.UUID) []string {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		keys = append(keys, id.String())
	}
	sort.Strings(keys)
	return keys
}

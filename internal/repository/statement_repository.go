package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"account-ledger/internal/domain"
	"account-ledger/internal/errors"
)

// balanceQuery must stay in step with domain.Statement.Contribution: CASE
// branches are evaluated in order and the first match wins.
const balanceQuery = `
	SELECT COALESCE(SUM(
		CASE
			WHEN s.destination_account_id = $1 AND s.transaction_type = 'DEPOSIT' THEN s.amount
			WHEN s.origin_account_id = $1 AND s.transaction_type = 'DEBIT' AND s.category <> 'TRANSFER' THEN -s.amount
			WHEN s.destination_account_id = $1 AND s.category = 'TRANSFER' THEN s.amount
			WHEN s.origin_account_id = $1 AND s.category = 'TRANSFER' THEN -s.amount
			ELSE 0
		END
	), 0)::TEXT
	FROM account_statements s
	WHERE s.origin_account_id = $1 OR s.destination_account_id = $1
`

type statementRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewStatementRepository(db SQLExecutor, logger *slog.Logger) domain.StatementRepository {
	return &statementRepository{
		db:     db,
		logger: logger,
	}
}

func (r *statementRepository) CreateStatement(ctx context.Context, statement *domain.Statement) error {
	if err := statement.Validate(); err != nil {
		return errors.NewAppError(errors.InvalidInput, "invalid statement").WithDetails(err.Error())
	}

	query := `
		INSERT INTO account_statements
		(id, transaction_type, category, amount, description, external_reference,
		 processed_at, created_at, origin_account_id, destination_account_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		query,
		statement.ID,
		string(statement.Type),
		string(statement.Category),
		statement.Amount.StringFixed(domain.AmountScale),
		nullString(statement.Description),
		nullString(statement.ExternalReference),
		nullTimePtr(statement.ProcessedAt),
		now,
		nullUUID(statement.OriginAccountID),
		nullUUID(statement.DestinationAccountID),
	)

	if err != nil {
		r.logger.Error("Failed to create statement",
			"statement_id", statement.ID,
			"category", statement.Category,
			"amount", statement.Amount,
			"error", err)
		return errors.Wrap(errors.InternalError, "failed to create statement", err)
	}

	statement.CreatedAt = now
	r.logger.Info("Statement created successfully",
		"statement_id", statement.ID,
		"transaction_type", statement.Type,
		"category", statement.Category)
	return nil
}

func (r *statementRepository) CurrentBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	var balanceStr string
	if err := r.db.QueryRowContext(ctx, balanceQuery, accountID).Scan(&balanceStr); err != nil {
		r.logger.Error("Failed to derive balance", "account_id", accountID, "error", err)
		return decimal.Zero, errors.Wrap(errors.InternalError, "failed to derive balance", err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		r.logger.Error("Failed to parse balance", "account_id", accountID, "balance_str", balanceStr, "error", err)
		return decimal.Zero, errors.Wrap(errors.InternalError, "failed to parse balance", err)
	}
	return balance, nil
}

func (r *statementRepository) ListMovements(ctx context.Context, ownerID uuid.UUID, filter domain.MovementFilter) ([]domain.Movement, int, error) {
	w := &whereBuilder{}
	owner := w.arg(ownerID)
	w.and(fmt.Sprintf("(o.owner_id = %s OR d.owner_id = %s)", owner, owner))
	if filter.AccountID != nil {
		id := w.arg(*filter.AccountID)
		w.and(fmt.Sprintf("(s.origin_account_id = %s OR s.destination_account_id = %s)", id, id))
	}
	if filter.Type != "" {
		w.and("s.transaction_type = " + w.arg(string(filter.Type)))
	}
	if filter.Category != "" {
		w.and("s.category = " + w.arg(string(filter.Category)))
	}
	w.dateRange("s.created_at", filter.Created)
	if filter.Search != "" {
		p := w.arg(containsPattern(filter.Search))
		w.and(fmt.Sprintf(
			"(o.name ILIKE %s OR o.account_number ILIKE %s OR d.name ILIKE %s OR d.account_number ILIKE %s)",
			p, p, p, p))
	}

	from := `
		FROM account_statements s
		LEFT JOIN accounts o ON o.id = s.origin_account_id
		LEFT JOIN accounts d ON d.id = s.destination_account_id`

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+from+w.String(), w.args...).Scan(&total); err != nil {
		r.logger.Error("Failed to count movements", "owner_id", ownerID, "error", err)
		return nil, 0, errors.Wrap(errors.InternalError, "failed to count movements", err)
	}

	page := filter.Pagination.Normalize()
	query := `
		SELECT s.id, s.transaction_type, s.category, s.amount::TEXT, s.description, s.external_reference,
		       s.processed_at, s.created_at,
		       o.id, o.name, o.account_number,
		       d.id, d.name, d.account_number` + from + w.String() +
		` ORDER BY s.created_at DESC, s.id DESC LIMIT ` + w.arg(page.Limit) + ` OFFSET ` + w.arg(page.Offset())

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		r.logger.Error("Failed to list movements", "owner_id", ownerID, "error", err)
		return nil, 0, errors.Wrap(errors.InternalError, "failed to list movements", err)
	}
	defer rows.Close()

	var movements []domain.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, 0, errors.Wrap(errors.InternalError, "failed to scan movement", err)
		}
		movements = append(movements, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(errors.InternalError, "failed to list movements", err)
	}
	return movements, total, nil
}

func scanMovement(row rowScanner) (*domain.Movement, error) {
	var m domain.Movement
	var txType, category, amountStr string
	var description, externalRef sql.NullString
	var processedAt sql.NullTime
	var originID, destID uuid.NullUUID
	var originName, originNumber, destName, destNumber sql.NullString

	err := row.Scan(
		&m.ID,
		&txType,
		&category,
		&amountStr,
		&description,
		&externalRef,
		&processedAt,
		&m.CreatedAt,
		&originID,
		&originName,
		&originNumber,
		&destID,
		&destName,
		&destNumber,
	)
	if err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amountStr, err)
	}

	m.Type = domain.TransactionType(txType)
	m.Category = domain.Category(category)
	m.Amount = amount
	m.Description = description.String
	m.ExternalReference = externalRef.String
	if processedAt.Valid {
		t := processedAt.Time
		m.ProcessedAt = &t
	}
	if originID.Valid {
		m.Origin = &domain.MovementAccount{ID: originID.UUID, Name: originName.String, AccountNumber: originNumber.String}
	}
	if destID.Valid {
		m.Destination = &domain.MovementAccount{ID: destID.UUID, Name: destName.String, AccountNumber: destNumber.String}
	}
	return &m, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullUUID(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return *id
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/simaogato/assetmanager-backend/internal/domain"
)

// transactionRepository implements domain.TransactionRepository
type transactionRepository struct {
	q querier
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *DB) domain.TransactionRepository {
	return &transactionRepository{q: db}
}

const transactionColumns = `id, user_id, asset_id, transaction_type, quantity, price, total_amount, fee, tax,
	net_amount, transaction_date, notes, external_id, created_at, updated_at`

func scanTransaction(row interface{ Scan(...interface{}) error }) (*domain.Transaction, error) {
	var tx domain.Transaction
	var externalID sql.NullString

	err := row.Scan(
		&tx.ID,
		&tx.UserID,
		&tx.AssetID,
		&tx.Type,
		&tx.Quantity,
		&tx.Price,
		&tx.TotalAmount,
		&tx.Fee,
		&tx.Tax,
		&tx.NetAmount,
		&tx.TransactionDate,
		&tx.Notes,
		&externalID,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	tx.ExternalID = externalID.String
	return &tx, nil
}

// Create appends a transaction to the ledger
func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.q.ExecContext(ctx, query,
		tx.ID,
		tx.UserID,
		tx.AssetID,
		string(tx.Type),
		tx.Quantity.String(),
		tx.Price.String(),
		tx.TotalAmount.String(),
		tx.Fee.String(),
		tx.Tax.String(),
		tx.NetAmount.String(),
		tx.TransactionDate,
		tx.Notes,
		nullString(tx.ExternalID),
		tx.CreatedAt,
		tx.UpdatedAt,
	)
	if err != nil {
		return wrapError("insert transaction", err)
	}

	return nil
}

// GetByID retrieves a transaction by its ID
func (r *transactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	tx, err := scanTransaction(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapError(fmt.Sprintf("get transaction %s", id), err)
	}
	return tx, nil
}

// filterClause renders the WHERE clause shared by List and Count
func filterClause(userID uuid.UUID, filter domain.TransactionFilter) (string, []interface{}) {
	conds := []string{"user_id = $1"}
	args := []interface{}{userID}

	if filter.AssetID != nil {
		args = append(args, *filter.AssetID)
		conds = append(conds, fmt.Sprintf("asset_id = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		conds = append(conds, fmt.Sprintf("transaction_type = $%d", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		conds = append(conds, fmt.Sprintf("transaction_date >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		conds = append(conds, fmt.Sprintf("transaction_date <= $%d", len(args)))
	}

	return strings.Join(conds, " AND "), args
}

// List retrieves a user's transactions, newest first
func (r *transactionRepository) List(ctx context.Context, userID uuid.UUID, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	where, args := filterClause(userID, filter)
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + where +
		` ORDER BY transaction_date DESC, created_at DESC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapError("list transactions", err)
	}
	defer rows.Close()

	txs := make([]*domain.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, wrapError("scan transaction", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("iterate transactions", err)
	}
	return txs, nil
}

// Count returns the number of a user's transactions matching filter, ignoring paging
func (r *transactionRepository) Count(ctx context.Context, userID uuid.UUID, filter domain.TransactionFilter) (int, error) {
	where, args := filterClause(userID, filter)

	var count int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE `+where, args...).Scan(&count); err != nil {
		return 0, wrapError("count transactions", err)
	}
	return count, nil
}

// Summary aggregates buy/sell totals, fees and taxes for a user
func (r *transactionRepository) Summary(ctx context.Context, userID uuid.UUID) (*domain.TransactionSummary, error) {
	query := `
		SELECT COUNT(*),
			COALESCE(SUM(total_amount) FILTER (WHERE transaction_type = 'BUY'), 0),
			COALESCE(SUM(total_amount) FILTER (WHERE transaction_type = 'SELL'), 0),
			COALESCE(SUM(fee), 0),
			COALESCE(SUM(tax), 0)
		FROM transactions
		WHERE user_id = $1
	`

	var s domain.TransactionSummary
	err := r.q.QueryRowContext(ctx, query, userID).Scan(
		&s.Count,
		&s.TotalBuy,
		&s.TotalSell,
		&s.TotalFees,
		&s.TotalTax,
	)
	if err != nil {
		return nil, wrapError("summarize transactions", err)
	}
	return &s, nil
}

// Delete removes a transaction
func (r *transactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return wrapError("delete transaction", err)
	}
	return expectRow(res, fmt.Sprintf("delete transaction %s", id))
}

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ahmedtohamy-16/footygateway/internal/models"
)

// insertTransaction appends one entry to the audit trail. The table is
// append-only, nothing in the codebase updates or deletes from it.
func insertTransaction(ctx context.Context, tx *sql.Tx, userID int64, txType models.TransactionType, pool models.PointPool, amount, balanceBefore, balanceAfter int, description string) error {
	query := `
		INSERT INTO transactions (user_id, type, pool, amount, balance_before, balance_after, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := tx.ExecContext(ctx, query, userID, txType, pool, amount, balanceBefore, balanceAfter, description)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

// ListTransactionsByUser returns a user's transaction history, newest
// first.
func (db *DB) ListTransactionsByUser(ctx context.Context, userID int64, limit int) ([]*models.Transaction, error) {
	query := `
		SELECT id, user_id, type, pool, amount, balance_before, balance_after, description, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []*models.Transaction
	for rows.Next() {
		var t models.Transaction
		err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.Type,
			&t.Pool,
			&t.Amount,
			&t.BalanceBefore,
			&t.BalanceAfter,
			&t.Description,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return transactions, nil
}

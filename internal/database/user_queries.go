package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ahmedtohamy-16/footygateway/internal/models"
)

const userColumns = `id, telegram_id, username, free_points, premium_points, last_free_reset,
	referral_code, referred_by, referral_count, premium_warning_shown, is_active, created_at, updated_at`

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.TelegramID,
		&user.Username,
		&user.FreePoints,
		&user.PremiumPoints,
		&user.LastFreeReset,
		&user.ReferralCode,
		&user.ReferredBy,
		&user.ReferralCount,
		&user.PremiumWarningShown,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser registers a Telegram account. Registration is idempotent:
// a second call with the same telegram_id returns the existing row
// untouched and reports created=false. The initial free allotment is
// recorded on the audit trail in the same transaction.
func (db *DB) CreateUser(ctx context.Context, telegramID int64, username string, freePoints int, referralCode string) (*models.User, bool, error) {
	query := `
		INSERT INTO users (telegram_id, username, free_points, referral_code, last_free_reset)
		VALUES ($1, NULLIF($2, ''), $3, $4, NOW())
		ON CONFLICT (telegram_id) DO NOTHING
		RETURNING ` + userColumns

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin registration transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	user, err := scanUser(tx.QueryRowContext(ctx, query, telegramID, username, freePoints, referralCode))
	if err == nil {
		if err := insertTransaction(ctx, tx, user.ID, models.TxRegistration, models.PoolFree, freePoints, 0, freePoints, "initial free allotment"); err != nil {
			return nil, false, err
		}
		if err := tx.Commit(); err != nil {
			return nil, false, fmt.Errorf("failed to commit registration: %w", err)
		}
		return user, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}

	user, err = db.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, false, err
	}
	return user, false, nil
}

// GetUserByID retrieves a user by internal ID
func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByTelegramID retrieves a user by Telegram account ID
func (db *DB) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`

	user, err := scanUser(db.QueryRowContext(ctx, query, telegramID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by telegram id: %w", err)
	}
	return user, nil
}

// GetUserByReferralCode resolves a referral code to its active owner.
func (db *DB) GetUserByReferralCode(ctx context.Context, code string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE referral_code = $1 AND is_active = TRUE`

	user, err := scanUser(db.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidReferralCode
		}
		return nil, fmt.Errorf("failed to get user by referral code: %w", err)
	}
	return user, nil
}

// DeactivateUser soft-deletes an account. The row and its transaction
// history stay for audit, the account just stops resolving.
func (db *DB) DeactivateUser(ctx context.Context, id int64) error {
	query := `UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE id = $1`

	result, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deactivation result: %w", err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}

// lockUser reads a user row FOR UPDATE inside a transaction.
func lockUser(ctx context.Context, tx *sql.Tx, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`

	user, err := scanUser(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to lock user row: %w", err)
	}
	return user, nil
}

// touchUserBalances writes back the mutable ledger fields of a locked
// user row.
func touchUserBalances(ctx context.Context, tx *sql.Tx, user *models.User, resetAt *time.Time) error {
	query := `
		UPDATE users
		SET free_points = $2,
		    premium_points = $3,
		    referral_count = $4,
		    referred_by = $5,
		    premium_warning_shown = $6,
		    last_free_reset = COALESCE($7, last_free_reset),
		    updated_at = NOW()
		WHERE id = $1
	`

	var resetVal interface{}
	if resetAt != nil {
		resetVal = *resetAt
	}

	_, err := tx.ExecContext(ctx, query,
		user.ID,
		user.FreePoints,
		user.PremiumPoints,
		user.ReferralCount,
		user.ReferredBy,
		user.PremiumWarningShown,
		resetVal,
	)
	if err != nil {
		return fmt.Errorf("failed to update user balances: %w", err)
	}

	return nil
}

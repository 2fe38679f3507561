package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/ahmedtohamy-16/footygateway/internal/models"
)

// pq error code for unique constraint violations.
const uniqueViolation = "23505"

// ProcessReferral credits a completed referral: referrerBonus premium
// points to the code owner, referredBonus to the new user, one referral
// row and one transaction per credit, all in a single transaction. Both
// user rows are locked in id order to avoid deadlocks with concurrent
// deductions and referrals. The operation is idempotent per
// (referrer, referred) pair.
func (db *DB) ProcessReferral(ctx context.Context, referredID int64, code string, referrerBonus, referredBonus int) (*models.ReferralResult, error) {
	referrer, err := db.GetUserByReferralCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if referrer.ID == referredID {
		return nil, ErrSelfReferral
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin referral transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	firstID, secondID := referrer.ID, referredID
	if firstID > secondID {
		firstID, secondID = secondID, firstID
	}

	first, err := lockUser(ctx, tx, firstID)
	if err != nil {
		return nil, err
	}
	second, err := lockUser(ctx, tx, secondID)
	if err != nil {
		return nil, err
	}

	referrerRow, referredRow := first, second
	if referrerRow.ID != referrer.ID {
		referrerRow, referredRow = second, first
	}

	// Re-check under the lock, the resolved code owner may have been
	// deactivated since the lookup.
	if !referrerRow.IsActive {
		return nil, ErrInvalidReferralCode
	}
	if referredRow.ReferredBy.Valid {
		return nil, ErrAlreadyReferred
	}

	insertQuery := `
		INSERT INTO referrals (referrer_id, referred_id, code, status, points_awarded, completed_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	if _, err := tx.ExecContext(ctx, insertQuery, referrerRow.ID, referredRow.ID, code, models.ReferralStatusCompleted, referrerBonus); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return nil, ErrDuplicateReferral
		}
		return nil, fmt.Errorf("failed to insert referral: %w", err)
	}

	referrerBefore := referrerRow.PremiumPoints
	referrerRow.PremiumPoints += referrerBonus
	referrerRow.ReferralCount++

	referredBefore := referredRow.PremiumPoints
	referredRow.PremiumPoints += referredBonus
	referredRow.ReferredBy.Int64 = referrerRow.ID
	referredRow.ReferredBy.Valid = true

	if err := insertTransaction(ctx, tx, referrerRow.ID, models.TxReferral, models.PoolPremium, referrerBonus, referrerBefore, referrerRow.PremiumPoints, "referral bonus"); err != nil {
		return nil, err
	}
	if err := insertTransaction(ctx, tx, referredRow.ID, models.TxReferral, models.PoolPremium, referredBonus, referredBefore, referredRow.PremiumPoints, "referred signup bonus"); err != nil {
		return nil, err
	}

	if err := touchUserBalances(ctx, tx, referrerRow, nil); err != nil {
		return nil, err
	}
	if err := touchUserBalances(ctx, tx, referredRow, nil); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit referral: %w", err)
	}

	return &models.ReferralResult{
		Accepted:      true,
		ReferrerID:    referrerRow.ID,
		ReferrerBonus: referrerBonus,
		ReferredBonus: referredBonus,
	}, nil
}

// GetReferralStats aggregates a user's referrals, summing the points
// actually awarded per completed row.
func (db *DB) GetReferralStats(ctx context.Context, userID int64) (*models.ReferralStats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = $2),
		       COALESCE(SUM(points_awarded) FILTER (WHERE status = $2), 0)
		FROM referrals
		WHERE referrer_id = $1
	`

	var stats models.ReferralStats
	err := db.QueryRowContext(ctx, query, userID, models.ReferralStatusCompleted).Scan(&stats.TotalReferrals, &stats.CompletedReferrals, &stats.PointsEarned)
	if err != nil {
		return nil, fmt.Errorf("failed to get referral stats: %w", err)
	}

	return &stats, nil
}

// ListReferralsByUser returns the referrals a user has made, newest
// first.
func (db *DB) ListReferralsByUser(ctx context.Context, referrerID int64, limit int) ([]*models.Referral, error) {
	query := `
		SELECT id, referrer_id, referred_id, code, status, points_awarded, created_at, completed_at
		FROM referrals
		WHERE referrer_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := db.QueryContext(ctx, query, referrerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}
	defer rows.Close()

	var referrals []*models.Referral
	for rows.Next() {
		var ref models.Referral
		if err := rows.Scan(&ref.ID, &ref.ReferrerID, &ref.ReferredID, &ref.Code, &ref.Status, &ref.PointsAwarded, &ref.CreatedAt, &ref.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan referral: %w", err)
		}
		referrals = append(referrals, &ref)
	}

	return referrals, rows.Err()
}

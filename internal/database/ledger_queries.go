package database

import (
	"context"
	"fmt"
	"time"

	"github.com/ahmedtohamy-16/footygateway/internal/models"
)

// DeductPoint atomically charges one point for a feature request. The
// lazy daily reset of the free pool runs inside the same transaction,
// so a user crossing midnight can never observe a stale balance. Pools
// are tried strictly in order: free first, then premium.
func (db *DB) DeductPoint(ctx context.Context, userID int64, dailyAllotment int, description string) (*models.DeductResult, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin deduction transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	user, err := lockUser(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	now := time.Now()

	var resetAt *time.Time
	if user.NeedsDailyReset(now) {
		// The replenishment gets its own audit row before the deduction
		// so the balance chain stays reconstructible.
		if delta := dailyAllotment - user.FreePoints; delta != 0 {
			if err := insertTransaction(ctx, tx, user.ID, models.TxBonus, models.PoolFree, delta, user.FreePoints, dailyAllotment, "daily free pool reset"); err != nil {
				return nil, err
			}
		}
		user.FreePoints = dailyAllotment
		user.PremiumWarningShown = false
		resetAt = &now
	}

	result := &models.DeductResult{}

	switch {
	case user.FreePoints > 0:
		before := user.FreePoints
		user.FreePoints--
		result.PoolUsed = models.PoolFree
		if err := insertTransaction(ctx, tx, user.ID, models.TxRequest, models.PoolFree, -1, before, user.FreePoints, description); err != nil {
			return nil, err
		}
	case user.PremiumPoints > 0:
		before := user.PremiumPoints
		user.PremiumPoints--
		result.PoolUsed = models.PoolPremium
		if !user.PremiumWarningShown {
			result.ShowPremiumWarning = true
			user.PremiumWarningShown = true
		}
		if err := insertTransaction(ctx, tx, user.ID, models.TxRequest, models.PoolPremium, -1, before, user.PremiumPoints, description); err != nil {
			return nil, err
		}
	default:
		return nil, ErrInsufficientPoints
	}

	if err := touchUserBalances(ctx, tx, user, resetAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit deduction: %w", err)
	}

	result.RemainingFree = user.FreePoints
	result.RemainingPremium = user.PremiumPoints

	return result, nil
}

// CreditPoints adds points to one pool of a user, recording the grant
// in the transaction log. Used for admin adjustments and bonuses.
func (db *DB) CreditPoints(ctx context.Context, userID int64, pool models.PointPool, amount int, txType models.TransactionType, description string) error {
	if amount <= 0 {
		return fmt.Errorf("credit amount must be positive, got %d", amount)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin credit transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	user, err := lockUser(ctx, tx, userID)
	if err != nil {
		return err
	}

	var before, after int
	switch pool {
	case models.PoolFree:
		before = user.FreePoints
		user.FreePoints += amount
		after = user.FreePoints
	case models.PoolPremium:
		before = user.PremiumPoints
		user.PremiumPoints += amount
		after = user.PremiumPoints
	default:
		return fmt.Errorf("cannot credit pool %q", pool)
	}

	if err := insertTransaction(ctx, tx, user.ID, txType, pool, amount, before, after, description); err != nil {
		return err
	}
	if err := touchUserBalances(ctx, tx, user, nil); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit credit: %w", err)
	}

	return nil
}

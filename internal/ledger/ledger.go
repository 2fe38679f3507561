// Package ledger is the service layer over the points schema: account
// registration, per-request deduction and referral processing.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/ahmedtohamy-16/footygateway/internal/config"
	"github.com/ahmedtohamy-16/footygateway/internal/database"
	"github.com/ahmedtohamy-16/footygateway/internal/models"
)

const referralCodeLength = 8

// Ledger wires the points configuration to the database operations.
type Ledger struct {
	db     *database.DB
	points config.PointsConfig
	logger *zap.Logger
}

func New(db *database.DB, points config.PointsConfig, logger *zap.Logger) *Ledger {
	return &Ledger{
		db:     db,
		points: points,
		logger: logger,
	}
}

// newReferralCode derives a short uppercase code from a UUID. The
// users table enforces uniqueness, Register retries on the off chance
// of a collision.
func newReferralCode() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return strings.ToUpper(raw[:referralCodeLength])
}

// isCodeCollision reports whether CreateUser failed only because the
// generated referral code already exists. Any other failure is not
// worth retrying with a fresh code.
func isCodeCollision(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == "users_referral_code_key"
}

// Register creates an account for a Telegram user, or returns the
// existing one. New accounts start with the full daily free allotment.
// When a referral code accompanies a first registration it is applied
// after the account exists; a bad code rejects the referral, never the
// registration.
func (l *Ledger) Register(ctx context.Context, telegramID int64, username, referralCode string) (*models.User, bool, *models.ReferralResult, error) {
	var user *models.User
	var created bool
	var err error

	for attempt := 0; attempt < 3; attempt++ {
		user, created, err = l.db.CreateUser(ctx, telegramID, username, l.points.DailyFreeAllotment, newReferralCode())
		if err == nil || !isCodeCollision(err) {
			break
		}
	}
	if err != nil {
		return nil, false, nil, fmt.Errorf("failed to register user: %w", err)
	}

	if created {
		l.logger.Info("registered user",
			zap.Int64("telegram_id", telegramID),
			zap.Int64("user_id", user.ID),
		)
	}

	var referral *models.ReferralResult
	if created && referralCode != "" {
		referral = l.ApplyReferral(ctx, user.ID, referralCode)
		if referral.Accepted {
			// Pick up the credited premium balance and referred_by.
			if fresh, ferr := l.db.GetUserByID(ctx, user.ID); ferr == nil {
				user = fresh
			}
		}
	}

	return user, created, referral, nil
}

// GetUser resolves a Telegram account.
func (l *Ledger) GetUser(ctx context.Context, telegramID int64) (*models.User, error) {
	return l.db.GetUserByTelegramID(ctx, telegramID)
}

// DeductPoint charges one point for a feature request, free pool
// before premium, with the lazy daily reset applied on the way.
func (l *Ledger) DeductPoint(ctx context.Context, userID int64, description string) (*models.DeductResult, error) {
	return l.db.DeductPoint(ctx, userID, l.points.DailyFreeAllotment, description)
}

// ApplyReferral processes a referral code for a newly registered user.
// Rejections come back inside the result, only infrastructure failures
// are logged as errors; in both cases the caller gets a result it can
// show the user.
func (l *Ledger) ApplyReferral(ctx context.Context, referredID int64, code string) *models.ReferralResult {
	result, err := l.db.ProcessReferral(ctx, referredID, code, l.points.ReferrerBonus, l.points.ReferredBonus)
	if err == nil {
		l.logger.Info("referral completed",
			zap.Int64("referrer_id", result.ReferrerID),
			zap.Int64("referred_id", referredID),
		)
		return result
	}

	rejected := &models.ReferralResult{Accepted: false}
	switch {
	case errors.Is(err, database.ErrInvalidReferralCode):
		rejected.RejectReason = models.RejectInvalidCode
	case errors.Is(err, database.ErrSelfReferral):
		rejected.RejectReason = models.RejectSelfReferral
	case errors.Is(err, database.ErrAlreadyReferred), errors.Is(err, database.ErrDuplicateReferral):
		rejected.RejectReason = models.RejectDuplicate
	default:
		l.logger.Error("referral processing failed",
			zap.Int64("referred_id", referredID),
			zap.Error(err),
		)
		rejected.RejectReason = models.RejectInvalidCode
	}

	return rejected
}

// ReferralStats aggregates a user's completed referrals and the points
// they earned.
func (l *Ledger) ReferralStats(ctx context.Context, userID int64) (*models.ReferralStats, error) {
	return l.db.GetReferralStats(ctx, userID)
}

// Referrals lists a user's referrals, newest first.
func (l *Ledger) Referrals(ctx context.Context, userID int64, limit int) ([]*models.Referral, error) {
	return l.db.ListReferralsByUser(ctx, userID, limit)
}

// Transactions returns a user's audit trail, newest first.
func (l *Ledger) Transactions(ctx context.Context, userID int64, limit int) ([]*models.Transaction, error) {
	return l.db.ListTransactionsByUser(ctx, userID, limit)
}

// Deactivate soft-deletes an account.
func (l *Ledger) Deactivate(ctx context.Context, userID int64) error {
	return l.db.DeactivateUser(ctx, userID)
}

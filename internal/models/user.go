// Package models defines data structures for accounts, points, referrals and
// the transaction audit trail.
package models

import (
	"database/sql"
	"time"
)

// User represents a registered account with its two point pools
type User struct {
	ID                  int64          `json:"id"`
	TelegramID          int64          `json:"telegram_id"`
	Username            sql.NullString `json:"username"`
	FreePoints          int            `json:"free_points"`
	PremiumPoints       int            `json:"premium_points"`
	LastFreeReset       time.Time      `json:"last_free_reset"`
	ReferralCode        string         `json:"referral_code"`
	ReferredBy          sql.NullInt64  `json:"referred_by"`
	ReferralCount       int            `json:"referral_count"`
	PremiumWarningShown bool           `json:"premium_warning_shown"`
	IsActive            bool           `json:"is_active"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// TotalPoints returns the combined balance across both pools
func (u *User) TotalPoints() int {
	return u.FreePoints + u.PremiumPoints
}

// NeedsDailyReset reports whether the free pool should be replenished for
// the given date. The comparison is calendar-day based, not 24h based.
func (u *User) NeedsDailyReset(today time.Time) bool {
	y1, m1, d1 := u.LastFreeReset.Date()
	y2, m2, d2 := today.Date()
	if y1 != y2 {
		return y1 < y2
	}
	if m1 != m2 {
		return m1 < m2
	}
	return d1 < d2
}

// PointPool identifies which pool a deduction was taken from
type PointPool string

const (
	PoolFree    PointPool = "free"
	PoolPremium PointPool = "premium"
	PoolNone    PointPool = "none"
)

// DeductResult is the outcome of a single point deduction
type DeductResult struct {
	PoolUsed           PointPool `json:"pool_used"`
	RemainingFree      int       `json:"remaining_free"`
	RemainingPremium   int       `json:"remaining_premium"`
	ShowPremiumWarning bool      `json:"show_premium_warning"`
}

// Allowed reports whether the metered action may proceed
func (r *DeductResult) Allowed() bool {
	return r.PoolUsed != PoolNone
}

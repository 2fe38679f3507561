package models

import (
	"database/sql"
	"time"
)

// ReferralStatus represents the lifecycle state of a referral record
type ReferralStatus string

const (
	ReferralStatusPending   ReferralStatus = "pending"
	ReferralStatusCompleted ReferralStatus = "completed"
	ReferralStatusRejected  ReferralStatus = "rejected"
)

// IsValid reports whether the status is one of the known states
func (s ReferralStatus) IsValid() bool {
	switch s {
	case ReferralStatusPending, ReferralStatusCompleted, ReferralStatusRejected:
		return true
	default:
		return false
	}
}

// Referral represents a one-time referral relationship between two accounts.
// The (referrer_id, referred_id) pair is unique.
type Referral struct {
	ID            int64          `json:"id"`
	ReferrerID    int64          `json:"referrer_id"`
	ReferredID    int64          `json:"referred_id"`
	Code          string         `json:"code"`
	Status        ReferralStatus `json:"status"`
	PointsAwarded int            `json:"points_awarded"`
	CreatedAt     time.Time      `json:"created_at"`
	CompletedAt   sql.NullTime   `json:"completed_at"`
}

// ReferralRejectReason identifies why a referral was not applied
type ReferralRejectReason string

const (
	RejectInvalidCode  ReferralRejectReason = "invalid_code"
	RejectSelfReferral ReferralRejectReason = "self_referral"
	RejectDuplicate    ReferralRejectReason = "duplicate"
)

// ReferralResult is the outcome of processing a referral code
type ReferralResult struct {
	Accepted      bool                 `json:"accepted"`
	ReferrerID    int64                `json:"referrer_id,omitempty"`
	ReferrerBonus int                  `json:"referrer_bonus,omitempty"`
	ReferredBonus int                  `json:"referred_bonus,omitempty"`
	RejectReason  ReferralRejectReason `json:"reject_reason,omitempty"`
}

// ReferralStats aggregates a user's referral activity
type ReferralStats struct {
	TotalReferrals     int `json:"total_referrals"`
	CompletedReferrals int `json:"completed_referrals"`
	PointsEarned       int `json:"points_earned"`
}

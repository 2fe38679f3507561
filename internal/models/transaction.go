package models

import "time"

// TransactionType classifies a ledger transaction
type TransactionType string

const (
	TxRegistration    TransactionType = "registration"
	TxReferral        TransactionType = "referral"
	TxRequest         TransactionType = "request"
	TxBonus           TransactionType = "bonus"
	TxPenalty         TransactionType = "penalty"
	TxRefund          TransactionType = "refund"
	TxAdminAdjustment TransactionType = "admin_adjustment"
)

// IsValid reports whether the transaction type is known
func (t TransactionType) IsValid() bool {
	switch t {
	case TxRegistration, TxReferral, TxRequest, TxBonus, TxPenalty, TxRefund, TxAdminAdjustment:
		return true
	default:
		return false
	}
}

// Transaction is one append-only entry in the points audit trail. Summing
// Amount over a user's transactions in order reproduces the current combined
// balance.
type Transaction struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	Type          TransactionType `json:"type"`
	Pool          PointPool       `json:"pool"`
	Amount        int             `json:"amount"`
	BalanceBefore int             `json:"balance_before"`
	BalanceAfter  int             `json:"balance_after"`
	Description   string          `json:"description"`
	CreatedAt     time.Time       `json:"created_at"`
}

package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"household-module-ledger/internal/domain"
)

// refundCutoffDays is the hard threshold for the early-deactivation
// refund: strictly fewer elapsed whole days refunds the full token cost,
// at or past it nothing is refunded.
const refundCutoffDays = 15

// DefaultActivationCost is the token price of one module-month.
var DefaultActivationCost = decimal.NewFromInt(1)

// ModuleActivation is a time-bounded grant of a premium module to a user.
// Rows are kept for history; IsActive flips false on deactivation or
// expiry, and at most one row per (user, module) is active at a time.
type ModuleActivation struct {
	ID              string
	UserID          int64
	ModuleKey       string
	ActivatedAt     time.Time
	ExpiresAt       time.Time
	ActivationOrder int64 // strictly increasing per user, sweep tiebreak
	IsActive        bool
	TokenUsed       decimal.Decimal
	DeactivatedAt   *time.Time
}

// NewModuleActivation creates an active one-calendar-month activation.
func NewModuleActivation(userID int64, moduleKey string, activationOrder int64, tokenUsed decimal.Decimal, now time.Time) (*ModuleActivation, error) {
	if userID <= 0 || moduleKey == "" || activationOrder <= 0 || tokenUsed.Sign() <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &ModuleActivation{
		ID:              uuid.NewString(),
		UserID:          userID,
		ModuleKey:       moduleKey,
		ActivatedAt:     now,
		ExpiresAt:       now.AddDate(0, 1, 0),
		ActivationOrder: activationOrder,
		IsActive:        true,
		TokenUsed:       tokenUsed,
	}, nil
}

// Expired reports whether the activation's month has elapsed.
func (a *ModuleActivation) Expired(now time.Time) bool {
	return !a.ExpiresAt.After(now)
}

// RefundAmount computes the early-deactivation refund at the given time:
// the full token cost under the cutoff, zero at or past it. Natural
// expiry never refunds; callers must check Expired first.
func (a *ModuleActivation) RefundAmount(now time.Time) decimal.Decimal {
	elapsedDays := int(now.Sub(a.ActivatedAt).Hours() / 24)
	if elapsedDays < refundCutoffDays {
		return a.TokenUsed
	}
	return decimal.Zero
}

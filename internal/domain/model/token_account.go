package model

import (
	"time"

	"github.com/shopspring/decimal"

	"household-module-ledger/internal/domain"
)

// TokenAccount is the per-user token balance. One row per user; all
// balance mutations go through it paired with a ledger entry.
type TokenAccount struct {
	UserID         int64
	Balance        decimal.Decimal
	TotalPurchased decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewTokenAccount creates a zero-balance account. Accounts are created
// lazily on the first purchase or admin grant.
func NewTokenAccount(userID int64) (*TokenAccount, error) {
	if userID <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now().UTC()
	return &TokenAccount{
		UserID:         userID,
		Balance:        decimal.Zero,
		TotalPurchased: decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Credit returns the balance after adding amount. Amount must be positive.
func (a *TokenAccount) Credit(amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.Sign() <= 0 {
		return decimal.Zero, domain.ErrInvalidArgument
	}
	return a.Balance.Add(amount), nil
}

// Debit returns the balance after subtracting amount, failing with a
// structured InsufficientTokens error if the balance would go negative.
func (a *TokenAccount) Debit(amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.Sign() <= 0 {
		return decimal.Zero, domain.ErrInvalidArgument
	}
	if a.Balance.LessThan(amount) {
		return decimal.Zero, domain.NewInsufficientTokens(amount, a.Balance)
	}
	return a.Balance.Sub(amount), nil
}

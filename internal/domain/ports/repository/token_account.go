package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"household-module-ledger/internal/domain/model"
)

// TokenAccountRepository is the port for per-user token balances.
type TokenAccountRepository interface {
	Find(ctx context.Context, tx Tx, userID int64) (*model.TokenAccount, error)

	// FindForUpdate loads the account row with a row-level lock when tx is
	// a live transaction. All mutations of a user's account or activation
	// set take this lock first, serializing concurrent writers per user.
	FindForUpdate(ctx context.Context, tx Tx, userID int64) (*model.TokenAccount, error)

	// CreateIfAbsent lazily creates the zero-balance row (first purchase
	// or admin grant). Existing rows are left untouched.
	CreateIfAbsent(ctx context.Context, tx Tx, userID int64) error

	// UpdateBalance writes a new balance and adds purchasedDelta to the
	// lifetime counter. Callers pair every call with a ledger append in
	// the same transaction.
	UpdateBalance(ctx context.Context, tx Tx, userID int64, balance, purchasedDelta decimal.Decimal) error

	// TotalBalance sums all account balances (admin statistics).
	TotalBalance(ctx context.Context, tx Tx) (decimal.Decimal, error)
}

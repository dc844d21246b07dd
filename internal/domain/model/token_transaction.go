package model

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"household-module-ledger/internal/domain"
)

type TransactionType string

const (
	TransactionTypePurchase          TransactionType = "purchase"
	TransactionTypeAdminGrant        TransactionType = "admin_grant"
	TransactionTypeRefund            TransactionType = "refund"
	TransactionTypeDeduction         TransactionType = "deduction"
	TransactionTypeBalanceAdjustment TransactionType = "balance_adjustment"
)

type ReferenceType string

const (
	ReferenceTypePurchase           ReferenceType = "purchase"
	ReferenceTypeModuleActivation   ReferenceType = "module_activation"
	ReferenceTypeModuleDeactivation ReferenceType = "module_deactivation"
	ReferenceTypeAdminAction        ReferenceType = "admin_action"
)

// TokenTransaction is one append-only ledger row. Amount is signed:
// positive credits, negative debits. BalanceAfter must always equal
// BalanceBefore + Amount, and replaying a user's rows in (CreatedAt, ID)
// order from zero reproduces the account balance.
type TokenTransaction struct {
	ID              string // ULID, sortable so the created_at tiebreak is stable
	UserID          int64
	Type            TransactionType
	Amount          decimal.Decimal
	BalanceBefore   decimal.Decimal
	BalanceAfter    decimal.Decimal
	ReferenceType   ReferenceType
	ReferenceID     string
	VoucherID       *string
	VoucherDiscount *decimal.Decimal
	Description     string
	ProcessedBy     *string // admin actor, nil for user-initiated entries
	CreatedAt       time.Time
}

// NewTokenTransaction builds a ledger row from a before-balance and a
// signed amount, computing BalanceAfter so the prefix-sum chain holds by
// construction.
func NewTokenTransaction(userID int64, txType TransactionType, amount, balanceBefore decimal.Decimal, refType ReferenceType, refID, description string) (*TokenTransaction, error) {
	if userID <= 0 || amount.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	after := balanceBefore.Add(amount)
	if after.Sign() < 0 {
		return nil, domain.NewInsufficientTokens(amount.Neg(), balanceBefore)
	}
	return &TokenTransaction{
		ID:            NewTransactionID(),
		UserID:        userID,
		Type:          txType,
		Amount:        amount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  after,
		ReferenceType: refType,
		ReferenceID:   refID,
		Description:   description,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// Consistent reports whether the row's own balance arithmetic holds.
func (t *TokenTransaction) Consistent() bool {
	return t.BalanceAfter.Equal(t.BalanceBefore.Add(t.Amount))
}

// NewTransactionID returns a ULID string; ULIDs sort by creation time so
// ordering by id breaks created_at ties deterministically.
func NewTransactionID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader).String()
}

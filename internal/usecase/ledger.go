// File: internal/usecase/ledger.go
package usecase

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"household-module-ledger/internal/domain"
	"household-module-ledger/internal/domain/model"
	"household-module-ledger/internal/domain/ports/repository"
)

// balanceChange describes one atomic balance mutation: the signed token
// amount plus the ledger metadata recorded alongside it.
type balanceChange struct {
	Type            model.TransactionType
	Amount          decimal.Decimal // positive credit, negative debit
	ReferenceType   model.ReferenceType
	ReferenceID     string
	Description     string
	VoucherID       *string
	VoucherDiscount *decimal.Decimal
	ProcessedBy     *string
	CountPurchased  bool // add Amount to the lifetime total_purchased counter
}

// applyBalanceChange performs the single-source balance mutation: read the
// locked account, compute the new balance, write it, and append exactly one
// ledger row whose before/after match the read and the write. Must run
// inside the caller's transaction with the account row already creatable or
// present; a debit past zero fails before anything is written.
func applyBalanceChange(ctx context.Context, tx repository.Tx, accounts repository.TokenAccountRepository, ledger repository.TokenTransactionRepository, userID int64, ch balanceChange) (*model.TokenTransaction, error) {
	acct, err := accounts.FindForUpdate(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) && ch.Amount.Sign() < 0 {
			return nil, domain.NewInsufficientTokens(ch.Amount.Neg(), decimal.Zero)
		}
		return nil, err
	}

	var newBalance decimal.Decimal
	if ch.Amount.Sign() >= 0 {
		newBalance, err = acct.Credit(ch.Amount)
	} else {
		newBalance, err = acct.Debit(ch.Amount.Neg())
	}
	if err != nil {
		return nil, err
	}

	entry, err := model.NewTokenTransaction(userID, ch.Type, ch.Amount, acct.Balance, ch.ReferenceType, ch.ReferenceID, ch.Description)
	if err != nil {
		return nil, err
	}
	entry.VoucherID = ch.VoucherID
	entry.VoucherDiscount = ch.VoucherDiscount
	entry.ProcessedBy = ch.ProcessedBy

	purchasedDelta := decimal.Zero
	if ch.CountPurchased {
		purchasedDelta = ch.Amount
	}
	if err := accounts.UpdateBalance(ctx, tx, userID, newBalance, purchasedDelta); err != nil {
		return nil, err
	}
	if err := ledger.Append(ctx, tx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// File: internal/usecase/purchase_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"household-module-ledger/internal/domain"
	"household-module-ledger/internal/domain/model"
	"household-module-ledger/internal/domain/ports/repository"
	"household-module-ledger/internal/infra/logging"
)

// PurchaseResult is the outcome of a successful token purchase.
type PurchaseResult struct {
	Transaction   *model.TokenTransaction
	NewBalance    decimal.Decimal
	OriginalPrice decimal.Decimal
	Discount      decimal.Decimal
	FinalPrice    decimal.Decimal
}

// PurchaseUseCase converts a requested token quantity plus an optional
// voucher into a priced, ledgered credit of the user's account.
type PurchaseUseCase interface {
	Purchase(ctx context.Context, userID int64, tokenQty int64, voucherCode string) (*PurchaseResult, error)
	// UnitPrice returns the process-wide price of one token.
	UnitPrice() decimal.Decimal
}

var _ PurchaseUseCase = (*purchaseUC)(nil)

type purchaseUC struct {
	accounts  repository.TokenAccountRepository
	ledger    repository.TokenTransactionRepository
	vouchers  repository.VoucherRepository
	tx        repository.TransactionManager
	unitPrice decimal.Decimal
	log       *zerolog.Logger
}

func NewPurchaseUseCase(accounts repository.TokenAccountRepository, ledger repository.TokenTransactionRepository, vouchers repository.VoucherRepository, tx repository.TransactionManager, unitPrice decimal.Decimal, logger *zerolog.Logger) PurchaseUseCase {
	l := logger.With().Str("component", "PurchaseUC").Logger()
	return &purchaseUC{accounts: accounts, ledger: ledger, vouchers: vouchers, tx: tx, unitPrice: unitPrice, log: &l}
}

func (u *purchaseUC) UnitPrice() decimal.Decimal { return u.unitPrice }

// Purchase runs the whole flow as one transaction: voucher re-validation
// under lock, lazy account creation, balance credit, ledger row, and the
// voucher usage record. Any failure rolls the whole unit back.
func (u *purchaseUC) Purchase(ctx context.Context, userID int64, tokenQty int64, voucherCode string) (*PurchaseResult, error) {
	defer logging.TraceDuration(u.log, "PurchaseUC.Purchase")()
	if userID <= 0 || tokenQty <= 0 {
		return nil, domain.ErrInvalidArgument
	}

	qty := decimal.NewFromInt(tokenQty)
	price := qty.Mul(u.unitPrice)
	now := time.Now().UTC()
	purchaseID := uuid.NewString()

	var result *PurchaseResult
	err := u.tx.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var voucher *model.VoucherCode
		discount := decimal.Zero

		if voucherCode != "" {
			v, err := u.vouchers.FindByCode(ctx, tx, voucherCode)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return domain.ErrVoucherNotFound
				}
				return err
			}
			if err := v.Validate(price, now); err != nil {
				return err
			}
			used, err := u.vouchers.HasUsage(ctx, tx, v.ID, userID)
			if err != nil {
				return err
			}
			if used {
				return domain.ErrVoucherAlreadyUsed
			}
			voucher = v
			discount = v.Discount(price)
		}

		if err := u.accounts.CreateIfAbsent(ctx, tx, userID); err != nil {
			return err
		}

		ch := balanceChange{
			Type:           model.TransactionTypePurchase,
			Amount:         qty,
			ReferenceType:  model.ReferenceTypePurchase,
			ReferenceID:    purchaseID,
			Description:    fmt.Sprintf("purchase of %d tokens", tokenQty),
			CountPurchased: true,
		}
		if voucher != nil {
			ch.VoucherID = &voucher.ID
			ch.VoucherDiscount = &discount
		}
		entry, err := applyBalanceChange(ctx, tx, u.accounts, u.ledger, userID, ch)
		if err != nil {
			return err
		}

		if voucher != nil {
			usage, err := model.NewVoucherUsage(voucher.ID, userID, qty, price, discount)
			if err != nil {
				return err
			}
			usage.ID = purchaseID
			if err := u.vouchers.SaveUsage(ctx, tx, usage); err != nil {
				return err
			}
			if err := u.vouchers.IncrementUsage(ctx, tx, voucher.ID); err != nil {
				return err
			}
		}

		final := price.Sub(discount)
		if final.Sign() < 0 {
			final = decimal.Zero
		}
		result = &PurchaseResult{
			Transaction:   entry,
			NewBalance:    entry.BalanceAfter,
			OriginalPrice: price,
			Discount:      discount,
			FinalPrice:    final,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.log.Info().Int64("user_id", userID).Int64("qty", tokenQty).Str("final_price", result.FinalPrice.String()).Msg("purchase completed")
	return result, nil
}

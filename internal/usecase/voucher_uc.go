// File: internal/usecase/voucher_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"household-module-ledger/internal/domain"
	"household-module-ledger/internal/domain/model"
	"household-module-ledger/internal/domain/ports/repository"
)

// VoucherQuote is the outcome of validating a code against a prospective
// purchase amount. Validation never mutates usage counters.
type VoucherQuote struct {
	Voucher    *model.VoucherCode
	Discount   decimal.Decimal
	FinalPrice decimal.Decimal
}

// VoucherUseCase validates vouchers and manages their administration.
type VoucherUseCase interface {
	// Validate runs the full constraint chain (existence, window, usage
	// cap, minimum purchase) and computes the discount. Read-only.
	Validate(ctx context.Context, code string, purchaseAmount decimal.Decimal) (*VoucherQuote, error)

	// Create registers a new voucher code (admin).
	Create(ctx context.Context, code string, percent, fixed, minimum decimal.Decimal, maxUses *int, validFrom time.Time, validUntil *time.Time) (*model.VoucherCode, error)
}

var _ VoucherUseCase = (*voucherUC)(nil)

type voucherUC struct {
	vouchers repository.VoucherRepository
	log      *zerolog.Logger
}

func NewVoucherUseCase(vouchers repository.VoucherRepository, logger *zerolog.Logger) VoucherUseCase {
	l := logger.With().Str("component", "VoucherUC").Logger()
	return &voucherUC{vouchers: vouchers, log: &l}
}

func (u *voucherUC) Validate(ctx context.Context, code string, purchaseAmount decimal.Decimal) (*VoucherQuote, error) {
	if purchaseAmount.Sign() < 0 {
		return nil, domain.ErrInvalidArgument
	}
	v, err := u.vouchers.FindByCode(ctx, repository.NoTX, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrVoucherNotFound
		}
		return nil, err
	}
	if err := v.Validate(purchaseAmount, time.Now().UTC()); err != nil {
		return nil, err
	}
	discount := v.Discount(purchaseAmount)
	final := purchaseAmount.Sub(discount)
	if final.Sign() < 0 {
		final = decimal.Zero
	}
	return &VoucherQuote{Voucher: v, Discount: discount, FinalPrice: final}, nil
}

func (u *voucherUC) Create(ctx context.Context, code string, percent, fixed, minimum decimal.Decimal, maxUses *int, validFrom time.Time, validUntil *time.Time) (*model.VoucherCode, error) {
	v, err := model.NewVoucherCode(code, percent, fixed, minimum, maxUses, validFrom, validUntil)
	if err != nil {
		return nil, err
	}
	if existing, err := u.vouchers.FindByCode(ctx, repository.NoTX, v.Code); err == nil && existing != nil {
		return nil, domain.ErrAlreadyExists
	}
	if err := u.vouchers.Save(ctx, repository.NoTX, v); err != nil {
		return nil, err
	}
	u.log.Info().Str("code", v.Code).Msg("voucher created")
	return v, nil
}

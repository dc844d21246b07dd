package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"household-module-ledger/internal/domain"
)

// VoucherCode is a discount code redeemable against a token purchase.
// Only UsedCount mutates after creation, incremented on redemption.
type VoucherCode struct {
	ID              string
	Code            string
	DiscountPercent decimal.Decimal // 0..100
	DiscountFixed   decimal.Decimal // flat amount in purchase currency
	MinimumPurchase decimal.Decimal // zero means no minimum
	MaxUses         *int            // nil means unlimited
	UsedCount       int
	ValidFrom       time.Time
	ValidUntil      *time.Time // nil means no end
	IsActive        bool
	CreatedAt       time.Time
}

// NewVoucherCode validates and builds a voucher.
func NewVoucherCode(code string, percent, fixed, minimum decimal.Decimal, maxUses *int, validFrom time.Time, validUntil *time.Time) (*VoucherCode, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, domain.ErrInvalidArgument
	}
	if percent.Sign() < 0 || percent.GreaterThan(decimal.NewFromInt(100)) || fixed.Sign() < 0 || minimum.Sign() < 0 {
		return nil, domain.ErrInvalidArgument
	}
	if percent.IsZero() && fixed.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	if maxUses != nil && *maxUses <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &VoucherCode{
		ID:              uuid.NewString(),
		Code:            code,
		DiscountPercent: percent,
		DiscountFixed:   fixed,
		MinimumPurchase: minimum,
		MaxUses:         maxUses,
		ValidFrom:       validFrom,
		ValidUntil:      validUntil,
		IsActive:        true,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// Validate checks the voucher's constraints against a prospective
// purchase amount at the given time. It is read-only; redemption
// accounting happens in the purchase flow.
func (v *VoucherCode) Validate(purchaseAmount decimal.Decimal, now time.Time) error {
	if !v.IsActive {
		return domain.ErrVoucherNotFound
	}
	if now.Before(v.ValidFrom) {
		return domain.ErrVoucherExpired
	}
	if v.ValidUntil != nil && now.After(*v.ValidUntil) {
		return domain.ErrVoucherExpired
	}
	if v.MaxUses != nil && v.UsedCount >= *v.MaxUses {
		return domain.ErrVoucherExhausted
	}
	if v.MinimumPurchase.Sign() > 0 && purchaseAmount.LessThan(v.MinimumPurchase) {
		return domain.ErrMinimumPurchaseNotMet
	}
	return nil
}

// Discount computes the discount for a purchase amount: percentage plus
// fixed component, capped at the purchase amount so the final price is
// never negative.
func (v *VoucherCode) Discount(purchaseAmount decimal.Decimal) decimal.Decimal {
	d := purchaseAmount.Mul(v.DiscountPercent).Div(decimal.NewFromInt(100)).Add(v.DiscountFixed)
	if d.GreaterThan(purchaseAmount) {
		return purchaseAmount
	}
	return d
}

// VoucherUsage records one successful redemption. Append-only; the
// unique (voucher, user) pair enforces single redemption per user.
type VoucherUsage struct {
	ID              string
	VoucherID       string
	UserID          int64
	TokensPurchased decimal.Decimal
	OriginalPrice   decimal.Decimal
	DiscountAmount  decimal.Decimal
	FinalPrice      decimal.Decimal
	CreatedAt       time.Time
}

// NewVoucherUsage builds a redemption record for a priced purchase.
func NewVoucherUsage(voucherID string, userID int64, tokens, originalPrice, discount decimal.Decimal) (*VoucherUsage, error) {
	if voucherID == "" || userID <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	final := originalPrice.Sub(discount)
	if final.Sign() < 0 {
		final = decimal.Zero
	}
	return &VoucherUsage{
		ID:              uuid.NewString(),
		VoucherID:       voucherID,
		UserID:          userID,
		TokensPurchased: tokens,
		OriginalPrice:   originalPrice,
		DiscountAmount:  discount,
		FinalPrice:      final,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

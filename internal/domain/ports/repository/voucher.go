package repository

import (
	"context"

	"household-module-ledger/internal/domain/model"
)

// VoucherRepository is the port for voucher codes and their redemptions.
type VoucherRepository interface {
	// FindByCode looks a voucher up by its (case-insensitive) code. With a
	// live tx the row is locked FOR UPDATE so used_count increments do not
	// race past max_uses.
	FindByCode(ctx context.Context, tx Tx, code string) (*model.VoucherCode, error)
	Save(ctx context.Context, tx Tx, v *model.VoucherCode) error
	// IncrementUsage bumps used_count by one.
	IncrementUsage(ctx context.Context, tx Tx, voucherID string) error

	// HasUsage reports whether the user already redeemed the voucher.
	HasUsage(ctx context.Context, tx Tx, voucherID string, userID int64) (bool, error)
	SaveUsage(ctx context.Context, tx Tx, u *model.VoucherUsage) error
}

package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"household-module-ledger/internal/domain"
	"household-module-ledger/internal/domain/model"
	"household-module-ledger/internal/domain/ports/repository"
)

var _ repository.VoucherRepository = (*voucherRepo)(nil)

type voucherRepo struct {
	pool *pgxpool.Pool
}

func NewVoucherRepo(pool *pgxpool.Pool) *voucherRepo {
	return &voucherRepo{pool: pool}
}

const voucherColumns = `id, code, discount_percent::text, discount_fixed::text, minimum_purchase::text,
       max_uses, used_count, valid_from, valid_until, is_active, created_at`

// FindByCode locks the voucher row inside a transaction so concurrent
// redemptions serialize on the usage counter.
func (r *voucherRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.VoucherCode, error) {
	q := `
SELECT ` + voucherColumns + `
  FROM voucher_codes
 WHERE code = $1`
	if _, ok := tx.(pgx.Tx); ok {
		q += ` FOR UPDATE`
	}
	q += `;`
	row, err := pickRow(ctx, r.pool, tx, q, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	return scanVoucher(row)
}

func (r *voucherRepo) Save(ctx context.Context, tx repository.Tx, v *model.VoucherCode) error {
	const q = `
INSERT INTO voucher_codes (
  id, code, discount_percent, discount_fixed, minimum_purchase,
  max_uses, used_count, valid_from, valid_until, is_active, created_at
) VALUES ($1,$2,$3::numeric,$4::numeric,$5::numeric,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
  discount_percent=$3::numeric, discount_fixed=$4::numeric, minimum_purchase=$5::numeric,
  max_uses=$6, valid_from=$8, valid_until=$9, is_active=$10;`
	_, err := execSQL(ctx, r.pool, tx, q,
		v.ID, v.Code, v.DiscountPercent.String(), v.DiscountFixed.String(), v.MinimumPurchase.String(),
		v.MaxUses, v.UsedCount, v.ValidFrom, v.ValidUntil, v.IsActive, v.CreatedAt,
	)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return domain.ErrAlreadyExists
			}
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *voucherRepo) IncrementUsage(ctx context.Context, tx repository.Tx, voucherID string) error {
	const q = `UPDATE voucher_codes SET used_count = used_count + 1 WHERE id = $1;`
	ct, err := execSQL(ctx, r.pool, tx, q, voucherID)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *voucherRepo) HasUsage(ctx context.Context, tx repository.Tx, voucherID string, userID int64) (bool, error) {
	const q = `SELECT COUNT(1) FROM voucher_usages WHERE voucher_id = $1 AND user_id = $2;`
	row, err := pickRow(ctx, r.pool, tx, q, voucherID, userID)
	if err != nil {
		return false, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return n > 0, nil
}

func (r *voucherRepo) SaveUsage(ctx context.Context, tx repository.Tx, u *model.VoucherUsage) error {
	const q = `
INSERT INTO voucher_usages (id, voucher_id, user_id, tokens_purchased, original_price, discount_amount, final_price, created_at)
VALUES ($1,$2,$3,$4::numeric,$5::numeric,$6::numeric,$7::numeric,$8);`
	_, err := execSQL(ctx, r.pool, tx, q,
		u.ID, u.VoucherID, u.UserID, u.TokensPurchased.String(), u.OriginalPrice.String(), u.DiscountAmount.String(), u.FinalPrice.String(), u.CreatedAt,
	)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				// unique (voucher_id, user_id): one redemption per user
				return domain.ErrVoucherAlreadyUsed
			}
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func scanVoucher(row pgx.Row) (*model.VoucherCode, error) {
	var v model.VoucherCode
	var percent, fixed, minimum string
	if err := row.Scan(&v.ID, &v.Code, &percent, &fixed, &minimum,
		&v.MaxUses, &v.UsedCount, &v.ValidFrom, &v.ValidUntil, &v.IsActive, &v.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	var err error
	if v.DiscountPercent, err = decimal.NewFromString(percent); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	if v.DiscountFixed, err = decimal.NewFromString(fixed); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	if v.MinimumPurchase, err = decimal.NewFromString(minimum); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return &v, nil
}

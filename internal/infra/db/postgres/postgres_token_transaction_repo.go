package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"household-module-ledger/internal/domain"
	"household-module-ledger/internal/domain/model"
	"household-module-ledger/internal/domain/ports/repository"
)

var _ repository.TokenTransactionRepository = (*tokenTransactionRepo)(nil)

// tokenTransactionRepo is the append-only ledger. There is no update or
// delete path on purpose.
type tokenTransactionRepo struct {
	pool *pgxpool.Pool
}

func NewTokenTransactionRepo(pool *pgxpool.Pool) *tokenTransactionRepo {
	return &tokenTransactionRepo{pool: pool}
}

const txColumns = `id, user_id, type, amount::text, balance_before::text, balance_after::text,
       reference_type, reference_id, voucher_id, voucher_discount::text, description, processed_by, created_at`

func (r *tokenTransactionRepo) Append(ctx context.Context, tx repository.Tx, t *model.TokenTransaction) error {
	const q = `
INSERT INTO token_transactions (
  id, user_id, type, amount, balance_before, balance_after,
  reference_type, reference_id, voucher_id, voucher_discount, description, processed_by, created_at
) VALUES ($1,$2,$3,$4::numeric,$5::numeric,$6::numeric,$7,$8,$9,$10::numeric,$11,$12,$13);`

	var discount *string
	if t.VoucherDiscount != nil {
		s := t.VoucherDiscount.String()
		discount = &s
	}
	_, err := execSQL(ctx, r.pool, tx, q,
		t.ID, t.UserID, string(t.Type), t.Amount.String(), t.BalanceBefore.String(), t.BalanceAfter.String(),
		string(t.ReferenceType), t.ReferenceID, t.VoucherID, discount, t.Description, t.ProcessedBy, t.CreatedAt,
	)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *tokenTransactionRepo) ListByUser(ctx context.Context, tx repository.Tx, userID int64, offset, limit int) ([]*model.TokenTransaction, error) {
	const q = `
SELECT ` + txColumns + `
  FROM token_transactions
 WHERE user_id = $1
 ORDER BY created_at DESC, id DESC
 OFFSET $2 LIMIT $3;`
	return r.queryMany(ctx, tx, q, userID, offset, limit)
}

func (r *tokenTransactionRepo) ListAllByUser(ctx context.Context, tx repository.Tx, userID int64) ([]*model.TokenTransaction, error) {
	const q = `
SELECT ` + txColumns + `
  FROM token_transactions
 WHERE user_id = $1
 ORDER BY created_at ASC, id ASC;`
	return r.queryMany(ctx, tx, q, userID)
}

func (r *tokenTransactionRepo) queryMany(ctx context.Context, tx repository.Tx, sql string, args ...any) ([]*model.TokenTransaction, error) {
	rows, err := queryRows(ctx, r.pool, tx, sql, args...)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()
	var out []*model.TokenTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func scanTransaction(row pgx.Row) (*model.TokenTransaction, error) {
	var t model.TokenTransaction
	var txType, refType string
	var amount, before, after string
	var discount *string
	if err := row.Scan(&t.ID, &t.UserID, &txType, &amount, &before, &after,
		&refType, &t.ReferenceID, &t.VoucherID, &discount, &t.Description, &t.ProcessedBy, &t.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	t.Type = model.TransactionType(txType)
	t.ReferenceType = model.ReferenceType(refType)

	var err error
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	if t.BalanceBefore, err = decimal.NewFromString(before); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	if t.BalanceAfter, err = decimal.NewFromString(after); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	if discount != nil {
		d, err := decimal.NewFromString(*discount)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		t.VoucherDiscount = &d
	}
	return &t, nil
}

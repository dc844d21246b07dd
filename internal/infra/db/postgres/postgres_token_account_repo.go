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

var _ repository.TokenAccountRepository = (*tokenAccountRepo)(nil)

// tokenAccountRepo stores one row per user. NUMERIC columns travel as
// text so decimal values never pass through float64.
type tokenAccountRepo struct {
	pool *pgxpool.Pool
}

func NewTokenAccountRepo(pool *pgxpool.Pool) *tokenAccountRepo {
	return &tokenAccountRepo{pool: pool}
}

const accountColumns = `user_id, balance::text, total_purchased::text, created_at, updated_at`

func (r *tokenAccountRepo) Find(ctx context.Context, tx repository.Tx, userID int64) (*model.TokenAccount, error) {
	const q = `SELECT ` + accountColumns + ` FROM user_token_accounts WHERE user_id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	return scanAccount(row)
}

// FindForUpdate locks the account row for the rest of the transaction,
// serializing all balance mutations for the user. Callers must pass a
// live tx.
func (r *tokenAccountRepo) FindForUpdate(ctx context.Context, tx repository.Tx, userID int64) (*model.TokenAccount, error) {
	if _, ok := tx.(pgx.Tx); !ok {
		return nil, domain.ErrInvalidExecContext
	}
	const q = `SELECT ` + accountColumns + ` FROM user_token_accounts WHERE user_id = $1 FOR UPDATE;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	return scanAccount(row)
}

func (r *tokenAccountRepo) CreateIfAbsent(ctx context.Context, tx repository.Tx, userID int64) error {
	const q = `
INSERT INTO user_token_accounts (user_id, balance, total_purchased, created_at, updated_at)
VALUES ($1, 0, 0, NOW(), NOW())
ON CONFLICT (user_id) DO NOTHING;`
	_, err := execSQL(ctx, r.pool, tx, q, userID)
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

func (r *tokenAccountRepo) UpdateBalance(ctx context.Context, tx repository.Tx, userID int64, balance, purchasedDelta decimal.Decimal) error {
	const q = `
UPDATE user_token_accounts
   SET balance = $2::numeric,
       total_purchased = total_purchased + $3::numeric,
       updated_at = NOW()
 WHERE user_id = $1;`
	ct, err := execSQL(ctx, r.pool, tx, q, userID, balance.String(), purchasedDelta.String())
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			return domain.ErrOperationFailed
		}
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *tokenAccountRepo) TotalBalance(ctx context.Context, tx repository.Tx) (decimal.Decimal, error) {
	const q = `SELECT COALESCE(SUM(balance),0)::text FROM user_token_accounts;`
	row, err := pickRow(ctx, r.pool, tx, q)
	if err != nil {
		return decimal.Zero, err
	}
	var raw string
	if err := row.Scan(&raw); err != nil {
		return decimal.Zero, domain.ErrReadDatabaseRow
	}
	total, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, domain.ErrReadDatabaseRow
	}
	return total, nil
}

func scanAccount(row pgx.Row) (*model.TokenAccount, error) {
	var a model.TokenAccount
	var balance, purchased string
	if err := row.Scan(&a.UserID, &balance, &purchased, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	var err error
	if a.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	if a.TotalPurchased, err = decimal.NewFromString(purchased); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return &a, nil
}

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"household-module-ledger/internal/domain"
	"household-module-ledger/internal/domain/model"
	"household-module-ledger/internal/domain/ports/repository"
)

var _ repository.ActivationRepository = (*activationRepo)(nil)

// activationRepo persists the per-user module rental rows. A partial
// unique index on (user_id, module_key) WHERE is_active guarantees at
// most one live row per pair even under concurrent activations.
type activationRepo struct {
	pool *pgxpool.Pool
}

func NewActivationRepo(pool *pgxpool.Pool) *activationRepo {
	return &activationRepo{pool: pool}
}

const activationColumns = `id, user_id, module_key, activated_at, expires_at, activation_order, is_active, token_used::text, deactivated_at`

func (r *activationRepo) Save(ctx context.Context, tx repository.Tx, a *model.ModuleActivation) error {
	const q = `
INSERT INTO module_activations (
  id, user_id, module_key, activated_at, expires_at, activation_order, is_active, token_used, deactivated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8::numeric,$9);`
	_, err := execSQL(ctx, r.pool, tx, q,
		a.ID, a.UserID, a.ModuleKey, a.ActivatedAt, a.ExpiresAt, a.ActivationOrder, a.IsActive, a.TokenUsed.String(), a.DeactivatedAt,
	)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return domain.ErrAlreadyActive
			}
			return domain.ErrOperationFailed
		}
	}
	return nil
}

// FindActive locks the live row when called inside a transaction so
// deactivation and the expiry sweep serialize on it.
func (r *activationRepo) FindActive(ctx context.Context, tx repository.Tx, userID int64, moduleKey string) (*model.ModuleActivation, error) {
	q := `
SELECT ` + activationColumns + `
  FROM module_activations
 WHERE user_id = $1 AND module_key = $2 AND is_active = true`
	if _, ok := tx.(pgx.Tx); ok {
		q += ` FOR UPDATE`
	}
	q += `;`
	row, err := pickRow(ctx, r.pool, tx, q, userID, moduleKey)
	if err != nil {
		return nil, err
	}
	return scanActivation(row)
}

func (r *activationRepo) ListActiveByUser(ctx context.Context, tx repository.Tx, userID int64) ([]*model.ModuleActivation, error) {
	const q = `
SELECT ` + activationColumns + `
  FROM module_activations
 WHERE user_id = $1 AND is_active = true
 ORDER BY activation_order ASC;`
	return r.queryMany(ctx, tx, q, userID)
}

func (r *activationRepo) NextActivationOrder(ctx context.Context, tx repository.Tx, userID int64) (int64, error) {
	const q = `SELECT COALESCE(MAX(activation_order),0) + 1 FROM module_activations WHERE user_id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return 0, err
	}
	var next int64
	if err := row.Scan(&next); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return next, nil
}

// FindDue returns live rows whose expiry has passed, oldest expiry
// first with activation_order as tiebreak, locked for the sweep.
func (r *activationRepo) FindDue(ctx context.Context, tx repository.Tx, now time.Time) ([]*model.ModuleActivation, error) {
	q := `
SELECT ` + activationColumns + `
  FROM module_activations
 WHERE is_active = true AND expires_at <= $1
 ORDER BY expires_at ASC, activation_order ASC`
	if _, ok := tx.(pgx.Tx); ok {
		q += ` FOR UPDATE SKIP LOCKED`
	}
	q += `;`
	return r.queryMany(ctx, tx, q, now)
}

// MarkInactive flips the row off and reports whether this call did the
// flipping. The is_active predicate makes the sweep and an explicit
// deactivation race-safe: only one of them sees true.
func (r *activationRepo) MarkInactive(ctx context.Context, tx repository.Tx, id string, at time.Time) (bool, error) {
	const q = `
UPDATE module_activations
   SET is_active = false, deactivated_at = $2
 WHERE id = $1 AND is_active = true;`
	ct, err := execSQL(ctx, r.pool, tx, q, id, at)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return false, err
		default:
			return false, domain.ErrOperationFailed
		}
	}
	return ct.RowsAffected() > 0, nil
}

func (r *activationRepo) CountActiveByModule(ctx context.Context, tx repository.Tx) (map[string]int, error) {
	const q = `
SELECT module_key, COUNT(*)
  FROM module_activations
 WHERE is_active = true
 GROUP BY module_key;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	m := make(map[string]int)
	for rows.Next() {
		var key string
		var c int
		if err := rows.Scan(&key, &c); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		m[key] = c
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return m, nil
}

func (r *activationRepo) queryMany(ctx context.Context, tx repository.Tx, sql string, args ...any) ([]*model.ModuleActivation, error) {
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
	var out []*model.ModuleActivation
	for rows.Next() {
		a, err := scanActivation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func scanActivation(row pgx.Row) (*model.ModuleActivation, error) {
	var a model.ModuleActivation
	var tokenUsed string
	if err := row.Scan(&a.ID, &a.UserID, &a.ModuleKey, &a.ActivatedAt, &a.ExpiresAt, &a.ActivationOrder, &a.IsActive, &tokenUsed, &a.DeactivatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	var err error
	if a.TokenUsed, err = decimal.NewFromString(tokenUsed); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return &a, nil
}

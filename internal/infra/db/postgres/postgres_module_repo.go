package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"household-module-ledger/internal/domain"
	"household-module-ledger/internal/domain/model"
	"household-module-ledger/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.ModuleRepository = (*moduleRepo)(nil)

type moduleRepo struct {
	pool *pgxpool.Pool
}

func NewModuleRepo(pool *pgxpool.Pool) *moduleRepo {
	return &moduleRepo{pool: pool}
}

func (r *moduleRepo) FindByKey(ctx context.Context, tx repository.Tx, key string) (*model.Module, error) {
	const q = `
SELECT key, name, description, category, display_order, is_active, created_at
  FROM modules
 WHERE key = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, key)
	if err != nil {
		return nil, err
	}
	return scanModule(row)
}

func (r *moduleRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Module, error) {
	const q = `
SELECT key, name, description, category, display_order, is_active, created_at
  FROM modules
 ORDER BY display_order ASC, key ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()
	var out []*model.Module
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *moduleRepo) Save(ctx context.Context, tx repository.Tx, m *model.Module) error {
	const q = `
INSERT INTO modules (key, name, description, category, display_order, is_active, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (key) DO UPDATE SET
  name=$2, description=$3, category=$4, display_order=$5, is_active=$6;`
	_, err := execSQL(ctx, r.pool, tx, q, m.Key, m.Name, m.Description, string(m.Category), m.DisplayOrder, m.IsActive, m.CreatedAt)
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

func (r *moduleRepo) Deactivate(ctx context.Context, tx repository.Tx, key string) error {
	const q = `UPDATE modules SET is_active = false WHERE key = $1;`
	ct, err := execSQL(ctx, r.pool, tx, q, key)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanModule(row pgx.Row) (*model.Module, error) {
	var m model.Module
	var category string
	if err := row.Scan(&m.Key, &m.Name, &m.Description, &category, &m.DisplayOrder, &m.IsActive, &m.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	m.Category = model.ModuleCategory(category)
	return &m, nil
}

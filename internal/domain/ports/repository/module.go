package repository

import (
	"context"

	"household-module-ledger/internal/domain/model"
)

// ModuleRepository is the port for the static module registry.
type ModuleRepository interface {
	// FindByKey returns the registry entry regardless of its IsActive flag.
	FindByKey(ctx context.Context, tx Tx, key string) (*model.Module, error)
	// ListAll returns every registry entry ordered by display_order.
	ListAll(ctx context.Context, tx Tx) ([]*model.Module, error)
	Save(ctx context.Context, tx Tx, m *model.Module) error
	// Deactivate flips the registry-level kill switch; entries are never deleted.
	Deactivate(ctx context.Context, tx Tx, key string) error
}

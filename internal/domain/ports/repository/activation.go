package repository

import (
	"context"
	"time"

	"household-module-ledger/internal/domain/model"
)

// ActivationRepository is the port for module activation rows.
type ActivationRepository interface {
	Save(ctx context.Context, tx Tx, a *model.ModuleActivation) error

	// FindActive returns the single active row for (user, module), or
	// domain.ErrNotFound. With a live tx the row is locked FOR UPDATE so
	// deactivation can re-check is_active against a racing sweep.
	FindActive(ctx context.Context, tx Tx, userID int64, moduleKey string) (*model.ModuleActivation, error)

	// ListActiveByUser returns the user's active rows ordered by
	// activation_order.
	ListActiveByUser(ctx context.Context, tx Tx, userID int64) ([]*model.ModuleActivation, error)

	// NextActivationOrder returns max(prior orders for user) + 1. Must be
	// called inside the same transaction as the Save that uses it.
	NextActivationOrder(ctx context.Context, tx Tx, userID int64) (int64, error)

	// FindDue returns active rows with expires_at <= now, ordered by
	// expires_at then activation_order for deterministic sweep batches.
	FindDue(ctx context.Context, tx Tx, now time.Time) ([]*model.ModuleActivation, error)

	// MarkInactive flips is_active to false and stamps deactivated_at.
	// It reports false when the row was already inactive, so sweeps and
	// racing deactivations apply exactly once.
	MarkInactive(ctx context.Context, tx Tx, id string, at time.Time) (bool, error)

	// CountActiveByModule returns module_key -> active activation count.
	CountActiveByModule(ctx context.Context, tx Tx) (map[string]int, error)
}

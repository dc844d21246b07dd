package repository

import (
	"context"

	"household-module-ledger/internal/domain/model"
)

// TokenTransactionRepository is the port for the append-only ledger.
// There is deliberately no update or delete.
type TokenTransactionRepository interface {
	Append(ctx context.Context, tx Tx, t *model.TokenTransaction) error
	// ListByUser returns a page of the user's ledger, newest first.
	ListByUser(ctx context.Context, tx Tx, userID int64, offset, limit int) ([]*model.TokenTransaction, error)
	// ListAllByUser returns the full chain in (created_at, id) order,
	// oldest first, for balance reconstruction and audits.
	ListAllByUser(ctx context.Context, tx Tx, userID int64) ([]*model.TokenTransaction, error)
}

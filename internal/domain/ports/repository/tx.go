package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes a function within a database transaction,
// passing the underlying transaction handle via `tx`.
//
// Use-case code stays free of storage types: repositories accept `tx Tx`
// and detect a live transaction implementation-side (running
// SELECT ... FOR UPDATE, tx-bound Exec/Query and so on). Repositories
// MUST gracefully accept nil tx for the non-transactional path.
//
// Every balance mutation in this service runs inside WithTx so the
// account write and its ledger row commit or roll back together.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}

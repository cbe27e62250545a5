package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle threaded through repositories.
// The concrete type is infra-defined (pgx.Tx for Postgres); repositories
// must gracefully accept a nil Tx and fall back to the pool.
type Tx interface{}

// TransactionManager executes fn inside a database transaction, passing
// the transaction handle via tx. If fn returns an error the transaction
// is rolled back, otherwise committed. Keep this interface small.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}

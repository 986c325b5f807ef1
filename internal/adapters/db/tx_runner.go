// internal/adapters/db/tx_runner.go
package db

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/pviana/stockroom-be/internal/core/ports"
)

// TxRunner hands callbacks repositories bound to one PostgreSQL transaction.
// Row locks taken through those repositories (FindByIDForUpdate) hold until
// the transaction commits or rolls back, which serializes concurrent stock
// mutators of the same product.
type TxRunner struct {
	db     *Database
	logger *slog.Logger
}

// Statically assert that *TxRunner implements the TxRunner port.
var _ ports.TxRunner = (*TxRunner)(nil)

// NewTxRunner creates a new transaction runner
func NewTxRunner(db *Database, logger *slog.Logger) *TxRunner {
	return &TxRunner{db: db, logger: logger}
}

// InTx runs fn with tx-bound repositories inside one transaction
func (r *TxRunner) InTx(ctx context.Context, fn func(products ports.ProductRepository, movements ports.MovementRepository) error) error {
	return r.db.Transaction(ctx, func(tx pgx.Tx) error {
		return fn(
			NewProductRepository(tx, r.logger),
			NewMovementRepository(tx, r.logger),
		)
	})
}

// internal/core/ports/tx.go
package ports

import "context"

// TxRunner executes fn inside a single database transaction, passing it
// repositories bound to that transaction. If fn returns an error the
// transaction is rolled back in full; otherwise it commits. This is the
// ledger's atomicity primitive: the stock counter write and the movement row
// write either both land or neither does.
type TxRunner interface {
	InTx(ctx context.Context, fn func(products ProductRepository, movements MovementRepository) error) error
}

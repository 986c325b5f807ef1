// internal/core/ports/ledger_service.go
package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/pviana/stockroom-be/internal/core/domain"
)

// RecordMovement is the validated command to append one movement to the
// ledger. Handlers are responsible for parsing loose input (form/JSON
// strings) into this struct before it reaches the service.
type RecordMovement struct {
	ProductID uuid.UUID
	Type      domain.MovementType
	Qty       int
	Reason    string
}

// MovementReceipt reports a committed ledger operation together with the
// product's stock counter as written by the same transaction. ProductName
// and SKU come from the locked product row so callers can describe the
// product without a second read.
type MovementReceipt struct {
	Movement    domain.StockMovement `json:"movement"`
	Stock       int                  `json:"stock"`
	ProductName string               `json:"product_name"`
	SKU         string               `json:"sku"`
}

// ReversalReceipt reports a committed reversal.
type ReversalReceipt struct {
	ProductID uuid.UUID `json:"product_id"`
	Stock     int       `json:"stock"`
}

// LedgerService defines the application service port for the movement ledger.
// It is the sole writer of movement rows and the sole authority for stock
// changes caused by movements.
type LedgerService interface {
	Record(ctx context.Context, cmd RecordMovement) (*MovementReceipt, error)
	Reverse(ctx context.Context, movementID uuid.UUID) (*ReversalReceipt, error)
	History(ctx context.Context, params MovementListParams) ([]MovementWithProduct, error)
}

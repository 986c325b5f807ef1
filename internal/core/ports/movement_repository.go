// internal/core/ports/movement_repository.go
package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/pviana/stockroom-be/internal/core/domain"
)

// MovementRepository defines the persistence port for the stock ledger.
// Movement rows are inserted and deleted, never updated.
type MovementRepository interface {
	Insert(ctx context.Context, movement *domain.StockMovement) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.StockMovement, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListRecent(ctx context.Context, params MovementListParams) ([]MovementWithProduct, error)
	CountForProduct(ctx context.Context, productID uuid.UUID) (int64, error)
}

// MovementListParams holds filters for the movement history
type MovementListParams struct {
	// Type filters by direction when set; empty means both.
	Type  domain.MovementType
	Limit int
}

// MovementWithProduct is a history row joined with the owning product's name,
// for display without a second round trip.
type MovementWithProduct struct {
	domain.StockMovement
	ProductName string `json:"product_name"`
}

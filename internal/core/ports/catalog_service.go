// internal/core/ports/catalog_service.go
package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/pviana/stockroom-be/internal/core/domain"
)

// CatalogService defines the application service port for the product
// registry. Catalog edits may overwrite the stock counter directly: they are
// corrections, not ledger events, and bypass movement validation by design.
type CatalogService interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	// Update overwrites the catalog fields of the product identified by id.
	// An empty ImageURL means "keep the current image"; clearing an image is
	// not supported.
	Update(ctx context.Context, id uuid.UUID, product *domain.Product) (*domain.Product, error)
	// Delete removes a product. It fails with domain.ErrProductHasMovements
	// while ledger history still references the product.
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

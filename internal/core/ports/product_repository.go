// internal/core/ports/product_repository.go
package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/pviana/stockroom-be/internal/core/domain"
)

// ProductRepository defines the persistence port for the product registry.
// Find methods return (nil, nil) when no row matches.
type ProductRepository interface {
	Save(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	// UpdateStock overwrites only the stock counter (and updated_at).
	// Callers are responsible for never writing a negative value.
	UpdateStock(ctx context.Context, id uuid.UUID, stock int) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	// FindByIDForUpdate loads the product with a row lock so that concurrent
	// stock mutators serialize on the same row. Only meaningful on a
	// repository bound to a transaction (see TxRunner).
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Count(ctx context.Context) (int64, error)
	SumStock(ctx context.Context) (int64, error)
}

// ListParams holds filters for listing/searching the catalog
type ListParams struct {
	// Search is matched case-insensitively against name, SKU, category and
	// description.
	Search    string
	Category  string
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// ListResult holds one page of the catalog
type ListResult struct {
	Products   []*domain.Product `json:"products"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalCount int64             `json:"total_count"`
	TotalPages int               `json:"total_pages"`
}

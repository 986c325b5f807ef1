// internal/core/services/catalog.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/pviana/stockroom-be/internal/core/domain"
	"github.com/pviana/stockroom-be/internal/core/ports"
)

// CatalogService handles the product registry. Stock edits made here are
// out-of-band corrections and deliberately bypass movement validation, but
// they share the ledger's transaction primitive so an edit and a movement can
// never interleave on the same product row.
type CatalogService struct {
	products ports.ProductRepository
	tx       ports.TxRunner
	logger   *slog.Logger
}

// Statically assert that *CatalogService implements the CatalogService port.
var _ ports.CatalogService = (*CatalogService)(nil)

// NewCatalogService creates a new catalog service
func NewCatalogService(products ports.ProductRepository, tx ports.TxRunner, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		products: products,
		tx:       tx,
		logger:   logger.With(slog.String("service", "catalog")),
	}
}

// Create validates and persists a new product. Initial stock comes from the
// caller and defaults to zero.
func (s *CatalogService) Create(ctx context.Context, product *domain.Product) error {
	normalize(product)
	if err := product.Validate(); err != nil {
		return err
	}
	product.PrepareForStorage()

	if err := s.products.Save(ctx, product); err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID.String()),
		slog.String("name", product.Name),
		slog.Int("stock", product.Stock))

	return nil
}

// GetByID retrieves a product by id
func (s *CatalogService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	return product, nil
}

// Update overwrites the catalog fields of an existing product, including a
// direct stock correction. An empty ImageURL keeps the current image. The
// merge runs against a row-locked load so it cannot interleave with a ledger
// transaction on the same product.
func (s *CatalogService) Update(ctx context.Context, id uuid.UUID, product *domain.Product) (*domain.Product, error) {
	normalize(product)

	var updated *domain.Product
	err := s.tx.InTx(ctx, func(products ports.ProductRepository, _ ports.MovementRepository) error {
		current, err := products.FindByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load product: %w", err)
		}
		if current == nil {
			return fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
		}

		current.Name = product.Name
		current.SKU = product.SKU
		current.Category = product.Category
		current.Description = product.Description
		current.CostPrice = product.CostPrice
		current.SalePrice = product.SalePrice
		current.Stock = product.Stock
		if product.ImageURL != "" {
			current.ImageURL = product.ImageURL
		}

		if err := current.Validate(); err != nil {
			return err
		}
		current.PrepareForStorage()

		if err := products.Update(ctx, current); err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "product updated",
		slog.String("product_id", id.String()),
		slog.Int("stock", updated.Stock))

	return updated, nil
}

// Delete removes a product. Deletion is blocked while movement history still
// references it; reversing or clearing the history first is the caller's job.
func (s *CatalogService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.tx.InTx(ctx, func(products ports.ProductRepository, movements ports.MovementRepository) error {
		product, err := products.FindByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load product: %w", err)
		}
		if product == nil {
			return fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
		}

		count, err := movements.CountForProduct(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to count movements: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: %d movements reference product %q",
				domain.ErrProductHasMovements, count, product.Name)
		}

		if err := products.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id.String()))
	return nil
}

// List returns one page of the catalog, filtered by the substring search and
// category parameters.
func (s *CatalogService) List(ctx context.Context, params ports.ListParams) (*ports.ListResult, error) {
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.PageSize <= 0 || params.PageSize > 200 {
		params.PageSize = 50
	}

	result, err := s.products.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return result, nil
}

// normalize trims free-text fields the way the edit forms submit them
func normalize(p *domain.Product) {
	p.Name = strings.TrimSpace(p.Name)
	p.SKU = strings.TrimSpace(p.SKU)
	p.Category = strings.TrimSpace(p.Category)
	p.Description = strings.TrimSpace(p.Description)
}

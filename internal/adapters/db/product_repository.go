// internal/adapters/db/product_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pviana/stockroom-be/internal/core/domain"
	"github.com/pviana/stockroom-be/internal/core/ports"
)

const productColumns = `id, name, sku, category, description, image_url,
	cost_price, sale_price, stock, created_at, updated_at`

// productRepository implements ports.ProductRepository against a Querier,
// which may be the shared pool or one transaction.
type productRepository struct {
	q      Querier
	logger *slog.Logger
}

// NewProductRepository creates a new product repository
func NewProductRepository(q Querier, logger *slog.Logger) ports.ProductRepository {
	return &productRepository{
		q:      q,
		logger: logger.With(slog.String("repository", "products")),
	}
}

// Save inserts a new product row
func (r *productRepository) Save(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (
			id, name, sku, category, description, image_url,
			cost_price, sale_price, stock, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.q.Exec(ctx, query,
		product.ID, product.Name,
		textOrNil(product.SKU), textOrNil(product.Category),
		textOrNil(product.Description), textOrNil(product.ImageURL),
		product.CostPrice, product.SalePrice, product.Stock,
		product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}

	r.logger.DebugContext(ctx, "product saved",
		slog.String("product_id", product.ID.String()))

	return nil
}

// Update overwrites all catalog fields of an existing row
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products SET
			name = $2, sku = $3, category = $4, description = $5,
			image_url = $6, cost_price = $7, sale_price = $8, stock = $9,
			updated_at = $10
		WHERE id = $1`

	tag, err := r.q.Exec(ctx, query,
		product.ID, product.Name,
		textOrNil(product.SKU), textOrNil(product.Category),
		textOrNil(product.Description), textOrNil(product.ImageURL),
		product.CostPrice, product.SalePrice, product.Stock,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, product.ID)
	}

	return nil
}

// UpdateStock writes only the stock counter
func (r *productRepository) UpdateStock(ctx context.Context, id uuid.UUID, stock int) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE products SET stock = $2, updated_at = $3 WHERE id = $1`,
		id, stock, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	return nil
}

// Delete removes a product row. The FK on stock_movements is RESTRICT, so the
// store itself refuses to orphan movement history.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	return nil
}

// FindByID returns the product or (nil, nil) when absent
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	row := r.q.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

// FindByIDForUpdate returns the product with its row locked for the duration
// of the surrounding transaction. Concurrent stock mutators of the same
// product serialize here.
func (r *productRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	row := r.q.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
	return scanProduct(row)
}

// List returns one page of products matching the filters
func (r *productRepository) List(ctx context.Context, params ports.ListParams) (*ports.ListResult, error) {
	builder := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	sel := builder.Select(
		"id", "name", "sku", "category", "description", "image_url",
		"cost_price", "sale_price", "stock", "created_at", "updated_at",
	).From("products")
	countSel := builder.Select("COUNT(*)").From("products")

	if params.Search != "" {
		like := "%" + params.Search + "%"
		cond := squirrel.Or{
			squirrel.ILike{"name": like},
			squirrel.ILike{"sku": like},
			squirrel.ILike{"category": like},
			squirrel.ILike{"description": like},
		}
		sel = sel.Where(cond)
		countSel = countSel.Where(cond)
	}
	if params.Category != "" {
		cond := squirrel.Eq{"category": params.Category}
		sel = sel.Where(cond)
		countSel = countSel.Where(cond)
	}

	countSQL, countArgs, err := countSel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count query: %w", err)
	}

	var total int64
	if err := r.q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	sel = sel.
		OrderBy(sortClause(params.SortBy, params.SortOrder)).
		Limit(uint64(params.PageSize)).
		Offset(uint64((params.Page - 1) * params.PageSize))

	listSQL, listArgs, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := r.q.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := make([]*domain.Product, 0, params.PageSize)
	for rows.Next() {
		p, err := scanProductRow(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}

	totalPages := int((total + int64(params.PageSize) - 1) / int64(params.PageSize))

	return &ports.ListResult{
		Products:   products,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalCount: total,
		TotalPages: totalPages,
	}, nil
}

// Count returns the number of products in the catalog
func (r *productRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// SumStock returns the total units on hand across the catalog
func (r *productRepository) SumStock(ctx context.Context) (int64, error) {
	var sum int64
	if err := r.q.QueryRow(ctx, `SELECT COALESCE(SUM(stock), 0) FROM products`).Scan(&sum); err != nil {
		return 0, fmt.Errorf("failed to sum stock: %w", err)
	}
	return sum, nil
}

// sortClause whitelists sortable columns; anything else falls back to name
func sortClause(sortBy, order string) string {
	switch sortBy {
	case "name", "stock", "sale_price", "created_at", "updated_at":
	default:
		sortBy = "name"
	}
	if order != "desc" {
		order = "asc"
	}
	return sortBy + " " + order
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	p, err := scanProductFrom(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}
	return p, nil
}

func scanProductRow(rows pgx.Rows) (*domain.Product, error) {
	p, err := scanProductFrom(rows.Scan)
	if err != nil {
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}
	return p, nil
}

func scanProductFrom(scan func(dest ...any) error) (*domain.Product, error) {
	var p domain.Product
	var sku, category, description, imageURL *string

	err := scan(
		&p.ID, &p.Name, &sku, &category, &description, &imageURL,
		&p.CostPrice, &p.SalePrice, &p.Stock, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.SKU = deref(sku)
	p.Category = deref(category)
	p.Description = deref(description)
	p.ImageURL = deref(imageURL)
	return &p, nil
}

// textOrNil maps the domain's empty-string optionals to SQL NULL
func textOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

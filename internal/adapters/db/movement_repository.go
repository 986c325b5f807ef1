// internal/adapters/db/movement_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pviana/stockroom-be/internal/core/domain"
	"github.com/pviana/stockroom-be/internal/core/ports"
)

// movementRepository implements ports.MovementRepository. Rows are inserted
// and deleted only; there is no UPDATE path for the ledger.
type movementRepository struct {
	q      Querier
	logger *slog.Logger
}

// NewMovementRepository creates a new movement repository
func NewMovementRepository(q Querier, logger *slog.Logger) ports.MovementRepository {
	return &movementRepository{
		q:      q,
		logger: logger.With(slog.String("repository", "movements")),
	}
}

// Insert appends one movement row
func (r *movementRepository) Insert(ctx context.Context, movement *domain.StockMovement) error {
	query := `
		INSERT INTO stock_movements (id, product_id, type, qty, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.q.Exec(ctx, query,
		movement.ID, movement.ProductID, string(movement.Type),
		movement.Qty, textOrNil(movement.Reason), movement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert movement: %w", err)
	}

	r.logger.DebugContext(ctx, "movement inserted",
		slog.String("movement_id", movement.ID.String()),
		slog.String("product_id", movement.ProductID.String()))

	return nil
}

// FindByID returns the movement or (nil, nil) when absent
func (r *movementRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.StockMovement, error) {
	row := r.q.QueryRow(ctx,
		`SELECT id, product_id, type, qty, reason, created_at
		 FROM stock_movements WHERE id = $1`, id)

	var m domain.StockMovement
	var reason *string
	err := row.Scan(&m.ID, &m.ProductID, (*string)(&m.Type), &m.Qty, &reason, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan movement: %w", err)
	}
	m.Reason = deref(reason)
	return &m, nil
}

// Delete removes a movement row
func (r *movementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM stock_movements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete movement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrMovementNotFound, id)
	}
	return nil
}

// ListRecent returns the newest movements joined with their product's name
func (r *movementRepository) ListRecent(ctx context.Context, params ports.MovementListParams) ([]ports.MovementWithProduct, error) {
	builder := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	sel := builder.Select(
		"m.id", "m.product_id", "m.type", "m.qty", "m.reason", "m.created_at", "p.name",
	).
		From("stock_movements m").
		Join("products p ON p.id = m.product_id").
		OrderBy("m.created_at DESC").
		Limit(uint64(params.Limit))

	if params.Type != "" {
		sel = sel.Where(squirrel.Eq{"m.type": string(params.Type)})
	}

	query, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build history query: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}
	defer rows.Close()

	movements := make([]ports.MovementWithProduct, 0, params.Limit)
	for rows.Next() {
		var m ports.MovementWithProduct
		var reason *string
		err := rows.Scan(&m.ID, &m.ProductID, (*string)(&m.Type), &m.Qty,
			&reason, &m.CreatedAt, &m.ProductName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		m.Reason = deref(reason)
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read movements: %w", err)
	}

	return movements, nil
}

// CountForProduct returns how many movements reference the product
func (r *movementRepository) CountForProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM stock_movements WHERE product_id = $1`, productID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count movements: %w", err)
	}
	return count, nil
}

// internal/core/services/ledger.go
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

// LedgerService owns the stock-movement ledger: it is the only writer of
// movement rows and the only authority for movement-driven stock changes.
// Every mutation runs inside one transaction with the product row locked, so
// the counter and the movement log can never drift apart.
type LedgerService struct {
	tx        ports.TxRunner
	movements ports.MovementRepository
	logger    *slog.Logger
}

// Statically assert that *LedgerService implements the LedgerService port.
var _ ports.LedgerService = (*LedgerService)(nil)

// NewLedgerService creates a new ledger service
func NewLedgerService(tx ports.TxRunner, movements ports.MovementRepository, logger *slog.Logger) *LedgerService {
	return &LedgerService{
		tx:        tx,
		movements: movements,
		logger:    logger.With(slog.String("service", "ledger")),
	}
}

// Record appends one movement to the ledger and moves the product's stock
// counter by the movement's signed quantity, atomically. An OUT that would
// drive the counter below zero aborts the whole transaction with
// domain.ErrInsufficientStock and leaves no trace.
func (s *LedgerService) Record(ctx context.Context, cmd ports.RecordMovement) (*ports.MovementReceipt, error) {
	movement := &domain.StockMovement{
		ProductID: cmd.ProductID,
		Type:      cmd.Type,
		Qty:       cmd.Qty,
		Reason:    strings.TrimSpace(cmd.Reason),
	}

	// Validation failures reject the command before any transaction begins.
	if err := movement.Validate(); err != nil {
		return nil, err
	}
	movement.PrepareForStorage()

	var receipt *ports.MovementReceipt
	err := s.tx.InTx(ctx, func(products ports.ProductRepository, movements ports.MovementRepository) error {
		product, err := products.FindByIDForUpdate(ctx, cmd.ProductID)
		if err != nil {
			return fmt.Errorf("failed to load product: %w", err)
		}
		if product == nil {
			return fmt.Errorf("%w: %s", domain.ErrProductNotFound, cmd.ProductID)
		}

		nextStock := product.Stock + movement.SignedQty()
		if nextStock < 0 {
			return fmt.Errorf("%w: product %q has %d on hand, OUT of %d requested",
				domain.ErrInsufficientStock, product.Name, product.Stock, movement.Qty)
		}

		if err := products.UpdateStock(ctx, product.ID, nextStock); err != nil {
			return fmt.Errorf("failed to write stock counter: %w", err)
		}
		if err := movements.Insert(ctx, movement); err != nil {
			return fmt.Errorf("failed to insert movement: %w", err)
		}

		receipt = &ports.MovementReceipt{
			Movement:    *movement,
			Stock:       nextStock,
			ProductName: product.Name,
			SKU:         product.SKU,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "movement recorded",
		slog.String("movement_id", receipt.Movement.ID.String()),
		slog.String("product_id", cmd.ProductID.String()),
		slog.String("type", string(cmd.Type)),
		slog.Int("qty", cmd.Qty),
		slog.Int("stock", receipt.Stock))

	return receipt, nil
}

// Reverse undoes a single movement: it applies the inverse signed quantity to
// the product's *current* stock and hard-deletes the movement row, in one
// transaction. Later movements are not replayed, so reversing out of
// chronological order can legitimately fail with domain.ErrCannotReverse even
// though the original movement succeeded.
func (s *LedgerService) Reverse(ctx context.Context, movementID uuid.UUID) (*ports.ReversalReceipt, error) {
	if movementID == uuid.Nil {
		return nil, fmt.Errorf("%w: movement id is required", domain.ErrInvalidInput)
	}

	var receipt *ports.ReversalReceipt
	err := s.tx.InTx(ctx, func(products ports.ProductRepository, movements ports.MovementRepository) error {
		movement, err := movements.FindByID(ctx, movementID)
		if err != nil {
			return fmt.Errorf("failed to load movement: %w", err)
		}
		if movement == nil {
			return fmt.Errorf("%w: %s", domain.ErrMovementNotFound, movementID)
		}

		product, err := products.FindByIDForUpdate(ctx, movement.ProductID)
		if err != nil {
			return fmt.Errorf("failed to load product: %w", err)
		}
		if product == nil {
			// The product vanished under its movement history; treat as a
			// race with a deletion.
			return fmt.Errorf("%w: %s", domain.ErrProductNotFound, movement.ProductID)
		}

		nextStock := product.Stock - movement.SignedQty()
		if nextStock < 0 {
			return fmt.Errorf("%w: product %q has %d on hand, reversal needs %d",
				domain.ErrCannotReverse, product.Name, product.Stock, movement.Qty)
		}

		if err := products.UpdateStock(ctx, product.ID, nextStock); err != nil {
			return fmt.Errorf("failed to write stock counter: %w", err)
		}
		if err := movements.Delete(ctx, movement.ID); err != nil {
			return fmt.Errorf("failed to delete movement: %w", err)
		}

		receipt = &ports.ReversalReceipt{ProductID: product.ID, Stock: nextStock}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "movement reversed",
		slog.String("movement_id", movementID.String()),
		slog.String("product_id", receipt.ProductID.String()),
		slog.Int("stock", receipt.Stock))

	return receipt, nil
}

// History returns the most recent movements, newest first, optionally
// filtered by direction.
func (s *LedgerService) History(ctx context.Context, params ports.MovementListParams) ([]ports.MovementWithProduct, error) {
	if params.Type != "" && !params.Type.IsValid() {
		return nil, fmt.Errorf("%w: type must be IN or OUT", domain.ErrInvalidInput)
	}
	if params.Limit <= 0 || params.Limit > 500 {
		params.Limit = 50
	}

	rows, err := s.movements.ListRecent(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}
	return rows, nil
}

// internal/core/domain/movement.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MovementType is the direction of a stock movement
type MovementType string

const (
	MovementIn  MovementType = "IN"
	MovementOut MovementType = "OUT"
)

// IsValid reports whether the type is one of IN or OUT
func (t MovementType) IsValid() bool {
	return t == MovementIn || t == MovementOut
}

// StockMovement is one immutable entry of the stock ledger. Movements are
// created by recording and destroyed by reversing; they are never updated in
// place. Reason is optional free text and persisted as NULL when empty.
type StockMovement struct {
	ID        uuid.UUID    `json:"id"`
	ProductID uuid.UUID    `json:"product_id"`
	Type      MovementType `json:"type"`
	Qty       int          `json:"qty"`
	Reason    string       `json:"reason,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// SignedQty returns the movement's effect on the stock counter:
// +Qty for IN, -Qty for OUT.
func (m *StockMovement) SignedQty() int {
	if m.Type == MovementOut {
		return -m.Qty
	}
	return m.Qty
}

// Validate performs domain validation on the movement
func (m *StockMovement) Validate() error {
	if m.ProductID == uuid.Nil {
		return fmt.Errorf("%w: product_id is required", ErrInvalidInput)
	}
	if !m.Type.IsValid() {
		return fmt.Errorf("%w: type must be IN or OUT", ErrInvalidInput)
	}
	if m.Qty <= 0 {
		return fmt.Errorf("%w: qty must be a positive integer", ErrInvalidInput)
	}
	return nil
}

// PrepareForStorage assigns the identity and creation timestamp
func (m *StockMovement) PrepareForStorage() {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
}

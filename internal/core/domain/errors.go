// internal/core/domain/errors.go
package domain

import "errors"

// Sentinel errors for the catalog and ledger. Services wrap these with
// context via fmt.Errorf("...: %w", err); handlers map them to HTTP codes
// with errors.Is.
var (
	// ErrInvalidInput marks a request rejected before any write happened.
	ErrInvalidInput = errors.New("invalid input")

	// ErrProductNotFound is returned when a product reference does not resolve.
	ErrProductNotFound = errors.New("product not found")

	// ErrMovementNotFound is returned when a movement reference does not resolve.
	ErrMovementNotFound = errors.New("movement not found")

	// ErrInsufficientStock is returned when an OUT movement would drive the
	// stock counter below zero. The transaction is rolled back in full.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrCannotReverse is returned when undoing a movement would drive stock
	// below zero (later movements consumed the stock this one added).
	ErrCannotReverse = errors.New("reversing this movement would make stock negative")

	// ErrProductHasMovements blocks catalog deletion while movement history
	// still references the product.
	ErrProductHasMovements = errors.New("product has stock movements")
)

// internal/workers/tasks.go
package workers

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type names. The queue is shared between the API (producer) and the
// worker binary (consumer); both sides key off these constants.
const (
	TypeLowStockAlert = "stock:low_alert"
	TypeImageCleanup  = "images:cleanup_orphans"
)

// LowStockAlertPayload describes a product whose stock dropped to or below
// the alert threshold after an outbound movement.
type LowStockAlertPayload struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	SKU         string `json:"sku"`
	Stock       int    `json:"stock"`
	Threshold   int    `json:"threshold"`
}

// NewLowStockAlertTask builds the asynq task for a low-stock alert
func NewLowStockAlertTask(payload LowStockAlertPayload) (*asynq.Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal low-stock payload: %w", err)
	}
	return asynq.NewTask(TypeLowStockAlert, b), nil
}

// NewImageCleanupTask builds the periodic orphan-image cleanup task
func NewImageCleanupTask() *asynq.Task {
	return asynq.NewTask(TypeImageCleanup, nil)
}

// internal/workers/alert_processor.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	redis_a "github.com/pviana/stockroom-be/internal/adapters/redis_adapter"
	"github.com/pviana/stockroom-be/internal/core/ports"
)

// alertDedupeTTL limits how often the same product can fire an alert
const alertDedupeTTL = 6 * time.Hour

// AlertProcessor handles low-stock alert tasks
type AlertProcessor struct {
	cache  ports.CacheRepository
	logger *slog.Logger
}

// NewAlertProcessor creates a new alert processor
func NewAlertProcessor(cache ports.CacheRepository, logger *slog.Logger) *AlertProcessor {
	return &AlertProcessor{
		cache:  cache,
		logger: logger.With(slog.String("processor", "alerts")),
	}
}

// HandleLowStockAlert emits a low-stock alert for a product. Alerts are
// deduplicated per product so a burst of outbound movements does not spam
// the channel.
func (p *AlertProcessor) HandleLowStockAlert(ctx context.Context, t *asynq.Task) error {
	var payload LowStockAlertPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	lockKey := redis_a.BuildKey(redis_a.PrefixWorker, "alert", payload.ProductID)
	fresh, err := p.cache.SetNX(ctx, lockKey, payload.Stock, alertDedupeTTL)
	if err != nil {
		return fmt.Errorf("failed to acquire alert dedupe lock: %w", err)
	}
	if !fresh {
		p.logger.DebugContext(ctx, "low-stock alert suppressed, already sent recently",
			slog.String("product_id", payload.ProductID))
		return nil
	}

	// Delivery channel (email, chat webhook) is intentionally just the log
	// for now; the payload carries everything a real sender needs.
	p.logger.WarnContext(ctx, "low stock alert",
		slog.String("product_id", payload.ProductID),
		slog.String("product_name", payload.ProductName),
		slog.String("sku", payload.SKU),
		slog.Int("stock", payload.Stock),
		slog.Int("threshold", payload.Threshold))

	return nil
}

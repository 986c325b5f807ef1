// internal/handlers/movement.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	redis_a "github.com/pviana/stockroom-be/internal/adapters/redis_adapter"
	"github.com/pviana/stockroom-be/internal/core/domain"
	"github.com/pviana/stockroom-be/internal/core/ports"
	"github.com/pviana/stockroom-be/internal/workers"
)

// historyCacheTTL keeps the movement feed fresh enough for a dashboard while
// absorbing repeated polls.
const historyCacheTTL = 30 * time.Second

// MovementHandler handles stock-movement HTTP requests
type MovementHandler struct {
	ledger            ports.LedgerService
	asynqClient       *asynq.Client
	cache             ports.CacheRepository
	logger            *slog.Logger
	lowStockThreshold int
}

// NewMovementHandler creates a new movement handler. asynqClient may be nil,
// in which case low-stock alerts are skipped.
func NewMovementHandler(ledger ports.LedgerService, asynqClient *asynq.Client, cache ports.CacheRepository, lowStockThreshold int, logger *slog.Logger) *MovementHandler {
	return &MovementHandler{
		ledger:            ledger,
		asynqClient:       asynqClient,
		cache:             cache,
		logger:            logger.With(slog.String("handler", "movements")),
		lowStockThreshold: lowStockThreshold,
	}
}

type recordMovementRequest struct {
	ProductID string      `json:"product_id"`
	Type      string      `json:"type"`
	Qty       json.Number `json:"qty"`
	Reason    string      `json:"reason"`
}

// toCommand turns the loose JSON request into a typed command. Qty arrives as
// json.Number so fractional quantities like 2.5 fail here instead of being
// silently truncated.
func (req *recordMovementRequest) toCommand() (ports.RecordMovement, error) {
	var cmd ports.RecordMovement

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return cmd, fmt.Errorf("invalid product_id")
	}

	movementType := domain.MovementType(req.Type)
	if !movementType.IsValid() {
		return cmd, fmt.Errorf("type must be IN or OUT")
	}

	qty, err := strconv.Atoi(req.Qty.String())
	if err != nil {
		return cmd, fmt.Errorf("qty must be a whole number")
	}

	cmd = ports.RecordMovement{
		ProductID: productID,
		Type:      movementType,
		Qty:       qty,
		Reason:    req.Reason,
	}
	return cmd, nil
}

// RecordMovement handles POST /api/v1/movements
func (h *MovementHandler) RecordMovement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req recordMovementRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			respondError(w, h.logger, http.StatusBadRequest, "request body is required")
			return
		}
		respondError(w, h.logger, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	cmd, err := req.toCommand()
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	receipt, err := h.ledger.Record(ctx, cmd)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	h.maybeAlertLowStock(r, receipt)
	invalidateReadCaches(r, h.cache, h.logger)

	respondJSON(w, h.logger, http.StatusCreated, receipt)
}

// ReverseMovement handles DELETE /api/v1/movements/{id}
func (h *MovementHandler) ReverseMovement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid movement id")
		return
	}

	receipt, err := h.ledger.Reverse(ctx, id)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	invalidateReadCaches(r, h.cache, h.logger)
	respondJSON(w, h.logger, http.StatusOK, receipt)
}

// ListMovements handles GET /api/v1/movements
func (h *MovementHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	params := ports.MovementListParams{
		Type: domain.MovementType(q.Get("type")),
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
		params.Limit = limit
	}
	if params.Type != "" && !params.Type.IsValid() {
		respondError(w, h.logger, http.StatusBadRequest, "type must be IN or OUT")
		return
	}
	// Clamp here as well so the cache key matches what the service serves.
	if params.Limit <= 0 || params.Limit > 500 {
		params.Limit = 50
	}

	typeKey := string(params.Type)
	if typeKey == "" {
		typeKey = "all"
	}
	cacheKey := redis_a.BuildKey(redis_a.PrefixMovements, typeKey, strconv.Itoa(params.Limit))

	var movements []ports.MovementWithProduct
	err := h.cache.GetOrSet(ctx, cacheKey, &movements, func() (interface{}, error) {
		return h.ledger.History(ctx, params)
	}, historyCacheTTL)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list movements",
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"movements": movements,
		"count":     len(movements),
	})
}

// maybeAlertLowStock queues a low-stock alert when an outbound movement left
// the product at or below the threshold. Enqueue failures only log; the
// movement itself is already committed.
func (h *MovementHandler) maybeAlertLowStock(r *http.Request, receipt *ports.MovementReceipt) {
	if h.asynqClient == nil || h.lowStockThreshold <= 0 {
		return
	}
	if receipt.Movement.Type != domain.MovementOut || receipt.Stock > h.lowStockThreshold {
		return
	}

	ctx := r.Context()
	task, err := workers.NewLowStockAlertTask(workers.LowStockAlertPayload{
		ProductID:   receipt.Movement.ProductID.String(),
		ProductName: receipt.ProductName,
		SKU:         receipt.SKU,
		Stock:       receipt.Stock,
		Threshold:   h.lowStockThreshold,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to build low-stock task",
			slog.String("error", err.Error()))
		return
	}

	info, err := h.asynqClient.Enqueue(task,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
		asynq.Retention(24*time.Hour))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to enqueue low-stock alert",
			slog.String("product_id", receipt.Movement.ProductID.String()),
			slog.String("error", err.Error()))
		return
	}

	h.logger.InfoContext(ctx, "low-stock alert queued",
		slog.String("task_id", info.ID),
		slog.String("product_id", receipt.Movement.ProductID.String()),
		slog.Int("stock", receipt.Stock))
}

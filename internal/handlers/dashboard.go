// internal/handlers/dashboard.go
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	redis_a "github.com/pviana/stockroom-be/internal/adapters/redis_adapter"
	"github.com/pviana/stockroom-be/internal/core/ports"
)

const (
	dashboardCacheTTL = time.Minute
	recentMovements   = 10
)

// DashboardSummary is the aggregate view served to the landing page
type DashboardSummary struct {
	TotalProducts   int64                       `json:"total_products"`
	TotalStock      int64                       `json:"total_stock"`
	RecentMovements []ports.MovementWithProduct `json:"recent_movements"`
	GeneratedAt     time.Time                   `json:"generated_at"`
}

// DashboardHandler serves the aggregate dashboard. It reads repositories
// directly; the numbers are derived views, not ledger operations.
type DashboardHandler struct {
	products  ports.ProductRepository
	movements ports.MovementRepository
	cache     ports.CacheRepository
	logger    *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(products ports.ProductRepository, movements ports.MovementRepository, cache ports.CacheRepository, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		products:  products,
		movements: movements,
		cache:     cache,
		logger:    logger.With(slog.String("handler", "dashboard")),
	}
}

// GetDashboard handles GET /api/v1/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cacheKey := redis_a.BuildKey(redis_a.PrefixDashboard, "main")

	var summary DashboardSummary
	err := h.cache.GetOrSet(ctx, cacheKey, &summary, func() (interface{}, error) {
		return h.buildSummary(r)
	}, dashboardCacheTTL)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to build dashboard",
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "failed to build dashboard")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, summary)
}

func (h *DashboardHandler) buildSummary(r *http.Request) (*DashboardSummary, error) {
	ctx := r.Context()

	totalProducts, err := h.products.Count(ctx)
	if err != nil {
		return nil, err
	}

	totalStock, err := h.products.SumStock(ctx)
	if err != nil {
		return nil, err
	}

	recent, err := h.movements.ListRecent(ctx, ports.MovementListParams{Limit: recentMovements})
	if err != nil {
		return nil, err
	}

	return &DashboardSummary{
		TotalProducts:   totalProducts,
		TotalStock:      totalStock,
		RecentMovements: recent,
		GeneratedAt:     time.Now().UTC(),
	}, nil
}

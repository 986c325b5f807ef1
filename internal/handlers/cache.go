// internal/handlers/cache.go
package handlers

import (
	"log/slog"
	"net/http"

	redis_a "github.com/pviana/stockroom-be/internal/adapters/redis_adapter"
	"github.com/pviana/stockroom-be/internal/core/ports"
)

// invalidateReadCaches drops the dashboard and movement-history caches after
// any write. Failures are logged and swallowed; the caches expire on their
// own anyway.
func invalidateReadCaches(r *http.Request, cache ports.CacheRepository, logger *slog.Logger) {
	ctx := r.Context()

	if err := cache.DeletePattern(ctx, string(redis_a.PrefixDashboard)+":*"); err != nil {
		logger.WarnContext(ctx, "failed to invalidate dashboard cache",
			slog.String("error", err.Error()))
	}
	if err := cache.DeletePattern(ctx, string(redis_a.PrefixMovements)+":*"); err != nil {
		logger.WarnContext(ctx, "failed to invalidate movement cache",
			slog.String("error", err.Error()))
	}
}

// internal/workers/cleanup_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/pviana/stockroom-be/internal/adapters/storage"
	"github.com/pviana/stockroom-be/internal/core/ports"
)

// CleanupProcessor removes uploaded images that no product references
// anymore. Handlers delete replaced images best-effort; this task catches
// whatever slipped through.
type CleanupProcessor struct {
	db      ports.Database
	storage storage.StorageClient
	logger  *slog.Logger
}

// NewCleanupProcessor creates a new cleanup processor
func NewCleanupProcessor(database ports.Database, st storage.StorageClient, logger *slog.Logger) *CleanupProcessor {
	return &CleanupProcessor{
		db:      database,
		storage: st,
		logger:  logger.With(slog.String("processor", "cleanup")),
	}
}

// CleanupOrphanImages deletes stored objects under the image prefix that are
// not referenced by any product row.
func (p *CleanupProcessor) CleanupOrphanImages(ctx context.Context, t *asynq.Task) error {
	p.logger.InfoContext(ctx, "scanning for orphan images")

	referenced, err := p.referencedKeys(ctx)
	if err != nil {
		return err
	}

	keys, err := p.storage.List(ctx, storage.ImagePrefix())
	if err != nil {
		return fmt.Errorf("failed to list stored images: %w", err)
	}

	var deleted int
	for _, key := range keys {
		if referenced[key] {
			continue
		}
		if err := p.storage.Delete(ctx, key); err != nil {
			p.logger.WarnContext(ctx, "failed to delete orphan image",
				slog.String("key", key),
				slog.String("error", err.Error()))
			continue
		}
		deleted++
	}

	p.logger.InfoContext(ctx, "orphan image cleanup completed",
		slog.Int("stored", len(keys)),
		slog.Int("referenced", len(referenced)),
		slog.Int("deleted", deleted))

	return nil
}

func (p *CleanupProcessor) referencedKeys(ctx context.Context) (map[string]bool, error) {
	query := `SELECT image_url FROM products WHERE image_url IS NOT NULL`

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query image references: %w", err)
	}
	defer rows.Close()

	referenced := make(map[string]bool)
	for rows.Next() {
		var imageURL string
		if err := rows.Scan(&imageURL); err != nil {
			return nil, fmt.Errorf("failed to scan image reference: %w", err)
		}
		if key := storage.KeyFromURL(imageURL); key != "" {
			referenced[key] = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read image references: %w", err)
	}

	return referenced, nil
}

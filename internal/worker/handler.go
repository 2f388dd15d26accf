package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/immxrtalbeast/verbis/internal/repository"
	"github.com/immxrtalbeast/verbis/lib/logger/sl"
)

// CachePurgeHandler deletes translation cache entries older than the
// retention window.
type CachePurgeHandler struct {
	cache     repository.TranslationCache
	retention time.Duration
	log       *slog.Logger
	now       func() time.Time
}

func NewCachePurgeHandler(cache repository.TranslationCache, retention time.Duration, log *slog.Logger) *CachePurgeHandler {
	if retention <= 0 {
		retention = repository.DefaultCacheRetention
	}
	return &CachePurgeHandler{
		cache:     cache,
		retention: retention,
		log:       log,
		now:       time.Now,
	}
}

func (h *CachePurgeHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	const op = "worker.cachePurge.process"
	log := h.log.With(slog.String("op", op), slog.String("task_type", t.Type()))

	var payload CachePurgePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			log.Error("failed to unmarshal task payload", sl.Err(err))
			return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	retention := h.retention
	if payload.Retention > 0 {
		retention = payload.Retention
	}
	_, err := h.purge(ctx, retention)
	return err
}

// Purge runs one purge with the configured retention.
func (h *CachePurgeHandler) Purge(ctx context.Context) (int64, error) {
	return h.purge(ctx, h.retention)
}

func (h *CachePurgeHandler) purge(ctx context.Context, retention time.Duration) (int64, error) {
	const op = "worker.cachePurge.purge"
	log := h.log.With(slog.String("op", op))

	cutoff := h.now().UTC().Add(-retention)
	purged, err := h.cache.PurgeExpired(ctx, cutoff)
	if err != nil {
		log.Error("cache purge failed", sl.Err(err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("cache purge finished", slog.Int64("purged", purged), slog.Time("cutoff", cutoff))
	return purged, nil
}

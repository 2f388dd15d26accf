package worker

import (
	"context"
	"log/slog"
	"time"
)

// Janitor purges the cache on a local ticker. It is used when no Redis is
// configured for asynq.
type Janitor struct {
	handler  *CachePurgeHandler
	interval time.Duration
	log      *slog.Logger
}

func NewJanitor(handler *CachePurgeHandler, interval time.Duration, log *slog.Logger) *Janitor {
	return &Janitor{handler: handler, interval: interval, log: log}
}

// Run purges once immediately and then every interval until ctx is done.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		_, _ = j.handler.Purge(ctx)

		select {
		case <-ctx.Done():
			j.log.Info("cache janitor stopped")
			return
		case <-ticker.C:
		}
	}
}

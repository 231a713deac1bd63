// Package views provides share-view counting: fast Redis increments on
// the resolution path, flushed to PostgreSQL in the background.
package views

import (
	"context"
	"log/slog"
	"time"

	"github.com/zonemap/zonemap/internal/metrics"
)

// PublishTimeout is the max time to wait for the Redis increment.
const PublishTimeout = 100 * time.Millisecond

// Counter is the Redis-backed counter surface the publisher writes to.
// Satisfied by *cache.Cache.
type Counter interface {
	IncrementViews(ctx context.Context, mapID int64) error
}

// Publisher records share views without blocking the resolution path.
type Publisher struct {
	counter Counter
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPublisher creates a view publisher.
func NewPublisher(counter Counter, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		counter: counter,
		logger:  logger.With("component", "views.publisher"),
		metrics: recorder,
	}
}

// PublishAsync increments the view counter without blocking the caller.
// Errors are logged but not returned; a lost view is acceptable, a slow
// share resolution is not.
func (p *Publisher) PublishAsync(mapID int64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()

		if err := p.counter.IncrementViews(ctx, mapID); err != nil {
			p.logger.Warn("failed to record share view",
				"map_id", mapID,
				"error", err,
			)
		}
	}()
}

package views

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/zonemap/zonemap/internal/cache"
	"github.com/zonemap/zonemap/internal/metrics"
)

// DefaultFlushInterval is how often buffered counters are flushed.
const DefaultFlushInterval = 30 * time.Second

// Store is the Redis-backed counter surface the worker drains.
// Satisfied by *cache.Cache.
type Store interface {
	ScanViewKeys(ctx context.Context) ([]string, error)
	GetAndResetViews(ctx context.Context, mapID int64) (int64, error)
}

// Sink persists flushed view counts. Satisfied by *repository.Repository.
type Sink interface {
	AddMapViews(ctx context.Context, mapID int64, delta int64) error
}

// Worker periodically drains view counters from Redis into PostgreSQL.
type Worker struct {
	store    Store
	sink     Sink
	logger   *slog.Logger
	metrics  metrics.Recorder
	interval time.Duration

	started  bool
	draining bool
	cancel   context.CancelFunc
	done     chan struct{}
	mu       sync.Mutex
}

// NewWorker creates a view flush worker.
func NewWorker(store Store, sink Sink, logger *slog.Logger, recorder metrics.Recorder) *Worker {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Worker{
		store:    store,
		sink:     sink,
		logger:   logger.With("component", "views.worker"),
		metrics:  recorder,
		interval: DefaultFlushInterval,
	}
}

// SetFlushInterval overrides the default flush interval.
func (w *Worker) SetFlushInterval(interval time.Duration) {
	if interval > 0 {
		w.interval = interval
	}
}

// Run starts the flush loop. Blocks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return errors.New("worker already started")
	}
	w.started = true
	w.done = make(chan struct{})
	ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	defer close(w.done)

	w.logger.Info("view flush worker started", "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final flush on the way out so counts accrued since the
			// last tick survive the restart.
			w.flushOnce(context.Background())
			w.logger.Info("view flush worker stopping")
			if w.isDraining() {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			w.flushOnce(ctx)
		}
	}
}

// Shutdown gracefully stops the worker, completing a final flush.
// It implements server.ShutdownFunc.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return nil
	}
	w.draining = true
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	if done != nil {
		select {
		case <-done:
			w.logger.Info("view flush worker shutdown complete")
			return nil
		case <-ctx.Done():
			w.logger.Warn("view flush worker shutdown timed out")
			return ctx.Err()
		}
	}
	return nil
}

func (w *Worker) isDraining() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draining
}

// flushOnce drains every pending counter. Each map is flushed
// independently so one bad row cannot hold up the rest.
func (w *Worker) flushOnce(ctx context.Context) {
	keys, err := w.store.ScanViewKeys(ctx)
	if err != nil {
		w.logger.Warn("failed to scan view counters", "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}

	var flushed int64
	for _, key := range keys {
		mapID := cache.MapIDFromViewKey(key)
		if mapID == 0 {
			w.logger.Warn("skipping malformed view key", "key", key)
			continue
		}

		count, err := w.store.GetAndResetViews(ctx, mapID)
		if err != nil {
			w.logger.Warn("failed to drain view counter",
				"map_id", mapID,
				"error", err,
			)
			continue
		}
		if count == 0 {
			continue
		}

		if err := w.sink.AddMapViews(ctx, mapID, count); err != nil {
			// The Redis counter is already reset; these views are lost.
			// Approximate counts are an accepted trade for hot-path speed.
			w.logger.Error("failed to persist view count",
				"map_id", mapID,
				"count", count,
				"error", err,
			)
			continue
		}

		flushed += count
	}

	if flushed > 0 {
		w.metrics.AddViewsFlushed(flushed)
		w.logger.Info("views_flushed", "total", flushed, "keys", len(keys))
	}
}

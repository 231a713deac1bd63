// Package reconcile implements the pending-zone buffer: zones drawn
// before their parent map exists, committed best-effort once it does.
package reconcile

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zonemap/zonemap/internal/model"
)

// ZoneCreator persists a single zone against an existing map.
// Satisfied by *service.ZoneService.
type ZoneCreator interface {
	CreateZone(ctx context.Context, mapID, customerID int64, zone *model.Zone) (*model.Zone, error)
}

// Buffer holds zones drawn during a session, keyed by their
// client-generated id. Zones start pending; a flush moves the ones the
// store accepted to the committed set and leaves failures pending, under
// the same id, so the user can retry without redrawing.
type Buffer struct {
	mu        sync.Mutex
	order     []string
	pending   map[string]*model.Zone
	committed map[string]*model.Zone
}

// NewBuffer creates an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{
		pending:   make(map[string]*model.Zone),
		committed: make(map[string]*model.Zone),
	}
}

// Add puts a newly drawn zone into the pending set and returns its id.
// A zone without an id gets a fresh UUID; the id never changes afterwards.
func (b *Buffer) Add(zone *model.Zone) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if zone.ID == "" {
		zone.ID = uuid.New().String()
	}
	if zone.CreatedAt.IsZero() {
		zone.CreatedAt = time.Now().UTC()
	}

	if _, exists := b.pending[zone.ID]; !exists {
		b.order = append(b.order, zone.ID)
	}
	b.pending[zone.ID] = zone

	return zone.ID
}

// Rename changes the name of a pending zone.
// Returns false if the id is not pending.
func (b *Buffer) Rename(id, name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	zone, ok := b.pending[id]
	if !ok {
		return false
	}
	zone.Name = name
	return true
}

// Recolor changes the color of a pending zone.
// Returns false if the id is not pending.
func (b *Buffer) Recolor(id, color string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	zone, ok := b.pending[id]
	if !ok {
		return false
	}
	zone.Color = color
	return true
}

// Remove discards a pending zone. Committed zones cannot be removed from
// the buffer; they live in the store.
func (b *Buffer) Remove(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.pending[id]; !ok {
		return false
	}
	delete(b.pending, id)
	return true
}

// Pending returns the pending zones in drawing order.
func (b *Buffer) Pending() []*model.Zone {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

// Committed returns the zones accepted by the store, in drawing order.
func (b *Buffer) Committed() []*model.Zone {
	b.mu.Lock()
	defer b.mu.Unlock()

	zones := make([]*model.Zone, 0, len(b.committed))
	for _, id := range b.order {
		if zone, ok := b.committed[id]; ok {
			zones = append(zones, zone)
		}
	}
	return zones
}

// Len returns the number of pending zones.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// snapshotLocked returns pending zones in drawing order. Callers hold the
// lock.
func (b *Buffer) snapshotLocked() []*model.Zone {
	zones := make([]*model.Zone, 0, len(b.pending))
	for _, id := range b.order {
		if zone, ok := b.pending[id]; ok {
			zones = append(zones, zone)
		}
	}
	return zones
}

// markCommitted moves a zone from pending to committed.
func (b *Buffer) markCommitted(zone *model.Zone) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pending, zone.ID)
	b.committed[zone.ID] = zone
}

// FlushFailure records one zone the store rejected during a flush,
// together with the reason. The zone keeps its original id and stays
// pending for retry.
type FlushFailure struct {
	Zone *model.Zone
	Err  error
}

// FlushResult is the outcome of a best-effort flush. Partial success is a
// normal, expected outcome; callers must reconcile UI state from both
// slices rather than treating the flush as succeed-or-fail.
type FlushResult struct {
	Committed []*model.Zone
	Failed    []FlushFailure
}

// CommittedCount returns how many zones were accepted.
func (r *FlushResult) CommittedCount() int {
	return len(r.Committed)
}

// FailedZones returns the rejected zones, original ids intact.
func (r *FlushResult) FailedZones() []*model.Zone {
	zones := make([]*model.Zone, 0, len(r.Failed))
	for _, f := range r.Failed {
		zones = append(zones, f.Zone)
	}
	return zones
}

// Reconciler commits buffered zones once their parent map exists.
type Reconciler struct {
	creator ZoneCreator
	logger  *slog.Logger
}

// New creates a Reconciler over the given zone store.
func New(creator ZoneCreator, logger *slog.Logger) *Reconciler {
	return &Reconciler{creator: creator, logger: logger}
}

// Flush persists every pending zone against the newly created map,
// independently per zone. It is deliberately not atomic: zones the store
// accepts are committed, the rest remain pending under their original id.
// An empty buffer returns an empty result without contacting the store.
func (r *Reconciler) Flush(ctx context.Context, mapID, customerID int64, buf *Buffer) *FlushResult {
	result := &FlushResult{}

	pending := buf.Pending()
	if len(pending) == 0 {
		return result
	}

	for _, zone := range pending {
		committed, err := r.creator.CreateZone(ctx, mapID, customerID, zone)
		if err != nil {
			r.logger.Warn("zone_flush_failed",
				"map_id", mapID,
				"zone_id", zone.ID,
				"error", err,
			)
			result.Failed = append(result.Failed, FlushFailure{Zone: zone, Err: err})
			continue
		}

		buf.markCommitted(committed)
		result.Committed = append(result.Committed, committed)
	}

	r.logger.Info("zone_flush_done",
		"map_id", mapID,
		"committed", len(result.Committed),
		"failed", len(result.Failed),
	)

	return result
}

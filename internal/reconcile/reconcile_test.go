package reconcile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/zonemap/zonemap/internal/model"
)

// fakeCreator records CreateZone calls and fails for zone names listed in
// rejectNames.
type fakeCreator struct {
	calls       int
	rejectNames map[string]error
}

func (f *fakeCreator) CreateZone(_ context.Context, mapID, customerID int64, zone *model.Zone) (*model.Zone, error) {
	f.calls++
	if err, ok := f.rejectNames[zone.Name]; ok {
		return nil, err
	}
	committed := *zone
	committed.MapID = mapID
	committed.CreatedBy = customerID
	return &committed, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testZone(name string) *model.Zone {
	return &model.Zone{
		Name:  name,
		Color: "#3388ff",
		Points: []model.Point{
			{Lat: 52.0, Lng: 13.0},
			{Lat: 52.1, Lng: 13.0},
			{Lat: 52.1, Lng: 13.1},
		},
	}
}

func TestBufferAdd_AssignsStableID(t *testing.T) {
	t.Parallel()

	buf := NewBuffer()
	zone := testZone("park")

	id := buf.Add(zone)
	if id == "" {
		t.Fatal("expected a generated id")
	}
	if zone.ID != id {
		t.Errorf("zone.ID = %q, want %q", zone.ID, id)
	}
	if buf.Len() != 1 {
		t.Errorf("Len() = %d, want 1", buf.Len())
	}
}

func TestBufferAdd_KeepsClientID(t *testing.T) {
	t.Parallel()

	buf := NewBuffer()
	zone := testZone("park")
	zone.ID = "client-id-1"

	if id := buf.Add(zone); id != "client-id-1" {
		t.Errorf("Add returned %q, want client-id-1", id)
	}
}

func TestBufferRenameRecolorRemove(t *testing.T) {
	t.Parallel()

	buf := NewBuffer()
	id := buf.Add(testZone("draft"))

	if !buf.Rename(id, "playground") {
		t.Error("Rename on pending zone should succeed")
	}
	if !buf.Recolor(id, "#ff0000") {
		t.Error("Recolor on pending zone should succeed")
	}

	pending := buf.Pending()
	if len(pending) != 1 {
		t.Fatalf("Pending() returned %d zones, want 1", len(pending))
	}
	if pending[0].Name != "playground" {
		t.Errorf("name = %q, want playground", pending[0].Name)
	}
	if pending[0].Color != "#ff0000" {
		t.Errorf("color = %q, want #ff0000", pending[0].Color)
	}

	if !buf.Remove(id) {
		t.Error("Remove on pending zone should succeed")
	}
	if buf.Len() != 0 {
		t.Errorf("Len() after remove = %d, want 0", buf.Len())
	}

	if buf.Rename(id, "gone") {
		t.Error("Rename on removed zone should fail")
	}
	if buf.Remove(id) {
		t.Error("Remove on removed zone should fail")
	}
}

func TestBufferPending_DrawingOrder(t *testing.T) {
	t.Parallel()

	buf := NewBuffer()
	buf.Add(testZone("first"))
	buf.Add(testZone("second"))
	buf.Add(testZone("third"))

	pending := buf.Pending()
	if len(pending) != 3 {
		t.Fatalf("Pending() returned %d zones, want 3", len(pending))
	}
	for i, want := range []string{"first", "second", "third"} {
		if pending[i].Name != want {
			t.Errorf("pending[%d].Name = %q, want %q", i, pending[i].Name, want)
		}
	}
}

func TestFlush_EmptyBufferSkipsStore(t *testing.T) {
	t.Parallel()

	creator := &fakeCreator{}
	r := New(creator, discardLogger())

	result := r.Flush(context.Background(), 1, 1, NewBuffer())

	if creator.calls != 0 {
		t.Errorf("store called %d times for empty buffer, want 0", creator.calls)
	}
	if result.CommittedCount() != 0 || len(result.Failed) != 0 {
		t.Errorf("expected empty result, got %d committed, %d failed",
			result.CommittedCount(), len(result.Failed))
	}
}

func TestFlush_AllCommitted(t *testing.T) {
	t.Parallel()

	creator := &fakeCreator{}
	r := New(creator, discardLogger())

	buf := NewBuffer()
	buf.Add(testZone("a"))
	buf.Add(testZone("b"))

	result := r.Flush(context.Background(), 7, 3, buf)

	if result.CommittedCount() != 2 {
		t.Fatalf("committed = %d, want 2", result.CommittedCount())
	}
	if buf.Len() != 0 {
		t.Errorf("buffer still has %d pending zones", buf.Len())
	}
	for _, zone := range result.Committed {
		if zone.MapID != 7 {
			t.Errorf("committed zone map id = %d, want 7", zone.MapID)
		}
		if zone.CreatedBy != 3 {
			t.Errorf("committed zone created_by = %d, want 3", zone.CreatedBy)
		}
	}
	if got := len(buf.Committed()); got != 2 {
		t.Errorf("buffer committed set has %d zones, want 2", got)
	}
}

func TestFlush_PartialFailureKeepsFailedPending(t *testing.T) {
	t.Parallel()

	rejectErr := errors.New("store unavailable")
	creator := &fakeCreator{rejectNames: map[string]error{"bad": rejectErr}}
	r := New(creator, discardLogger())

	buf := NewBuffer()
	buf.Add(testZone("good"))
	badID := buf.Add(testZone("bad"))
	buf.Add(testZone("also-good"))

	result := r.Flush(context.Background(), 1, 1, buf)

	if result.CommittedCount() != 2 {
		t.Errorf("committed = %d, want 2", result.CommittedCount())
	}
	if len(result.Failed) != 1 {
		t.Fatalf("failed = %d, want 1", len(result.Failed))
	}
	if result.Failed[0].Zone.ID != badID {
		t.Errorf("failed zone id = %q, want %q", result.Failed[0].Zone.ID, badID)
	}
	if !errors.Is(result.Failed[0].Err, rejectErr) {
		t.Errorf("failed zone error = %v, want %v", result.Failed[0].Err, rejectErr)
	}

	// Failed zones stay pending under the same id for retry.
	if buf.Len() != 1 {
		t.Fatalf("buffer has %d pending zones, want 1", buf.Len())
	}
	if pending := buf.Pending(); pending[0].ID != badID {
		t.Errorf("pending zone id = %q, want %q", pending[0].ID, badID)
	}

	if got := result.FailedZones(); len(got) != 1 || got[0].ID != badID {
		t.Errorf("FailedZones() = %v, want single zone %q", got, badID)
	}
}

func TestFlush_RetryAfterFailureCommitsRest(t *testing.T) {
	t.Parallel()

	creator := &fakeCreator{rejectNames: map[string]error{"bad": errors.New("boom")}}
	r := New(creator, discardLogger())

	buf := NewBuffer()
	buf.Add(testZone("bad"))

	if result := r.Flush(context.Background(), 1, 1, buf); result.CommittedCount() != 0 {
		t.Fatalf("first flush committed = %d, want 0", result.CommittedCount())
	}

	// The store recovers; the retried flush commits the zone.
	creator.rejectNames = nil
	result := r.Flush(context.Background(), 1, 1, buf)

	if result.CommittedCount() != 1 {
		t.Errorf("retry committed = %d, want 1", result.CommittedCount())
	}
	if buf.Len() != 0 {
		t.Errorf("buffer has %d pending zones after retry, want 0", buf.Len())
	}
}

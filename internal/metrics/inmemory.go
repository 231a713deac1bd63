package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	CustomerLogins      uint64
	AdminLogins         uint64
	LoginFailures       uint64
	MapsCreated         uint64
	MapsUpdated         uint64
	MapsDeleted         uint64
	QuotaDenials        uint64
	ZonesCreated        uint64
	ZonesDeleted        uint64
	ShareCacheHits      uint64
	ShareCacheMisses    uint64
	ShareResolveCount   uint64
	ShareResolveTotalNs int64
	ViewsFlushed        int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	customerLogins      uint64
	adminLogins         uint64
	loginFailures       uint64
	mapsCreated         uint64
	mapsUpdated         uint64
	mapsDeleted         uint64
	quotaDenials        uint64
	zonesCreated        uint64
	zonesDeleted        uint64
	shareCacheHits      uint64
	shareCacheMisses    uint64
	shareResolveCount   uint64
	shareResolveTotalNs int64
	viewsFlushed        int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		CustomerLogins:      atomic.LoadUint64(&m.customerLogins),
		AdminLogins:         atomic.LoadUint64(&m.adminLogins),
		LoginFailures:       atomic.LoadUint64(&m.loginFailures),
		MapsCreated:         atomic.LoadUint64(&m.mapsCreated),
		MapsUpdated:         atomic.LoadUint64(&m.mapsUpdated),
		MapsDeleted:         atomic.LoadUint64(&m.mapsDeleted),
		QuotaDenials:        atomic.LoadUint64(&m.quotaDenials),
		ZonesCreated:        atomic.LoadUint64(&m.zonesCreated),
		ZonesDeleted:        atomic.LoadUint64(&m.zonesDeleted),
		ShareCacheHits:      atomic.LoadUint64(&m.shareCacheHits),
		ShareCacheMisses:    atomic.LoadUint64(&m.shareCacheMisses),
		ShareResolveCount:   atomic.LoadUint64(&m.shareResolveCount),
		ShareResolveTotalNs: atomic.LoadInt64(&m.shareResolveTotalNs),
		ViewsFlushed:        atomic.LoadInt64(&m.viewsFlushed),
	}
}

// IncLoginSuccess increments the login counter for a realm.
func (m *InMemoryRecorder) IncLoginSuccess(realm string) {
	if realm == "admin" {
		atomic.AddUint64(&m.adminLogins, 1)
		return
	}
	atomic.AddUint64(&m.customerLogins, 1)
}

// IncLoginFailure increments the failed login counter.
func (m *InMemoryRecorder) IncLoginFailure() {
	atomic.AddUint64(&m.loginFailures, 1)
}

// IncMapCreated increments the map created counter.
func (m *InMemoryRecorder) IncMapCreated() {
	atomic.AddUint64(&m.mapsCreated, 1)
}

// IncMapUpdated increments the map updated counter.
func (m *InMemoryRecorder) IncMapUpdated() {
	atomic.AddUint64(&m.mapsUpdated, 1)
}

// IncMapDeleted increments the map deleted counter.
func (m *InMemoryRecorder) IncMapDeleted() {
	atomic.AddUint64(&m.mapsDeleted, 1)
}

// IncQuotaDenied increments the quota denial counter.
func (m *InMemoryRecorder) IncQuotaDenied() {
	atomic.AddUint64(&m.quotaDenials, 1)
}

// IncZoneCreated increments the zone created counter.
func (m *InMemoryRecorder) IncZoneCreated() {
	atomic.AddUint64(&m.zonesCreated, 1)
}

// IncZoneDeleted increments the zone deleted counter.
func (m *InMemoryRecorder) IncZoneDeleted() {
	atomic.AddUint64(&m.zonesDeleted, 1)
}

// IncShareCacheHit increments the share cache hit counter.
func (m *InMemoryRecorder) IncShareCacheHit() {
	atomic.AddUint64(&m.shareCacheHits, 1)
}

// IncShareCacheMiss increments the share cache miss counter.
func (m *InMemoryRecorder) IncShareCacheMiss() {
	atomic.AddUint64(&m.shareCacheMisses, 1)
}

// ObserveShareResolveDuration records a share resolution duration.
func (m *InMemoryRecorder) ObserveShareResolveDuration(duration time.Duration) {
	atomic.AddUint64(&m.shareResolveCount, 1)
	atomic.AddInt64(&m.shareResolveTotalNs, duration.Nanoseconds())
}

// AddViewsFlushed adds to the flushed view counter.
func (m *InMemoryRecorder) AddViewsFlushed(count int64) {
	atomic.AddInt64(&m.viewsFlushed, count)
}

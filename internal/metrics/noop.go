package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncLoginSuccess is a no-op.
func (n *NoopRecorder) IncLoginSuccess(realm string) {}

// IncLoginFailure is a no-op.
func (n *NoopRecorder) IncLoginFailure() {}

// IncMapCreated is a no-op.
func (n *NoopRecorder) IncMapCreated() {}

// IncMapUpdated is a no-op.
func (n *NoopRecorder) IncMapUpdated() {}

// IncMapDeleted is a no-op.
func (n *NoopRecorder) IncMapDeleted() {}

// IncQuotaDenied is a no-op.
func (n *NoopRecorder) IncQuotaDenied() {}

// IncZoneCreated is a no-op.
func (n *NoopRecorder) IncZoneCreated() {}

// IncZoneDeleted is a no-op.
func (n *NoopRecorder) IncZoneDeleted() {}

// IncShareCacheHit is a no-op.
func (n *NoopRecorder) IncShareCacheHit() {}

// IncShareCacheMiss is a no-op.
func (n *NoopRecorder) IncShareCacheMiss() {}

// ObserveShareResolveDuration is a no-op.
func (n *NoopRecorder) ObserveShareResolveDuration(duration time.Duration) {}

// AddViewsFlushed is a no-op.
func (n *NoopRecorder) AddViewsFlushed(count int64) {}

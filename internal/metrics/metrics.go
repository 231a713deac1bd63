// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder records application metrics. Implementations must be safe for
// concurrent use.
type Recorder interface {
	IncLoginSuccess(realm string)
	IncLoginFailure()
	IncMapCreated()
	IncMapUpdated()
	IncMapDeleted()
	IncQuotaDenied()
	IncZoneCreated()
	IncZoneDeleted()
	IncShareCacheHit()
	IncShareCacheMiss()
	ObserveShareResolveDuration(duration time.Duration)
	AddViewsFlushed(count int64)
}

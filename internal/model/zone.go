package model

import "time"

// Point is a single polygon vertex.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Zone represents a hand-drawn polygon on a map.
//
// The ID is generated client-side (UUID) before the parent map exists, and
// stays stable when the zone is committed to the store. CreatedBy records
// the customer who drew the zone, independently of the map's owner field.
type Zone struct {
	ID        string    `json:"id"`
	MapID     int64     `json:"map_id,omitempty"`
	CreatedBy int64     `json:"created_by"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Points    []Point   `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

// HasValidPolygon reports whether the zone has at least three vertices.
// Zones with fewer vertices are still accepted by the store; this is a
// soft rule surfaced to callers that want to warn.
func (z *Zone) HasValidPolygon() bool {
	return len(z.Points) >= 3
}

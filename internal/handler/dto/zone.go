package dto

import (
	"time"

	"github.com/zonemap/zonemap/internal/model"
)

// ZoneRequest is the payload for saving a zone. The id is client
// generated and stays stable from the pending buffer to the store.
type ZoneRequest struct {
	ID     string        `json:"id,omitempty"`
	MapID  int64         `json:"map_id"`
	Name   string        `json:"name"`
	Color  string        `json:"color,omitempty"`
	Points []model.Point `json:"points"`
}

// ZoneResponse is the API representation of a zone.
type ZoneResponse struct {
	ID        string        `json:"id"`
	MapID     int64         `json:"map_id"`
	Name      string        `json:"name"`
	Color     string        `json:"color"`
	Points    []model.Point `json:"points"`
	CreatedAt time.Time     `json:"created_at"`
}

// ZoneListResponse wraps a map's zones.
type ZoneListResponse struct {
	Zones []ZoneResponse `json:"zones"`
	Total int            `json:"total"`
}

// FailedZoneResponse reports one zone a batch flush could not commit.
type FailedZoneResponse struct {
	Zone   ZoneResponse `json:"zone"`
	Reason string       `json:"reason"`
}

// FlushResponse is the per-zone outcome of a batch zone flush.
type FlushResponse struct {
	CommittedCount int                  `json:"committed_count"`
	Committed      []ZoneResponse       `json:"committed"`
	FailedZones    []FailedZoneResponse `json:"failed_zones"`
}

// ToZone converts a request into the domain model.
func (r ZoneRequest) ToZone() *model.Zone {
	return &model.Zone{
		ID:     r.ID,
		MapID:  r.MapID,
		Name:   r.Name,
		Color:  r.Color,
		Points: r.Points,
	}
}

// ToZoneResponse converts a zone to its response shape.
func ToZoneResponse(z *model.Zone) ZoneResponse {
	return ZoneResponse{
		ID:        z.ID,
		MapID:     z.MapID,
		Name:      z.Name,
		Color:     z.Color,
		Points:    z.Points,
		CreatedAt: z.CreatedAt,
	}
}

// ToZoneListResponse converts zones to the list shape.
func ToZoneListResponse(zones []*model.Zone) ZoneListResponse {
	resp := ZoneListResponse{Zones: make([]ZoneResponse, 0, len(zones))}
	for _, zone := range zones {
		resp.Zones = append(resp.Zones, ToZoneResponse(zone))
	}
	resp.Total = len(resp.Zones)
	return resp
}

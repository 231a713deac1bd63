package dto

import (
	"time"

	"github.com/zonemap/zonemap/internal/model"
)

// CreateMapRequest is the payload for creating a map.
type CreateMapRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Zoom        int     `json:"zoom"`
	Country     string  `json:"country,omitempty"`
}

// UpdateMapRequest is the payload for updating a map.
// Nil fields are left unchanged.
type UpdateMapRequest struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`
	Zoom        *int     `json:"zoom,omitempty"`
	Country     *string  `json:"country,omitempty"`
	Active      *bool    `json:"active,omitempty"`
}

// MapResponse is the API representation of a map.
type MapResponse struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Zoom        int       `json:"zoom"`
	Country     string    `json:"country,omitempty"`
	Active      bool      `json:"active"`
	MapCode     string    `json:"map_code"`
	ShareURL    string    `json:"share_url"`
	ViewCount   int64     `json:"view_count"`
	ZoneCount   int64     `json:"zone_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MapListResponse wraps a customer's maps.
type MapListResponse struct {
	Maps  []MapResponse `json:"maps"`
	Total int           `json:"total"`
}

// SharedMapResponse is the public projection served for a share code.
// It omits the owner and internal ids.
type SharedMapResponse struct {
	Title     string         `json:"title"`
	Lat       float64        `json:"lat"`
	Lng       float64        `json:"lng"`
	Zoom      int            `json:"zoom"`
	Country   string         `json:"country,omitempty"`
	Zones     []ZoneResponse `json:"zones"`
	ViewCount int64          `json:"view_count,omitempty"`
}

// QuotaResponse reports the advisory quota decision for a customer.
type QuotaResponse struct {
	Allowed bool            `json:"allowed"`
	Current int             `json:"current"`
	Limit   int             `json:"limit"`
	Package PackageResponse `json:"package"`
}

// QuotaExceededResponse is the 403 body for a denied map create.
type QuotaExceededResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Current int    `json:"current"`
	Limit   int    `json:"limit"`
}

// ToMapResponse converts a map to its response shape.
func ToMapResponse(m *model.Map, shareURL string) MapResponse {
	return MapResponse{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Title:       m.Title,
		Description: m.Description,
		Lat:         m.Lat,
		Lng:         m.Lng,
		Zoom:        m.Zoom,
		Country:     m.Country,
		Active:      m.Active,
		MapCode:     m.MapCode,
		ShareURL:    shareURL,
		ViewCount:   m.ViewCount,
		ZoneCount:   m.ZoneCount,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ToSharedMapResponse converts a map and its zones to the public shape.
func ToSharedMapResponse(m *model.Map, zones []*model.Zone) SharedMapResponse {
	resp := SharedMapResponse{
		Title:     m.Title,
		Lat:       m.Lat,
		Lng:       m.Lng,
		Zoom:      m.Zoom,
		Country:   m.Country,
		Zones:     make([]ZoneResponse, 0, len(zones)),
		ViewCount: m.ViewCount,
	}
	for _, zone := range zones {
		resp.Zones = append(resp.Zones, ToZoneResponse(zone))
	}
	return resp
}

package model

import (
	"strconv"
	"time"
)

// Map represents a customer-owned map: a viewport plus drawn zones.
type Map struct {
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
	ViewCount   int64     `json:"view_count"`
	ZoneCount   int64     `json:"zone_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Viewport groups the camera position of a map.
type Viewport struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Zoom int     `json:"zoom"`
}

// Viewport returns the map's camera position.
func (m *Map) Viewport() Viewport {
	return Viewport{Lat: m.Lat, Lng: m.Lng, Zoom: m.Zoom}
}

// CachedMap represents map data stored in Redis for the share hot path.
// Uses string types for Redis hash compatibility.
type CachedMap struct {
	ID        string `redis:"id"`
	OwnerID   string `redis:"owner_id"`
	Title     string `redis:"title"`
	Lat       string `redis:"lat"`
	Lng       string `redis:"lng"`
	Zoom      string `redis:"zoom"`
	Country   string `redis:"country"`
	Active    string `redis:"active"` // "1" or "0"
	UpdatedAt string `redis:"updated_at"`
}

// ToMap converts CachedMap to the Map domain model.
func (c *CachedMap) ToMap(mapCode string) *Map {
	m := &Map{
		MapCode: mapCode,
		Title:   c.Title,
		Country: c.Country,
		Active:  c.Active == "1",
	}

	if id, err := strconv.ParseInt(c.ID, 10, 64); err == nil {
		m.ID = id
	}
	if owner, err := strconv.ParseInt(c.OwnerID, 10, 64); err == nil {
		m.OwnerID = owner
	}
	if lat, err := strconv.ParseFloat(c.Lat, 64); err == nil {
		m.Lat = lat
	}
	if lng, err := strconv.ParseFloat(c.Lng, 64); err == nil {
		m.Lng = lng
	}
	if zoom, err := strconv.Atoi(c.Zoom); err == nil {
		m.Zoom = zoom
	}
	if ts, err := strconv.ParseInt(c.UpdatedAt, 10, 64); err == nil {
		m.UpdatedAt = time.Unix(ts, 0)
	}

	return m
}

// ToCachedMap converts a Map to its Redis projection.
func (m *Map) ToCachedMap() *CachedMap {
	return &CachedMap{
		ID:        strconv.FormatInt(m.ID, 10),
		OwnerID:   strconv.FormatInt(m.OwnerID, 10),
		Title:     m.Title,
		Lat:       strconv.FormatFloat(m.Lat, 'f', -1, 64),
		Lng:       strconv.FormatFloat(m.Lng, 'f', -1, 64),
		Zoom:      strconv.Itoa(m.Zoom),
		Country:   m.Country,
		Active:    boolToString(m.Active),
		UpdatedAt: strconv.FormatInt(m.UpdatedAt.Unix(), 10),
	}
}

// boolToString converts boolean to "1" or "0".
func boolToString(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

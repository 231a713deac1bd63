package model

import "time"

// Package represents a subscription tier that caps how many maps a
// customer may create.
type Package struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	AllowedMaps int       `json:"allowed_maps"`
	PriceCents  int64     `json:"price_cents"`
	Priority    int       `json:"priority"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsValid checks the package invariants.
func (p *Package) IsValid() bool {
	return p.Name != "" && p.AllowedMaps >= 1
}

// DefaultPackage returns the built-in free tier used when a customer has
// no package assigned. The fallback is a minimal quota, never unlimited.
func DefaultPackage() *Package {
	return &Package{
		ID:          0,
		Name:        "free",
		AllowedMaps: 1,
		PriceCents:  0,
		Priority:    0,
		Active:      true,
	}
}

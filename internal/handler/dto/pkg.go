package dto

import (
	"time"

	"github.com/zonemap/zonemap/internal/model"
)

// PackageRequest is the payload for creating or updating a package.
type PackageRequest struct {
	Name        string `json:"name"`
	AllowedMaps int    `json:"allowed_maps"`
	PriceCents  int64  `json:"price_cents"`
	Priority    int    `json:"priority"`
	Active      *bool  `json:"active,omitempty"`
}

// PackageResponse is the API representation of a package.
type PackageResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	AllowedMaps int       `json:"allowed_maps"`
	PriceCents  int64     `json:"price_cents"`
	Priority    int       `json:"priority"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PackageListResponse wraps the package catalog.
type PackageListResponse struct {
	Packages []PackageResponse `json:"packages"`
	Total    int               `json:"total"`
}

// ToPackageResponse converts a package to its response shape.
func ToPackageResponse(p *model.Package) PackageResponse {
	return PackageResponse{
		ID:          p.ID,
		Name:        p.Name,
		AllowedMaps: p.AllowedMaps,
		PriceCents:  p.PriceCents,
		Priority:    p.Priority,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ToPackageListResponse converts packages to the list shape.
func ToPackageListResponse(packages []*model.Package) PackageListResponse {
	resp := PackageListResponse{Packages: make([]PackageResponse, 0, len(packages))}
	for _, pkg := range packages {
		resp.Packages = append(resp.Packages, ToPackageResponse(pkg))
	}
	resp.Total = len(resp.Packages)
	return resp
}

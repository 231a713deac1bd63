package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zonemap/zonemap/internal/cache"
	"github.com/zonemap/zonemap/internal/metrics"
	"github.com/zonemap/zonemap/internal/model"
	"github.com/zonemap/zonemap/internal/repository"
)

// Service errors for map operations.
var (
	ErrTitleRequired = errors.New("title required")
	ErrMapNotFound   = errors.New("map not found")
	ErrForbidden     = errors.New("map does not belong to caller")
	ErrMapInactive   = errors.New("map is inactive")
	ErrInvalidZoom   = errors.New("zoom must be between 0 and 22")
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000
)

// MapStore is the persistence contract for maps.
type MapStore interface {
	CodeChecker
	CreateMap(ctx context.Context, m *model.Map, allowedMaps int) error
	GetMapByID(ctx context.Context, id int64) (*model.Map, error)
	GetMapByCode(ctx context.Context, mapCode string) (*model.Map, error)
	ListMapsForCustomer(ctx context.Context, customerID int64) ([]*model.Map, error)
	UpdateMap(ctx context.Context, m *model.Map, ownerID int64) error
	DeleteMap(ctx context.Context, id, ownerID int64) error
	GetPackageForCustomer(ctx context.Context, customerID int64) (*model.Package, error)
}

// MapCache is the hot-path cache contract for share-code resolution.
// Implemented by the redis cache; may be nil-free faked in tests.
type MapCache interface {
	GetMap(ctx context.Context, mapCode string) (*model.CachedMap, error)
	SetMap(ctx context.Context, mapCode string, m *model.Map) error
	DeleteMap(ctx context.Context, mapCode string) error
	IsNegativelyCached(ctx context.Context, mapCode string) (bool, error)
	SetNegativeCache(ctx context.Context, mapCode string) error
}

// MapService handles map business logic, including share-code generation.
type MapService struct {
	store   MapStore
	cache   MapCache
	baseURL string
	metrics metrics.Recorder
}

// NewMapService creates a new MapService.
func NewMapService(store MapStore, mapCache MapCache, baseURL string, recorder metrics.Recorder) *MapService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &MapService{
		store:   store,
		cache:   mapCache,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		metrics: recorder,
	}
}

// CreateMapInput defines input for creating a map.
type CreateMapInput struct {
	OwnerID     int64
	Title       string
	Description string
	Lat         float64
	Lng         float64
	Zoom        int
	Country     string
}

// CreateMap validates input, issues a unique share code and persists the
// map. The store re-checks the quota atomically with the insert; a
// *repository.QuotaExceededError from here carries the current count and
// limit.
func (s *MapService) CreateMap(ctx context.Context, input CreateMapInput) (*model.Map, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if len(title) > maxTitleLength {
		title = title[:maxTitleLength]
	}
	if len(input.Description) > maxDescriptionLength {
		return nil, fmt.Errorf("description exceeds %d characters", maxDescriptionLength)
	}
	if input.Zoom < 0 || input.Zoom > 22 {
		return nil, ErrInvalidZoom
	}

	pkg, err := s.store.GetPackageForCustomer(ctx, input.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("resolve package: %w", err)
	}

	code, err := generateUniqueMapCode(ctx, s.store)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	m := &model.Map{
		OwnerID:     input.OwnerID,
		Title:       title,
		Description: input.Description,
		Lat:         input.Lat,
		Lng:         input.Lng,
		Zoom:        input.Zoom,
		Country:     input.Country,
		Active:      true,
		MapCode:     code,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateMap(ctx, m, pkg.AllowedMaps); err != nil {
		var quotaErr *repository.QuotaExceededError
		if errors.As(err, &quotaErr) {
			s.metrics.IncQuotaDenied()
			return nil, err
		}
		return nil, fmt.Errorf("failed to create map: %w", err)
	}

	s.metrics.IncMapCreated()
	return m, nil
}

// GetMap retrieves a map by id.
func (s *MapService) GetMap(ctx context.Context, id int64) (*model.Map, error) {
	m, err := s.store.GetMapByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMapNotFound) {
			return nil, ErrMapNotFound
		}
		return nil, err
	}
	return m, nil
}

// ListMaps retrieves all maps of a customer with zone counts.
func (s *MapService) ListMaps(ctx context.Context, customerID int64) ([]*model.Map, error) {
	return s.store.ListMapsForCustomer(ctx, customerID)
}

// UpdateMapInput defines input for updating a map. Nil fields are left
// unchanged.
type UpdateMapInput struct {
	ID          int64
	OwnerID     int64
	Title       *string
	Description *string
	Lat         *float64
	Lng         *float64
	Zoom        *int
	Country     *string
	Active      *bool
}

// UpdateMap updates a map's mutable fields for its owner.
func (s *MapService) UpdateMap(ctx context.Context, input UpdateMapInput) (*model.Map, error) {
	m, err := s.store.GetMapByID(ctx, input.ID)
	if err != nil {
		if errors.Is(err, repository.ErrMapNotFound) {
			return nil, ErrMapNotFound
		}
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		m.Title = title
	}
	if input.Description != nil {
		m.Description = *input.Description
	}
	if input.Lat != nil {
		m.Lat = *input.Lat
	}
	if input.Lng != nil {
		m.Lng = *input.Lng
	}
	if input.Zoom != nil {
		if *input.Zoom < 0 || *input.Zoom > 22 {
			return nil, ErrInvalidZoom
		}
		m.Zoom = *input.Zoom
	}
	if input.Country != nil {
		m.Country = *input.Country
	}
	if input.Active != nil {
		m.Active = *input.Active
	}

	if err := s.store.UpdateMap(ctx, m, input.OwnerID); err != nil {
		return nil, s.mapStoreError(err)
	}

	s.metrics.IncMapUpdated()

	// Invalidate the share cache; eventual consistency is acceptable.
	if err := s.cache.DeleteMap(ctx, m.MapCode); err != nil {
		_ = err
	}

	return m, nil
}

// DeleteMap removes a map and, via the store cascade, all of its zones.
func (s *MapService) DeleteMap(ctx context.Context, id, ownerID int64) error {
	m, err := s.store.GetMapByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMapNotFound) {
			return ErrMapNotFound
		}
		return err
	}

	if err := s.store.DeleteMap(ctx, id, ownerID); err != nil {
		return s.mapStoreError(err)
	}

	s.metrics.IncMapDeleted()

	if err := s.cache.DeleteMap(ctx, m.MapCode); err != nil {
		_ = err
	}

	return nil
}

// ResolveShared resolves a share code to its map, cache-first.
// Inactive maps resolve like missing ones so sharing can be switched off
// without deleting.
func (s *MapService) ResolveShared(ctx context.Context, mapCode string) (*model.Map, bool, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveShareResolveDuration(time.Since(start))
	}()

	if !MapCodeRegex.MatchString(mapCode) {
		return nil, false, ErrMapNotFound
	}

	cached, err := s.cache.GetMap(ctx, mapCode)
	if err == nil {
		s.metrics.IncShareCacheHit()
		m := cached.ToMap(mapCode)
		if !m.Active {
			return nil, true, ErrMapInactive
		}
		return m, true, nil
	}

	if errors.Is(err, cache.ErrCacheMiss) {
		s.metrics.IncShareCacheMiss()
		isNegative, _ := s.cache.IsNegativelyCached(ctx, mapCode)
		if isNegative {
			return nil, false, ErrMapNotFound
		}
	}
	// On any other cache error fall through to the store.

	m, err := s.store.GetMapByCode(ctx, mapCode)
	if err != nil {
		if errors.Is(err, repository.ErrMapNotFound) {
			_ = s.cache.SetNegativeCache(ctx, mapCode)
			return nil, false, ErrMapNotFound
		}
		return nil, false, err
	}

	if err := s.cache.SetMap(ctx, mapCode, m); err != nil {
		_ = err
	}

	if !m.Active {
		return nil, false, ErrMapInactive
	}

	return m, false, nil
}

// ShareURL returns the public share link for a map code.
func (s *MapService) ShareURL(mapCode string) string {
	return s.baseURL + "/m/" + mapCode
}

// mapStoreError converts owner-scoped store errors to service errors.
func (s *MapService) mapStoreError(err error) error {
	switch {
	case errors.Is(err, repository.ErrMapNotFound):
		return ErrMapNotFound
	case errors.Is(err, repository.ErrMapForbidden):
		return ErrForbidden
	default:
		return err
	}
}

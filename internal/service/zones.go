package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/zonemap/zonemap/internal/metrics"
	"github.com/zonemap/zonemap/internal/model"
	"github.com/zonemap/zonemap/internal/repository"
)

// Service errors for zone operations.
var (
	ErrZoneNotFound = errors.New("zone not found")
	ErrZoneExists   = errors.New("zone already saved")
	ErrZoneName     = errors.New("zone name required")
)

// defaultZoneColor is applied when the client omits a color.
const defaultZoneColor = "#3388ff"

// ZoneStore is the persistence contract for zones.
type ZoneStore interface {
	CreateZone(ctx context.Context, zone *model.Zone) error
	ListZonesForMap(ctx context.Context, mapID int64) ([]*model.Zone, error)
	DeleteZone(ctx context.Context, mapID int64, zoneID string) error
}

// ZoneService handles zone business logic.
type ZoneService struct {
	store   ZoneStore
	metrics metrics.Recorder
}

// NewZoneService creates a new ZoneService.
func NewZoneService(store ZoneStore, recorder metrics.Recorder) *ZoneService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ZoneService{store: store, metrics: recorder}
}

// CreateZone persists a zone against an existing map. The zone id comes
// from the client so it stays stable across the pending to committed
// transition; a missing id gets a fresh UUID. The creator is recorded for
// audit and may differ from the map's owner.
func (s *ZoneService) CreateZone(ctx context.Context, mapID, customerID int64, zone *model.Zone) (*model.Zone, error) {
	if zone.Name == "" {
		return nil, ErrZoneName
	}
	if zone.ID == "" {
		zone.ID = uuid.New().String()
	}
	if zone.Color == "" {
		zone.Color = defaultZoneColor
	}

	zone.MapID = mapID
	zone.CreatedBy = customerID
	if zone.CreatedAt.IsZero() {
		zone.CreatedAt = time.Now().UTC()
	}

	if err := s.store.CreateZone(ctx, zone); err != nil {
		switch {
		case errors.Is(err, repository.ErrMapNotFound):
			return nil, ErrMapNotFound
		case errors.Is(err, repository.ErrZoneExists):
			return nil, ErrZoneExists
		default:
			return nil, err
		}
	}

	s.metrics.IncZoneCreated()
	return zone, nil
}

// ListZones retrieves all zones of a map.
func (s *ZoneService) ListZones(ctx context.Context, mapID int64) ([]*model.Zone, error) {
	zones, err := s.store.ListZonesForMap(ctx, mapID)
	if err != nil {
		if errors.Is(err, repository.ErrMapNotFound) {
			return nil, ErrMapNotFound
		}
		return nil, err
	}
	return zones, nil
}

// DeleteZone removes a single zone from a map.
func (s *ZoneService) DeleteZone(ctx context.Context, mapID int64, zoneID string) error {
	if err := s.store.DeleteZone(ctx, mapID, zoneID); err != nil {
		if errors.Is(err, repository.ErrZoneNotFound) {
			return ErrZoneNotFound
		}
		return err
	}

	s.metrics.IncZoneDeleted()
	return nil
}

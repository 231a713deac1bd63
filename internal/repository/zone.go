package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/zonemap/zonemap/internal/model"
)

// Common errors for zone repository operations.
var (
	ErrZoneNotFound = errors.New("zone not found")
	ErrZoneExists   = errors.New("zone id already exists")
)

// CreateZone inserts a zone against an existing map.
//
// The zone id is client-generated and stable across the pending to
// committed transition. The maps FK means a concurrently deleted map makes
// this fail with ErrMapNotFound rather than orphaning the row. The creator
// is recorded for audit and is not required to match the map's owner.
func (r *Repository) CreateZone(ctx context.Context, zone *model.Zone) error {
	query := `
		INSERT INTO zones (id, map_id, created_by, name, color, points, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		zone.ID, zone.MapID, zone.CreatedBy, zone.Name, zone.Color, zone.Points, zone.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrMapNotFound
		}
		if isUniqueViolation(err) {
			return ErrZoneExists
		}
		return fmt.Errorf("failed to create zone: %w", err)
	}

	return nil
}

// ListZonesForMap retrieves all zones of a map in drawing order.
// Returns ErrMapNotFound when the map id is unknown, so callers can tell
// an empty map apart from a missing one.
func (r *Repository) ListZonesForMap(ctx context.Context, mapID int64) ([]*model.Zone, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM maps WHERE id = $1)`, mapID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check map existence: %w", err)
	}
	if !exists {
		return nil, ErrMapNotFound
	}

	query := `
		SELECT id, map_id, created_by, name, color, points, created_at
		FROM zones
		WHERE map_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, mapID)
	if err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}
	defer rows.Close()

	var zones []*model.Zone
	for rows.Next() {
		zone, err := scanZone(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan zone: %w", err)
		}
		zones = append(zones, zone)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating zones: %w", err)
	}

	return zones, nil
}

// GetZone retrieves a single zone of a map.
func (r *Repository) GetZone(ctx context.Context, mapID int64, zoneID string) (*model.Zone, error) {
	query := `
		SELECT id, map_id, created_by, name, color, points, created_at
		FROM zones
		WHERE map_id = $1 AND id = $2
	`

	zone, err := scanZone(r.pool.QueryRow(ctx, query, mapID, zoneID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrZoneNotFound
		}
		return nil, fmt.Errorf("failed to get zone: %w", err)
	}

	return zone, nil
}

// DeleteZone removes a single zone from a map.
func (r *Repository) DeleteZone(ctx context.Context, mapID int64, zoneID string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM zones WHERE map_id = $1 AND id = $2`, mapID, zoneID)
	if err != nil {
		return fmt.Errorf("failed to delete zone: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrZoneNotFound
	}

	return nil
}

// CountZonesForMap returns the number of zones on a map.
func (r *Repository) CountZonesForMap(ctx context.Context, mapID int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM zones WHERE map_id = $1`, mapID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count zones: %w", err)
	}

	return count, nil
}

// scanZone scans a single row into a Zone model. Points are stored as
// JSONB and unmarshalled by pgx.
func scanZone(row pgx.Row) (*model.Zone, error) {
	var zone model.Zone
	err := row.Scan(
		&zone.ID, &zone.MapID, &zone.CreatedBy, &zone.Name, &zone.Color, &zone.Points, &zone.CreatedAt,
	)
	return &zone, err
}

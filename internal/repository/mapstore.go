package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/zonemap/zonemap/internal/model"
)

// Common errors for map repository operations.
var (
	ErrMapNotFound   = errors.New("map not found")
	ErrMapForbidden  = errors.New("map does not belong to customer")
	ErrMapCodeExists = errors.New("map code already exists")
)

// QuotaExceededError is returned when a map creation would exceed the
// customer's package quota. It carries the counts so callers can render an
// upgrade prompt.
type QuotaExceededError struct {
	Current int
	Limit   int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("map quota exceeded: %d of %d maps used", e.Current, e.Limit)
}

// CreateMap inserts a new map if and only if the owner is under the given
// quota. The count check and the insert run in one transaction with the
// owner row locked, so two concurrent creates at the limit cannot both
// succeed.
func (r *Repository) CreateMap(ctx context.Context, m *model.Map, allowedMaps int) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		// Lock the owner row to serialize per-customer creation.
		var ownerID int64
		err := tx.QueryRow(ctx,
			`SELECT id FROM customers WHERE id = $1 FOR UPDATE`, m.OwnerID,
		).Scan(&ownerID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrCustomerNotFound
			}
			return fmt.Errorf("lock owner: %w", err)
		}

		var count int
		err = tx.QueryRow(ctx,
			`SELECT count(*) FROM maps WHERE owner_id = $1`, m.OwnerID,
		).Scan(&count)
		if err != nil {
			return fmt.Errorf("count maps: %w", err)
		}

		if count >= allowedMaps {
			return &QuotaExceededError{Current: count, Limit: allowedMaps}
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO maps (owner_id, title, description, lat, lng, zoom, country, active, map_code, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id
		`,
			m.OwnerID, m.Title, m.Description, m.Lat, m.Lng, m.Zoom,
			m.Country, m.Active, m.MapCode, m.CreatedAt, m.UpdatedAt,
		).Scan(&m.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrMapCodeExists
			}
			return fmt.Errorf("insert map: %w", err)
		}

		return nil
	})
	if err != nil {
		var quotaErr *QuotaExceededError
		if errors.Is(err, ErrCustomerNotFound) || errors.Is(err, ErrMapCodeExists) || errors.As(err, &quotaErr) {
			return err
		}
		return fmt.Errorf("failed to create map: %w", err)
	}

	return nil
}

// GetMapByID retrieves a map by id.
func (r *Repository) GetMapByID(ctx context.Context, id int64) (*model.Map, error) {
	query := `
		SELECT id, owner_id, title, description, lat, lng, zoom, country, active, map_code, view_count, created_at, updated_at
		FROM maps
		WHERE id = $1
	`

	m, err := scanMap(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMapNotFound
		}
		return nil, fmt.Errorf("failed to get map by id: %w", err)
	}

	return m, nil
}

// GetMapByCode retrieves a map by its share code.
// This is the hot path for shared map resolution.
func (r *Repository) GetMapByCode(ctx context.Context, mapCode string) (*model.Map, error) {
	query := `
		SELECT id, owner_id, title, description, lat, lng, zoom, country, active, map_code, view_count, created_at, updated_at
		FROM maps
		WHERE map_code = $1
	`

	m, err := scanMap(r.pool.QueryRow(ctx, query, mapCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMapNotFound
		}
		return nil, fmt.Errorf("failed to get map by code: %w", err)
	}

	return m, nil
}

// MapCodeExists checks if a share code is already taken.
func (r *Repository) MapCodeExists(ctx context.Context, mapCode string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM maps WHERE map_code = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, mapCode).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check map code existence: %w", err)
	}

	return exists, nil
}

// ListMapsForCustomer retrieves all maps owned by a customer, newest
// first, each annotated with its zone count.
func (r *Repository) ListMapsForCustomer(ctx context.Context, customerID int64) ([]*model.Map, error) {
	query := `
		SELECT m.id, m.owner_id, m.title, m.description, m.lat, m.lng, m.zoom, m.country,
		       m.active, m.map_code, m.view_count, m.created_at, m.updated_at,
		       count(z.id) AS zone_count
		FROM maps m
		LEFT JOIN zones z ON z.map_id = m.id
		WHERE m.owner_id = $1
		GROUP BY m.id
		ORDER BY m.created_at DESC, m.id DESC
	`

	rows, err := r.pool.Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list maps: %w", err)
	}
	defer rows.Close()

	var maps []*model.Map
	for rows.Next() {
		var m model.Map
		err := rows.Scan(
			&m.ID, &m.OwnerID, &m.Title, &m.Description, &m.Lat, &m.Lng, &m.Zoom, &m.Country,
			&m.Active, &m.MapCode, &m.ViewCount, &m.CreatedAt, &m.UpdatedAt,
			&m.ZoneCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan map: %w", err)
		}
		maps = append(maps, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating maps: %w", err)
	}

	return maps, nil
}

// UpdateMap updates a map's mutable fields (title, description, viewport,
// country, active). Returns ErrMapForbidden if the map exists but is not
// owned by ownerID.
func (r *Repository) UpdateMap(ctx context.Context, m *model.Map, ownerID int64) error {
	query := `
		UPDATE maps
		SET title = $3, description = $4, lat = $5, lng = $6, zoom = $7, country = $8, active = $9, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
	`

	result, err := r.pool.Exec(ctx, query,
		m.ID, ownerID,
		m.Title, m.Description, m.Lat, m.Lng, m.Zoom, m.Country, m.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to update map: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.mapMissingOrForbidden(ctx, m.ID)
	}

	return nil
}

// DeleteMap removes a map owned by ownerID. The zones FK cascades, so all
// zones of the map are removed in the same statement.
func (r *Repository) DeleteMap(ctx context.Context, id, ownerID int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM maps WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete map: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.mapMissingOrForbidden(ctx, id)
	}

	return nil
}

// CountMapsForCustomer returns how many maps a customer currently owns.
// This feeds the advisory quota check; the authoritative check lives in
// CreateMap.
func (r *Repository) CountMapsForCustomer(ctx context.Context, customerID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM maps WHERE owner_id = $1`, customerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count maps: %w", err)
	}

	return count, nil
}

// AddMapViews adds a batch of share views to a map's counter.
// Called from the background view flush worker, not the share path.
func (r *Repository) AddMapViews(ctx context.Context, id int64, count int64) error {
	query := `UPDATE maps SET view_count = view_count + $2 WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, id, count); err != nil {
		return fmt.Errorf("failed to add map views: %w", err)
	}

	return nil
}

// mapMissingOrForbidden distinguishes a missing map from an ownership
// mismatch after a zero-row owner-scoped write.
func (r *Repository) mapMissingOrForbidden(ctx context.Context, id int64) error {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM maps WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check map existence: %w", err)
	}
	if exists {
		return ErrMapForbidden
	}
	return ErrMapNotFound
}

// scanMap scans a single row into a Map model.
func scanMap(row pgx.Row) (*model.Map, error) {
	var m model.Map
	err := row.Scan(
		&m.ID, &m.OwnerID, &m.Title, &m.Description, &m.Lat, &m.Lng, &m.Zoom, &m.Country,
		&m.Active, &m.MapCode, &m.ViewCount, &m.CreatedAt, &m.UpdatedAt,
	)
	return &m, err
}

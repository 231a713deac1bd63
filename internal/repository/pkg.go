package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/zonemap/zonemap/internal/model"
)

// ErrPackageNotFound indicates the package id is unknown.
var ErrPackageNotFound = errors.New("package not found")

// CreatePackage inserts a new subscription package.
func (r *Repository) CreatePackage(ctx context.Context, pkg *model.Package) error {
	query := `
		INSERT INTO packages (name, allowed_maps, price_cents, priority, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		pkg.Name, pkg.AllowedMaps, pkg.PriceCents, pkg.Priority, pkg.Active,
		pkg.CreatedAt, pkg.UpdatedAt,
	).Scan(&pkg.ID)
	if err != nil {
		return fmt.Errorf("failed to create package: %w", err)
	}

	return nil
}

// GetPackageByID retrieves a package by id.
func (r *Repository) GetPackageByID(ctx context.Context, id int64) (*model.Package, error) {
	query := `
		SELECT id, name, allowed_maps, price_cents, priority, active, created_at, updated_at
		FROM packages
		WHERE id = $1
	`

	pkg, err := scanPackage(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPackageNotFound
		}
		return nil, fmt.Errorf("failed to get package by id: %w", err)
	}

	return pkg, nil
}

// ListPackages retrieves all packages ordered by priority.
func (r *Repository) ListPackages(ctx context.Context) ([]*model.Package, error) {
	query := `
		SELECT id, name, allowed_maps, price_cents, priority, active, created_at, updated_at
		FROM packages
		ORDER BY priority, id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	defer rows.Close()

	var packages []*model.Package
	for rows.Next() {
		pkg, err := scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan package: %w", err)
		}
		packages = append(packages, pkg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating packages: %w", err)
	}

	return packages, nil
}

// UpdatePackage updates a package's mutable fields.
func (r *Repository) UpdatePackage(ctx context.Context, pkg *model.Package) error {
	query := `
		UPDATE packages
		SET name = $2, allowed_maps = $3, price_cents = $4, priority = $5, active = $6, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		pkg.ID, pkg.Name, pkg.AllowedMaps, pkg.PriceCents, pkg.Priority, pkg.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to update package: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrPackageNotFound
	}

	return nil
}

// DeletePackage removes a package. Customers referencing it fall back to
// the default package (FK sets package_id to NULL).
func (r *Repository) DeletePackage(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM packages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete package: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrPackageNotFound
	}

	return nil
}

// GetPackageForCustomer resolves the customer's active package.
// Customers without an assignment get the built-in default, never an
// unlimited quota.
func (r *Repository) GetPackageForCustomer(ctx context.Context, customerID int64) (*model.Package, error) {
	customer, err := r.GetCustomerByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if customer.PackageID == nil {
		return model.DefaultPackage(), nil
	}

	pkg, err := r.GetPackageByID(ctx, *customer.PackageID)
	if err != nil {
		if errors.Is(err, ErrPackageNotFound) {
			return model.DefaultPackage(), nil
		}
		return nil, err
	}

	return pkg, nil
}

// scanPackage scans a single row into a Package model.
func scanPackage(row pgx.Row) (*model.Package, error) {
	var pkg model.Package
	err := row.Scan(
		&pkg.ID, &pkg.Name, &pkg.AllowedMaps, &pkg.PriceCents,
		&pkg.Priority, &pkg.Active, &pkg.CreatedAt, &pkg.UpdatedAt,
	)
	return &pkg, err
}

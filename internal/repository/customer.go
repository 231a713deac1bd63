package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/zonemap/zonemap/internal/model"
)

// Common errors for customer and admin repository operations.
var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrAdminNotFound    = errors.New("admin not found")
	ErrEmailExists      = errors.New("email already exists")
)

// CreateCustomer inserts a new customer and returns the assigned id.
func (r *Repository) CreateCustomer(ctx context.Context, customer *model.Customer) error {
	query := `
		INSERT INTO customers (email, first_name, last_name, password_hash, package_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		customer.Email,
		customer.FirstName,
		customer.LastName,
		customer.PasswordHash,
		customer.PackageID,
		customer.CreatedAt,
	).Scan(&customer.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}

// GetCustomerByID retrieves a customer by id.
func (r *Repository) GetCustomerByID(ctx context.Context, id int64) (*model.Customer, error) {
	query := `
		SELECT id, email, first_name, last_name, password_hash, package_id, created_at
		FROM customers
		WHERE id = $1
	`

	var c model.Customer
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.PasswordHash, &c.PackageID, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer by id: %w", err)
	}

	return &c, nil
}

// GetCustomerByEmail retrieves a customer by email address.
// This is the customer-realm credential lookup.
func (r *Repository) GetCustomerByEmail(ctx context.Context, email string) (*model.Customer, error) {
	query := `
		SELECT id, email, first_name, last_name, password_hash, package_id, created_at
		FROM customers
		WHERE email = $1
	`

	var c model.Customer
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.PasswordHash, &c.PackageID, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer by email: %w", err)
	}

	return &c, nil
}

// SetCustomerPackage assigns a package to a customer.
func (r *Repository) SetCustomerPackage(ctx context.Context, customerID, packageID int64) error {
	query := `UPDATE customers SET package_id = $2 WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, customerID, packageID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrPackageNotFound
		}
		return fmt.Errorf("failed to set customer package: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrCustomerNotFound
	}

	return nil
}

// CreateAdmin inserts a new admin account.
func (r *Repository) CreateAdmin(ctx context.Context, admin *model.Admin) error {
	query := `
		INSERT INTO admins (email, password_hash, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query, admin.Email, admin.PasswordHash, admin.CreatedAt).Scan(&admin.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to create admin: %w", err)
	}

	return nil
}

// GetAdminByEmail retrieves an admin by email address.
// This is the admin-realm credential lookup.
func (r *Repository) GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	query := `
		SELECT id, email, password_hash, created_at
		FROM admins
		WHERE email = $1
	`

	var a model.Admin
	err := r.pool.QueryRow(ctx, query, email).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to get admin by email: %w", err)
	}

	return &a, nil
}

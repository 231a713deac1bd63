// Package testutil provides helpers for environment-gated integration
// tests: schema resets, test serialization, and data factories.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/zonemap/zonemap/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 730731

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// migrationOrder lists migrations in dependency order.
var migrationOrder = []string{
	"000001_packages",
	"000002_accounts",
	"000003_maps",
	"000004_zones",
}

// ResetSchema drops and recreates the full schema for tests by replaying
// the migrations: down in reverse order, then up.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	for i := len(migrationOrder) - 1; i >= 0; i-- {
		if err := applyMigration(ctx, pool, root, migrationOrder[i]+".down.sql"); err != nil {
			return err
		}
	}
	for _, name := range migrationOrder {
		if err := applyMigration(ctx, pool, root, name+".up.sql"); err != nil {
			return err
		}
	}

	return nil
}

// applyMigration runs a single migration file.
func applyMigration(ctx context.Context, pool *pgxpool.Pool, root, file string) error {
	sql, err := os.ReadFile(filepath.Join(root, "migrations", file))
	if err != nil {
		return fmt.Errorf("read migration %s: %w", file, err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("apply migration %s: %w", file, err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestCustomer creates a customer with sensible defaults.
// The password hash is a dummy; use auth.HashPassword when a real
// credential is needed.
func NewTestCustomer(t testing.TB, email string) *model.Customer {
	t.Helper()
	return &model.Customer{
		Email:        email,
		FirstName:    "Test",
		LastName:     "Customer",
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=2$dGVzdHNhbHQ$dGVzdGhhc2g",
		CreatedAt:    time.Now().UTC(),
	}
}

// NewTestPackage creates a package with the given quota.
func NewTestPackage(t testing.TB, name string, allowedMaps int) *model.Package {
	t.Helper()
	now := time.Now().UTC()
	return &model.Package{
		Name:        name,
		AllowedMaps: allowedMaps,
		PriceCents:  900,
		Priority:    1,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewTestMap creates a map owned by the given customer.
func NewTestMap(t testing.TB, ownerID int64, mapCode string) *model.Map {
	t.Helper()
	now := time.Now().UTC()
	return &model.Map{
		OwnerID:   ownerID,
		Title:     "Test Map " + mapCode,
		Lat:       52.52,
		Lng:       13.405,
		Zoom:      11,
		Active:    true,
		MapCode:   mapCode,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestZone creates a zone with a minimal valid polygon.
func NewTestZone(t testing.TB, mapID, createdBy int64, name string) *model.Zone {
	t.Helper()
	return &model.Zone{
		ID:        UniqueID("zone"),
		MapID:     mapID,
		CreatedBy: createdBy,
		Name:      name,
		Color:     "#3388ff",
		Points: []model.Point{
			{Lat: 52.50, Lng: 13.40},
			{Lat: 52.51, Lng: 13.40},
			{Lat: 52.51, Lng: 13.41},
		},
		CreatedAt: time.Now().UTC(),
	}
}

// UniqueEmail generates a unique email address for tests.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}

// UniqueMapCode generates a unique well-formed map code for tests.
func UniqueMapCode() string {
	n := time.Now().UnixNano()
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	code := make([]byte, 8)
	for i := range code {
		code[i] = alphabet[n%int64(len(alphabet))]
		n /= int64(len(alphabet))
	}
	return fmt.Sprintf("MAP-%s-%s", code[:4], code[4:])
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

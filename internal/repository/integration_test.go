//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/zonemap/zonemap/internal/model"
	"github.com/zonemap/zonemap/internal/testutil"
)

// ============================================================================
// Test Environment Setup
// ============================================================================

func newRepoTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	repo, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	return ctx, repo
}

// seedCustomer creates a customer and returns it with its assigned id.
func seedCustomer(ctx context.Context, t *testing.T, repo *Repository) *model.Customer {
	t.Helper()
	customer := testutil.NewTestCustomer(t, testutil.UniqueEmail("seed"))
	if err := repo.CreateCustomer(ctx, customer); err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return customer
}

// seedMap creates a map for the given owner under a generous quota.
func seedMap(ctx context.Context, t *testing.T, repo *Repository, ownerID int64) *model.Map {
	t.Helper()
	m := testutil.NewTestMap(t, ownerID, testutil.UniqueMapCode())
	if err := repo.CreateMap(ctx, m, 1000); err != nil {
		t.Fatalf("seed map: %v", err)
	}
	return m
}

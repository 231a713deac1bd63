//go:build integration

package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/zonemap/zonemap/internal/model"
	"github.com/zonemap/zonemap/internal/testutil"
)

// ============================================================================
// Customer and Admin Repository Integration Tests
// ============================================================================

func TestIntegrationCustomer_CreateAndLookup(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	email := testutil.UniqueEmail("create")
	customer := testutil.NewTestCustomer(t, email)

	if err := repo.CreateCustomer(ctx, customer); err != nil {
		t.Fatalf("CreateCustomer failed: %v", err)
	}
	if customer.ID == 0 {
		t.Error("CreateCustomer should assign an id")
	}

	byEmail, err := repo.GetCustomerByEmail(ctx, email)
	if err != nil {
		t.Fatalf("GetCustomerByEmail failed: %v", err)
	}
	if byEmail.ID != customer.ID {
		t.Errorf("id mismatch: got %d, want %d", byEmail.ID, customer.ID)
	}

	byID, err := repo.GetCustomerByID(ctx, customer.ID)
	if err != nil {
		t.Fatalf("GetCustomerByID failed: %v", err)
	}
	if byID.Email != email {
		t.Errorf("email mismatch: got %q, want %q", byID.Email, email)
	}
}

func TestIntegrationCustomer_DuplicateEmail(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	email := testutil.UniqueEmail("dup")
	first := testutil.NewTestCustomer(t, email)
	second := testutil.NewTestCustomer(t, email)

	if err := repo.CreateCustomer(ctx, first); err != nil {
		t.Fatalf("CreateCustomer (first) failed: %v", err)
	}
	if err := repo.CreateCustomer(ctx, second); !errors.Is(err, ErrEmailExists) {
		t.Errorf("Expected ErrEmailExists, got: %v", err)
	}
}

func TestIntegrationCustomer_NotFound(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	if _, err := repo.GetCustomerByEmail(ctx, "ghost@example.com"); !errors.Is(err, ErrCustomerNotFound) {
		t.Errorf("GetCustomerByEmail: error = %v, want ErrCustomerNotFound", err)
	}
	if _, err := repo.GetCustomerByID(ctx, 999999); !errors.Is(err, ErrCustomerNotFound) {
		t.Errorf("GetCustomerByID: error = %v, want ErrCustomerNotFound", err)
	}
}

func TestIntegrationAdmin_SeparateCredentialStore(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	email := testutil.UniqueEmail("admin")
	admin := &model.Admin{
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=2$dGVzdHNhbHQ$dGVzdGhhc2g",
		CreatedAt:    time.Now().UTC(),
	}
	if err := repo.CreateAdmin(ctx, admin); err != nil {
		t.Fatalf("CreateAdmin failed: %v", err)
	}
	if admin.ID == 0 {
		t.Error("CreateAdmin should assign an id")
	}

	retrieved, err := repo.GetAdminByEmail(ctx, email)
	if err != nil {
		t.Fatalf("GetAdminByEmail failed: %v", err)
	}
	if retrieved.ID != admin.ID {
		t.Errorf("id mismatch: got %d, want %d", retrieved.ID, admin.ID)
	}

	// The same email in the admins table must not resolve as a customer.
	if _, err := repo.GetCustomerByEmail(ctx, email); !errors.Is(err, ErrCustomerNotFound) {
		t.Errorf("admin email in customer realm: error = %v, want ErrCustomerNotFound", err)
	}

	dup := &model.Admin{Email: email, PasswordHash: "x", CreatedAt: time.Now().UTC()}
	if err := repo.CreateAdmin(ctx, dup); !errors.Is(err, ErrEmailExists) {
		t.Errorf("duplicate admin: error = %v, want ErrEmailExists", err)
	}
}

func TestIntegrationPackages_DefaultFallback(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)
	customer := seedCustomer(ctx, t, repo)

	// No assignment resolves to the built-in default tier.
	pkg, err := repo.GetPackageForCustomer(ctx, customer.ID)
	if err != nil {
		t.Fatalf("GetPackageForCustomer failed: %v", err)
	}
	if pkg.Name != model.DefaultPackage().Name {
		t.Errorf("package = %q, want default tier", pkg.Name)
	}
	if pkg.AllowedMaps != model.DefaultPackage().AllowedMaps {
		t.Errorf("allowed maps = %d, want %d", pkg.AllowedMaps, model.DefaultPackage().AllowedMaps)
	}

	pro := testutil.NewTestPackage(t, "Pro", 25)
	if err := repo.CreatePackage(ctx, pro); err != nil {
		t.Fatalf("CreatePackage failed: %v", err)
	}
	if err := repo.SetCustomerPackage(ctx, customer.ID, pro.ID); err != nil {
		t.Fatalf("SetCustomerPackage failed: %v", err)
	}

	pkg, err = repo.GetPackageForCustomer(ctx, customer.ID)
	if err != nil {
		t.Fatalf("GetPackageForCustomer (assigned) failed: %v", err)
	}
	if pkg.ID != pro.ID || pkg.AllowedMaps != 25 {
		t.Errorf("package = %+v, want assigned Pro tier", pkg)
	}

	// Deleting the package drops the customer back to the default tier.
	if err := repo.DeletePackage(ctx, pro.ID); err != nil {
		t.Fatalf("DeletePackage failed: %v", err)
	}
	pkg, err = repo.GetPackageForCustomer(ctx, customer.ID)
	if err != nil {
		t.Fatalf("GetPackageForCustomer (after delete) failed: %v", err)
	}
	if pkg.Name != model.DefaultPackage().Name {
		t.Errorf("package = %q, want default tier after package delete", pkg.Name)
	}
}

func TestIntegrationPackages_AssignUnknownPackage(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)
	customer := seedCustomer(ctx, t, repo)

	if err := repo.SetCustomerPackage(ctx, customer.ID, 999999); !errors.Is(err, ErrPackageNotFound) {
		t.Errorf("error = %v, want ErrPackageNotFound", err)
	}
	if err := repo.SetCustomerPackage(ctx, 999999, 1); !errors.Is(err, ErrCustomerNotFound) && !errors.Is(err, ErrPackageNotFound) {
		t.Errorf("unknown customer: error = %v, want not-found", err)
	}
}

func TestIntegrationPackages_CRUD(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	pkg := testutil.NewTestPackage(t, "Starter", 5)
	if err := repo.CreatePackage(ctx, pkg); err != nil {
		t.Fatalf("CreatePackage failed: %v", err)
	}

	pkg.AllowedMaps = 10
	if err := repo.UpdatePackage(ctx, pkg); err != nil {
		t.Fatalf("UpdatePackage failed: %v", err)
	}

	retrieved, err := repo.GetPackageByID(ctx, pkg.ID)
	if err != nil {
		t.Fatalf("GetPackageByID failed: %v", err)
	}
	if retrieved.AllowedMaps != 10 {
		t.Errorf("AllowedMaps = %d, want 10", retrieved.AllowedMaps)
	}

	packages, err := repo.ListPackages(ctx)
	if err != nil {
		t.Fatalf("ListPackages failed: %v", err)
	}
	if len(packages) != 1 {
		t.Errorf("len(packages) = %d, want 1", len(packages))
	}
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/zonemap/zonemap/internal/model"
)

// fakeQuotaStore returns a fixed package and map count.
type fakeQuotaStore struct {
	pkg      *model.Package
	count    int
	pkgErr   error
	countErr error
}

func (s *fakeQuotaStore) GetPackageForCustomer(_ context.Context, _ int64) (*model.Package, error) {
	if s.pkgErr != nil {
		return nil, s.pkgErr
	}
	return s.pkg, nil
}

func (s *fakeQuotaStore) CountMapsForCustomer(_ context.Context, _ int64) (int, error) {
	if s.countErr != nil {
		return 0, s.countErr
	}
	return s.count, nil
}

func TestCanCreateMap(t *testing.T) {
	t.Parallel()

	free := &model.Package{Name: "Free", AllowedMaps: 1}
	pro := &model.Package{Name: "Pro", AllowedMaps: 25}

	cases := []struct {
		name        string
		pkg         *model.Package
		count       int
		wantAllowed bool
	}{
		{"free tier with headroom", free, 0, true},
		{"free tier at limit", free, 1, false},
		{"free tier over limit", free, 3, false},
		{"pro tier with headroom", pro, 24, true},
		{"pro tier at limit", pro, 25, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := NewQuotaService(&fakeQuotaStore{pkg: tc.pkg, count: tc.count})
			decision, err := svc.CanCreateMap(context.Background(), 1)
			if err != nil {
				t.Fatalf("CanCreateMap() error = %v", err)
			}
			if decision.Allowed != tc.wantAllowed {
				t.Errorf("allowed = %v, want %v", decision.Allowed, tc.wantAllowed)
			}
			if decision.Current != tc.count {
				t.Errorf("current = %d, want %d", decision.Current, tc.count)
			}
			if decision.Limit != tc.pkg.AllowedMaps {
				t.Errorf("limit = %d, want %d", decision.Limit, tc.pkg.AllowedMaps)
			}
			if decision.Package != tc.pkg {
				t.Error("decision should carry the resolved package")
			}
		})
	}
}

func TestCanCreateMap_StoreErrors(t *testing.T) {
	t.Parallel()

	pkgErr := errors.New("package lookup failed")
	svc := NewQuotaService(&fakeQuotaStore{pkgErr: pkgErr})
	if _, err := svc.CanCreateMap(context.Background(), 1); !errors.Is(err, pkgErr) {
		t.Errorf("error = %v, want wrapped %v", err, pkgErr)
	}

	countErr := errors.New("count failed")
	svc = NewQuotaService(&fakeQuotaStore{pkg: &model.Package{AllowedMaps: 1}, countErr: countErr})
	if _, err := svc.CanCreateMap(context.Background(), 1); !errors.Is(err, countErr) {
		t.Errorf("error = %v, want wrapped %v", err, countErr)
	}
}

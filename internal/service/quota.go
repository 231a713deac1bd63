package service

import (
	"context"
	"fmt"

	"github.com/zonemap/zonemap/internal/model"
)

// QuotaStore is the store contract for quota decisions.
type QuotaStore interface {
	GetPackageForCustomer(ctx context.Context, customerID int64) (*model.Package, error)
	CountMapsForCustomer(ctx context.Context, customerID int64) (int, error)
}

// QuotaDecision is the result of a quota check. When not allowed, Current
// and Limit let the caller render an upgrade prompt.
type QuotaDecision struct {
	Allowed bool           `json:"allowed"`
	Current int            `json:"current"`
	Limit   int            `json:"limit"`
	Package *model.Package `json:"package"`
}

// QuotaService decides whether a customer may create one more map.
//
// The decision here is advisory: clients call it before attempting
// creation, but the authoritative check is re-evaluated inside the store's
// create transaction to close the check-then-create race.
type QuotaService struct {
	store QuotaStore
}

// NewQuotaService creates a QuotaService.
func NewQuotaService(store QuotaStore) *QuotaService {
	return &QuotaService{store: store}
}

// CanCreateMap checks the customer's map count against their package
// quota. Customers without a package get the explicit default tier, never
// an unlimited quota.
func (s *QuotaService) CanCreateMap(ctx context.Context, customerID int64) (*QuotaDecision, error) {
	pkg, err := s.store.GetPackageForCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("resolve package: %w", err)
	}

	count, err := s.store.CountMapsForCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("count maps: %w", err)
	}

	return &QuotaDecision{
		Allowed: count < pkg.AllowedMaps,
		Current: count,
		Limit:   pkg.AllowedMaps,
		Package: pkg,
	}, nil
}

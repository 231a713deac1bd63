// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zonemap/zonemap/internal/auth"
	"github.com/zonemap/zonemap/internal/metrics"
	"github.com/zonemap/zonemap/internal/model"
	"github.com/zonemap/zonemap/internal/repository"
)

// ErrInvalidCredentials is the single failure returned when no realm
// matches. Callers are never told which realm rejected the attempt.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ResolveStatus tags the outcome of a single realm probe.
type ResolveStatus int

const (
	ResolveMatched ResolveStatus = iota
	ResolveRejected
	ResolveTimedOut
)

// ResolveOutcome is the tagged result of a credential resolver.
type ResolveOutcome struct {
	Status    ResolveStatus
	Principal *model.Principal
}

// CredentialResolver probes one credential store for an (email, password)
// pair. Implementations must treat a context deadline as a realm failure,
// not a system error.
type CredentialResolver interface {
	Realm() model.Realm
	Resolve(ctx context.Context, email, password string) ResolveOutcome
}

// AuthResult is a successful authentication: the typed principal plus the
// session token issued for it.
type AuthResult struct {
	Principal *model.Principal
	Token     string
}

// AuthGateway resolves credentials against an ordered list of realms.
// The customer realm is probed first, then the admin realm; the first
// match wins and the remaining realms are skipped.
type AuthGateway struct {
	resolvers    []CredentialResolver
	issuer       *auth.TokenIssuer
	realmTimeout time.Duration
	logger       *slog.Logger
	metrics      metrics.Recorder
}

// NewAuthGateway creates an AuthGateway over the given resolvers, in probe
// order.
func NewAuthGateway(resolvers []CredentialResolver, issuer *auth.TokenIssuer, realmTimeout time.Duration, logger *slog.Logger, recorder metrics.Recorder) *AuthGateway {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthGateway{
		resolvers:    resolvers,
		issuer:       issuer,
		realmTimeout: realmTimeout,
		logger:       logger,
		metrics:      recorder,
	}
}

// Authenticate tries each realm in order, bounded by the per-realm
// timeout. Worst-case latency is the sum of the realm timeouts. Every
// failure mode collapses to ErrInvalidCredentials.
func (g *AuthGateway) Authenticate(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		g.metrics.IncLoginFailure()
		return nil, ErrInvalidCredentials
	}

	for _, resolver := range g.resolvers {
		outcome := g.probe(ctx, resolver, email, password)

		switch outcome.Status {
		case ResolveMatched:
			token, err := g.issuer.Issue(outcome.Principal)
			if err != nil {
				g.logger.Error("session token issue failed",
					"realm", resolver.Realm(),
					"error", err,
				)
				return nil, err
			}
			g.metrics.IncLoginSuccess(string(resolver.Realm()))
			return &AuthResult{Principal: outcome.Principal, Token: token}, nil

		case ResolveTimedOut:
			g.logger.Warn("realm probe timed out",
				"realm", resolver.Realm(),
				"timeout", g.realmTimeout,
			)
			// A slow realm must not block the next one; fall through.

		case ResolveRejected:
			// Try the next realm.
		}
	}

	g.metrics.IncLoginFailure()
	return nil, ErrInvalidCredentials
}

// probe runs a single resolver under the per-realm timeout.
func (g *AuthGateway) probe(ctx context.Context, resolver CredentialResolver, email, password string) ResolveOutcome {
	realmCtx, cancel := context.WithTimeout(ctx, g.realmTimeout)
	defer cancel()

	outcome := resolver.Resolve(realmCtx, email, password)
	if outcome.Status != ResolveMatched && realmCtx.Err() != nil {
		return ResolveOutcome{Status: ResolveTimedOut}
	}
	return outcome
}

// CustomerCredentials is the customer-realm lookup contract.
type CustomerCredentials interface {
	GetCustomerByEmail(ctx context.Context, email string) (*model.Customer, error)
}

// AdminCredentials is the admin-realm lookup contract.
type AdminCredentials interface {
	GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error)
}

// customerResolver probes the customer credential store.
type customerResolver struct {
	store CustomerCredentials
}

// NewCustomerResolver creates the customer-realm resolver.
func NewCustomerResolver(store CustomerCredentials) CredentialResolver {
	return &customerResolver{store: store}
}

func (r *customerResolver) Realm() model.Realm { return model.RealmCustomer }

func (r *customerResolver) Resolve(ctx context.Context, email, password string) ResolveOutcome {
	customer, err := r.store.GetCustomerByEmail(ctx, email)
	if err != nil {
		// Not-found, store error, and timeout all look the same to the
		// caller; the gateway reclassifies deadline hits.
		return ResolveOutcome{Status: ResolveRejected}
	}

	ok, err := auth.VerifyPassword(password, customer.PasswordHash)
	if err != nil || !ok {
		return ResolveOutcome{Status: ResolveRejected}
	}

	return ResolveOutcome{
		Status: ResolveMatched,
		Principal: &model.Principal{
			Realm: model.RealmCustomer,
			ID:    customer.ID,
			Email: customer.Email,
		},
	}
}

// adminResolver probes the admin credential store.
type adminResolver struct {
	store AdminCredentials
}

// NewAdminResolver creates the admin-realm resolver.
func NewAdminResolver(store AdminCredentials) CredentialResolver {
	return &adminResolver{store: store}
}

func (r *adminResolver) Realm() model.Realm { return model.RealmAdmin }

func (r *adminResolver) Resolve(ctx context.Context, email, password string) ResolveOutcome {
	admin, err := r.store.GetAdminByEmail(ctx, email)
	if err != nil {
		return ResolveOutcome{Status: ResolveRejected}
	}

	ok, err := auth.VerifyPassword(password, admin.PasswordHash)
	if err != nil || !ok {
		return ResolveOutcome{Status: ResolveRejected}
	}

	return ResolveOutcome{
		Status: ResolveMatched,
		Principal: &model.Principal{
			Realm: model.RealmAdmin,
			ID:    admin.ID,
			Email: admin.Email,
		},
	}
}

// RegisterInput defines input for customer registration.
type RegisterInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// Registration errors.
var (
	ErrMissingFields    = errors.New("email and password are required")
	ErrEmailExists      = errors.New("email already registered")
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", auth.MinPasswordLength)
)

// CustomerRegistry is the store contract for registration.
type CustomerRegistry interface {
	CreateCustomer(ctx context.Context, customer *model.Customer) error
}

// RegistrationService creates customer accounts.
type RegistrationService struct {
	store  CustomerRegistry
	logger *slog.Logger
}

// NewRegistrationService creates a RegistrationService.
func NewRegistrationService(store CustomerRegistry, logger *slog.Logger) *RegistrationService {
	return &RegistrationService{store: store, logger: logger}
}

// Register creates a new customer with a hashed credential. New customers
// start on the default package (no assignment).
func (s *RegistrationService) Register(ctx context.Context, input RegisterInput) (*model.Customer, error) {
	if input.Email == "" || input.Password == "" {
		return nil, ErrMissingFields
	}
	if len(input.Password) < auth.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	customer := &model.Customer{
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.CreateCustomer(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	s.logger.Info("customer_registered", "customer_id", customer.ID)
	return customer, nil
}

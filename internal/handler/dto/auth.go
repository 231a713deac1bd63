package dto

import (
	"time"

	"github.com/zonemap/zonemap/internal/model"
)

// RegisterRequest is the payload for customer registration.
type RegisterRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// LoginRequest is the payload for both login endpoints.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is returned on successful authentication.
type SessionResponse struct {
	Token string `json:"token"`
	Realm string `json:"realm"`
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// CustomerResponse is the public projection of a customer account.
type CustomerResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ToSessionResponse converts an auth result to its response shape.
func ToSessionResponse(principal *model.Principal, token string) SessionResponse {
	return SessionResponse{
		Token: token,
		Realm: string(principal.Realm),
		ID:    principal.ID,
		Email: principal.Email,
	}
}

// ToCustomerResponse converts a customer to its response shape.
func ToCustomerResponse(c *model.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		CreatedAt: c.CreatedAt,
	}
}

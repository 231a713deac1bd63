// Package model defines domain entities for the application.
package model

import "time"

// Customer represents a registered customer account.
type Customer struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	PackageID    *int64    `json:"package_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Admin represents an administrator account.
// Admins live in a separate credential store from customers.
type Admin struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

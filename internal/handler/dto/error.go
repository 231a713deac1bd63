// Package dto defines request and response shapes for the HTTP API.
package dto

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zonemap/zonemap/internal/handler/dto"
	"github.com/zonemap/zonemap/internal/service"
)

// AuthHandler handles registration and both login endpoints.
type AuthHandler struct {
	gateway      *service.AuthGateway
	adminGateway *service.AuthGateway
	registry     *service.RegistrationService
	logger       *slog.Logger
}

// NewAuthHandler creates an AuthHandler. The main gateway probes the
// customer realm first, then admin; the admin gateway probes admin only.
func NewAuthHandler(gateway, adminGateway *service.AuthGateway, registry *service.RegistrationService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		gateway:      gateway,
		adminGateway: adminGateway,
		registry:     registry,
		logger:       logger,
	}
}

// Register handles POST /api/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	customer, err := h.registry.Register(r.Context(), service.RegisterInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "Email and password are required")
		case errors.Is(err, service.ErrPasswordTooShort):
			writeError(w, http.StatusBadRequest, "PASSWORD_TOO_SHORT", "Password must be at least 8 characters")
		case errors.Is(err, service.ErrEmailExists):
			writeError(w, http.StatusConflict, "EMAIL_EXISTS", "Email already registered")
		default:
			h.logger.Error("internal_error", "error", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		}
		return
	}

	h.logger.Info("customer_registered", "customer_id", customer.ID)
	writeJSON(w, http.StatusCreated, dto.ToCustomerResponse(customer))
}

// Login handles POST /api/login, probing the customer realm then admin.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, h.gateway)
}

// AdminLogin handles POST /api/admin/login, probing the admin realm only.
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, h.adminGateway)
}

// login runs the gateway and writes the session token. Every failure mode
// gets the same 401 body so callers cannot probe which realm rejected.
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, gateway *service.AuthGateway) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	result, err := gateway.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
			return
		}
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	h.logger.Info("login_succeeded",
		"realm", result.Principal.Realm,
		"principal_id", result.Principal.ID,
	)
	writeJSON(w, http.StatusOK, dto.ToSessionResponse(result.Principal, result.Token))
}

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/zonemap/zonemap/internal/auth"
	"github.com/zonemap/zonemap/internal/handler/dto"
	"github.com/zonemap/zonemap/internal/repository"
	"github.com/zonemap/zonemap/internal/service"
)

// CustomerHandler serves per-customer views: quota status and owned maps.
type CustomerHandler struct {
	quota  *service.QuotaService
	maps   *service.MapService
	logger *slog.Logger
}

// NewCustomerHandler creates a CustomerHandler.
func NewCustomerHandler(quota *service.QuotaService, maps *service.MapService, logger *slog.Logger) *CustomerHandler {
	return &CustomerHandler{quota: quota, maps: maps, logger: logger}
}

// GetPackage handles GET /api/customer/{id}/package.
// Returns the advisory quota decision alongside the resolved package; the
// authoritative check still happens at map creation.
func (h *CustomerHandler) GetPackage(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.authorizedCustomerID(w, r)
	if !ok {
		return
	}

	decision, err := h.quota.CanCreateMap(r.Context(), customerID)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			writeError(w, http.StatusNotFound, "CUSTOMER_NOT_FOUND", "Customer not found")
			return
		}
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	writeJSON(w, http.StatusOK, dto.QuotaResponse{
		Allowed: decision.Allowed,
		Current: decision.Current,
		Limit:   decision.Limit,
		Package: dto.ToPackageResponse(decision.Package),
	})
}

// ListMaps handles GET /api/customer/{id}/maps.
func (h *CustomerHandler) ListMaps(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.authorizedCustomerID(w, r)
	if !ok {
		return
	}

	maps, err := h.maps.ListMaps(r.Context(), customerID)
	if err != nil {
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	resp := dto.MapListResponse{Maps: make([]dto.MapResponse, 0, len(maps))}
	for _, m := range maps {
		resp.Maps = append(resp.Maps, dto.ToMapResponse(m, h.maps.ShareURL(m.MapCode)))
	}
	resp.Total = len(resp.Maps)

	writeJSON(w, http.StatusOK, resp)
}

// authorizedCustomerID parses {id} and verifies the caller may read that
// customer. Customers see only themselves; admins see anyone.
func (h *CustomerHandler) authorizedCustomerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	customerID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || customerID <= 0 {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Customer id must be a positive integer")
		return 0, false
	}

	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return 0, false
	}
	if !principal.IsAdmin() && principal.ID != customerID {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Cannot access another customer")
		return 0, false
	}

	return customerID, true
}

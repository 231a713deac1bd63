package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zonemap/zonemap/internal/handler/dto"
	"github.com/zonemap/zonemap/internal/model"
	"github.com/zonemap/zonemap/internal/repository"
)

// AdminHandler manages the package catalog. All routes require an
// admin-realm token, enforced by middleware.
type AdminHandler struct {
	repo   *repository.Repository
	logger *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(repo *repository.Repository, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{repo: repo, logger: logger}
}

// ListPackages handles GET /api/admin/packages.
func (h *AdminHandler) ListPackages(w http.ResponseWriter, r *http.Request) {
	packages, err := h.repo.ListPackages(r.Context())
	if err != nil {
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	writeJSON(w, http.StatusOK, dto.ToPackageListResponse(packages))
}

// GetPackage handles GET /api/admin/packages/{id}.
func (h *AdminHandler) GetPackage(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePackageID(w, r)
	if !ok {
		return
	}

	pkg, err := h.repo.GetPackageByID(r.Context(), id)
	if err != nil {
		h.handleRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToPackageResponse(pkg))
}

// CreatePackage handles POST /api/admin/packages.
func (h *AdminHandler) CreatePackage(w http.ResponseWriter, r *http.Request) {
	var req dto.PackageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	now := time.Now().UTC()
	pkg := &model.Package{
		Name:        req.Name,
		AllowedMaps: req.AllowedMaps,
		PriceCents:  req.PriceCents,
		Priority:    req.Priority,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Active != nil {
		pkg.Active = *req.Active
	}

	if !pkg.IsValid() {
		writeError(w, http.StatusBadRequest, "INVALID_PACKAGE", "Package needs a name and allowed_maps >= 1")
		return
	}

	if err := h.repo.CreatePackage(r.Context(), pkg); err != nil {
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	h.logger.Info("package_created", "package_id", pkg.ID, "name", pkg.Name)
	writeJSON(w, http.StatusCreated, dto.ToPackageResponse(pkg))
}

// UpdatePackage handles PUT /api/admin/packages/{id}.
func (h *AdminHandler) UpdatePackage(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePackageID(w, r)
	if !ok {
		return
	}

	var req dto.PackageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	pkg, err := h.repo.GetPackageByID(r.Context(), id)
	if err != nil {
		h.handleRepoError(w, err)
		return
	}

	pkg.Name = req.Name
	pkg.AllowedMaps = req.AllowedMaps
	pkg.PriceCents = req.PriceCents
	pkg.Priority = req.Priority
	if req.Active != nil {
		pkg.Active = *req.Active
	}

	if !pkg.IsValid() {
		writeError(w, http.StatusBadRequest, "INVALID_PACKAGE", "Package needs a name and allowed_maps >= 1")
		return
	}

	if err := h.repo.UpdatePackage(r.Context(), pkg); err != nil {
		h.handleRepoError(w, err)
		return
	}

	h.logger.Info("package_updated", "package_id", pkg.ID)
	writeJSON(w, http.StatusOK, dto.ToPackageResponse(pkg))
}

// DeletePackage handles DELETE /api/admin/packages/{id}.
// Customers on the deleted package fall back to the default tier.
func (h *AdminHandler) DeletePackage(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePackageID(w, r)
	if !ok {
		return
	}

	if err := h.repo.DeletePackage(r.Context(), id); err != nil {
		h.handleRepoError(w, err)
		return
	}

	h.logger.Info("package_deleted", "package_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleRepoError maps repository errors to HTTP responses.
func (h *AdminHandler) handleRepoError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrPackageNotFound) {
		writeError(w, http.StatusNotFound, "PACKAGE_NOT_FOUND", "Package not found")
		return
	}
	h.logger.Error("internal_error", "error", err)
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
}

// parsePackageID parses the {id} route parameter.
func parsePackageID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Package id must be a positive integer")
		return 0, false
	}
	return id, true
}

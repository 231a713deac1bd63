package handler

import (
	"encoding/json"
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

// MapHandler handles HTTP requests for map operations.
type MapHandler struct {
	svc    *service.MapService
	logger *slog.Logger
}

// NewMapHandler creates a new MapHandler.
func NewMapHandler(svc *service.MapService, logger *slog.Logger) *MapHandler {
	return &MapHandler{svc: svc, logger: logger}
}

// Create handles POST /api/map.
func (h *MapHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil || principal.IsAdmin() {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Maps belong to customer accounts")
		return
	}

	var req dto.CreateMapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	m, err := h.svc.CreateMap(r.Context(), service.CreateMapInput{
		OwnerID:     principal.ID,
		Title:       req.Title,
		Description: req.Description,
		Lat:         req.Lat,
		Lng:         req.Lng,
		Zoom:        req.Zoom,
		Country:     req.Country,
	})
	if err != nil {
		var quotaErr *repository.QuotaExceededError
		if errors.As(err, &quotaErr) {
			h.logger.Info("map_create_denied",
				"customer_id", principal.ID,
				"current", quotaErr.Current,
				"limit", quotaErr.Limit,
			)
			writeJSON(w, http.StatusForbidden, dto.QuotaExceededResponse{
				Error:   "Map quota exceeded for current package",
				Code:    "QUOTA_EXCEEDED",
				Current: quotaErr.Current,
				Limit:   quotaErr.Limit,
			})
			return
		}
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("map_created",
		"map_id", m.ID,
		"customer_id", principal.ID,
		"map_code", m.MapCode,
	)
	writeJSON(w, http.StatusCreated, dto.ToMapResponse(m, h.svc.ShareURL(m.MapCode)))
}

// Get handles GET /api/map/{id}.
func (h *MapHandler) Get(w http.ResponseWriter, r *http.Request) {
	mapID, ok := parseMapID(w, r)
	if !ok {
		return
	}

	m, err := h.svc.GetMap(r.Context(), mapID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil || (!principal.IsAdmin() && principal.ID != m.OwnerID) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Map belongs to another customer")
		return
	}

	writeJSON(w, http.StatusOK, dto.ToMapResponse(m, h.svc.ShareURL(m.MapCode)))
}

// Update handles PUT /api/map/{id}.
func (h *MapHandler) Update(w http.ResponseWriter, r *http.Request) {
	mapID, ok := parseMapID(w, r)
	if !ok {
		return
	}

	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req dto.UpdateMapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	m, err := h.svc.UpdateMap(r.Context(), service.UpdateMapInput{
		ID:          mapID,
		OwnerID:     principal.ID,
		Title:       req.Title,
		Description: req.Description,
		Lat:         req.Lat,
		Lng:         req.Lng,
		Zoom:        req.Zoom,
		Country:     req.Country,
		Active:      req.Active,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("map_updated", "map_id", m.ID, "customer_id", principal.ID)
	writeJSON(w, http.StatusOK, dto.ToMapResponse(m, h.svc.ShareURL(m.MapCode)))
}

// Delete handles DELETE /api/map/{id}. Zones go with the map.
func (h *MapHandler) Delete(w http.ResponseWriter, r *http.Request) {
	mapID, ok := parseMapID(w, r)
	if !ok {
		return
	}

	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	if err := h.svc.DeleteMap(r.Context(), mapID, principal.ID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("map_deleted", "map_id", mapID, "customer_id", principal.ID)
	w.WriteHeader(http.StatusNoContent)
}

// handleServiceError maps service errors to HTTP responses.
func (h *MapHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrMapNotFound):
		writeError(w, http.StatusNotFound, "MAP_NOT_FOUND", "Map not found")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Map belongs to another customer")
	case errors.Is(err, service.ErrTitleRequired):
		writeError(w, http.StatusBadRequest, "TITLE_REQUIRED", "Map title is required")
	case errors.Is(err, service.ErrInvalidZoom):
		writeError(w, http.StatusBadRequest, "INVALID_ZOOM", "Zoom must be between 0 and 22")
	case errors.Is(err, service.ErrCodeGeneration):
		writeError(w, http.StatusServiceUnavailable, "CODE_GENERATION", "Could not allocate a map code, try again")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// parseMapID parses the {id} route parameter.
func parseMapID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	mapID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || mapID <= 0 {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Map id must be a positive integer")
		return 0, false
	}
	return mapID, true
}

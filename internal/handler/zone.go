package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zonemap/zonemap/internal/auth"
	"github.com/zonemap/zonemap/internal/handler/dto"
	"github.com/zonemap/zonemap/internal/reconcile"
	"github.com/zonemap/zonemap/internal/service"
)

// ZoneHandler handles HTTP requests for zone operations.
type ZoneHandler struct {
	zones      *service.ZoneService
	maps       *service.MapService
	reconciler *reconcile.Reconciler
	logger     *slog.Logger
}

// NewZoneHandler creates a new ZoneHandler.
func NewZoneHandler(zones *service.ZoneService, maps *service.MapService, reconciler *reconcile.Reconciler, logger *slog.Logger) *ZoneHandler {
	return &ZoneHandler{
		zones:      zones,
		maps:       maps,
		reconciler: reconciler,
		logger:     logger,
	}
}

// List handles GET /api/map/{id}/zones.
func (h *ZoneHandler) List(w http.ResponseWriter, r *http.Request) {
	mapID, ok := parseMapID(w, r)
	if !ok {
		return
	}
	if !h.authorizeMapAccess(w, r, mapID) {
		return
	}

	zones, err := h.zones.ListZones(r.Context(), mapID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToZoneListResponse(zones))
}

// Create handles POST /api/db/tables/zones.
//
// The body is either a single zone object or an array of zones drawn
// before the map existed. Arrays are flushed best-effort: each zone is
// committed independently and the response reports per-zone outcomes, so
// one rejected zone never rolls back the rest.
func (h *ZoneHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	// Body size is capped by the MaxBodySize middleware.
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "Could not read request body")
		return
	}

	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		h.createBatch(w, r, principal.ID, body)
		return
	}
	h.createSingle(w, r, principal.ID, body)
}

// createSingle commits one zone.
func (h *ZoneHandler) createSingle(w http.ResponseWriter, r *http.Request, customerID int64, body []byte) {
	var req dto.ZoneRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if !h.authorizeMapAccess(w, r, req.MapID) {
		return
	}

	zone, err := h.zones.CreateZone(r.Context(), req.MapID, customerID, req.ToZone())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("zone_created",
		"zone_id", zone.ID,
		"map_id", zone.MapID,
		"customer_id", customerID,
	)
	writeJSON(w, http.StatusCreated, dto.ToZoneResponse(zone))
}

// createBatch flushes a pending buffer of zones against one map.
func (h *ZoneHandler) createBatch(w http.ResponseWriter, r *http.Request, customerID int64, body []byte) {
	var reqs []dto.ZoneRequest
	if err := json.Unmarshal(body, &reqs); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if len(reqs) == 0 {
		writeJSON(w, http.StatusOK, dto.FlushResponse{
			Committed:   []dto.ZoneResponse{},
			FailedZones: []dto.FailedZoneResponse{},
		})
		return
	}

	mapID := reqs[0].MapID
	for _, req := range reqs {
		if req.MapID != mapID {
			writeError(w, http.StatusBadRequest, "MIXED_MAPS", "All zones in a batch must target the same map")
			return
		}
	}
	if !h.authorizeMapAccess(w, r, mapID) {
		return
	}

	buf := reconcile.NewBuffer()
	for _, req := range reqs {
		buf.Add(req.ToZone())
	}

	result := h.reconciler.Flush(r.Context(), mapID, customerID, buf)

	resp := dto.FlushResponse{
		CommittedCount: result.CommittedCount(),
		Committed:      make([]dto.ZoneResponse, 0, len(result.Committed)),
		FailedZones:    make([]dto.FailedZoneResponse, 0, len(result.Failed)),
	}
	for _, zone := range result.Committed {
		resp.Committed = append(resp.Committed, dto.ToZoneResponse(zone))
	}
	for _, failure := range result.Failed {
		resp.FailedZones = append(resp.FailedZones, dto.FailedZoneResponse{
			Zone:   dto.ToZoneResponse(failure.Zone),
			Reason: failureReason(failure.Err),
		})
	}

	status := http.StatusCreated
	if len(resp.FailedZones) > 0 {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, resp)
}

// Delete handles DELETE /api/map/{id}/zones/{zoneID}.
func (h *ZoneHandler) Delete(w http.ResponseWriter, r *http.Request) {
	mapID, ok := parseMapID(w, r)
	if !ok {
		return
	}
	zoneID := chi.URLParam(r, "zoneID")
	if zoneID == "" {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Zone id is required")
		return
	}
	if !h.authorizeMapAccess(w, r, mapID) {
		return
	}

	if err := h.zones.DeleteZone(r.Context(), mapID, zoneID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("zone_deleted", "zone_id", zoneID, "map_id", mapID)
	w.WriteHeader(http.StatusNoContent)
}

// authorizeMapAccess loads the map and checks the caller may touch it.
// Writes the error response and returns false on failure.
func (h *ZoneHandler) authorizeMapAccess(w http.ResponseWriter, r *http.Request, mapID int64) bool {
	m, err := h.maps.GetMap(r.Context(), mapID)
	if err != nil {
		h.handleServiceError(w, err)
		return false
	}

	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return false
	}
	if !principal.IsAdmin() && principal.ID != m.OwnerID {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Map belongs to another customer")
		return false
	}

	return true
}

// handleServiceError maps service errors to HTTP responses.
func (h *ZoneHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrMapNotFound):
		writeError(w, http.StatusNotFound, "MAP_NOT_FOUND", "Map not found")
	case errors.Is(err, service.ErrZoneNotFound):
		writeError(w, http.StatusNotFound, "ZONE_NOT_FOUND", "Zone not found")
	case errors.Is(err, service.ErrZoneExists):
		writeError(w, http.StatusConflict, "ZONE_EXISTS", "Zone already saved")
	case errors.Is(err, service.ErrZoneName):
		writeError(w, http.StatusBadRequest, "ZONE_NAME_REQUIRED", "Zone name is required")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// failureReason renders a per-zone flush failure for the response.
func failureReason(err error) string {
	switch {
	case errors.Is(err, service.ErrMapNotFound):
		return "map not found"
	case errors.Is(err, service.ErrZoneExists):
		return "zone already saved"
	case errors.Is(err, service.ErrZoneName):
		return "zone name required"
	default:
		return "could not save zone"
	}
}

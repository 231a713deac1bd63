package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zonemap/zonemap/internal/handler/dto"
	"github.com/zonemap/zonemap/internal/service"
	"github.com/zonemap/zonemap/internal/views"
)

// ShareHandler serves the public share endpoint. This is the hot path:
// cache-first resolution, no authentication, per-IP rate limited.
type ShareHandler struct {
	maps      *service.MapService
	zones     *service.ZoneService
	publisher *views.Publisher
	logger    *slog.Logger
}

// NewShareHandler creates a ShareHandler.
func NewShareHandler(maps *service.MapService, zones *service.ZoneService, publisher *views.Publisher, logger *slog.Logger) *ShareHandler {
	return &ShareHandler{
		maps:      maps,
		zones:     zones,
		publisher: publisher,
		logger:    logger,
	}
}

// Resolve handles GET /m/{mapCode}.
//
// Unknown codes and deactivated maps get the same 404 so a share link can
// be switched off without revealing that the map still exists.
func (h *ShareHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	mapCode := chi.URLParam(r, "mapCode")

	m, cacheHit, err := h.maps.ResolveShared(r.Context(), mapCode)
	if err != nil {
		if errors.Is(err, service.ErrMapNotFound) || errors.Is(err, service.ErrMapInactive) {
			writeError(w, http.StatusNotFound, "MAP_NOT_FOUND", "Map not found")
			return
		}
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	zones, err := h.zones.ListZones(r.Context(), m.ID)
	if err != nil {
		// The map resolved; serve it without zones rather than failing.
		h.logger.Warn("share zones unavailable",
			"map_id", m.ID,
			"error", err,
		)
		zones = nil
	}

	h.publisher.PublishAsync(m.ID)

	h.logger.Debug("share_resolved",
		"map_code", mapCode,
		"map_id", m.ID,
		"cache_hit", cacheHit,
	)
	writeJSON(w, http.StatusOK, dto.ToSharedMapResponse(m, zones))
}

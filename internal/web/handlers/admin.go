package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ccod-search/internal/loader"
	"github.com/ccod-search/internal/search"
)

// AdminHandler exposes the reload trigger and basic service status.
type AdminHandler struct {
	Loader  *loader.Loader
	Store   *search.Store
	CSVPath string
	Log     zerolog.Logger
}

// Reload handles POST /api/reload: a full re-import from the
// configured CSV path. Concurrent reloads are refused.
func (h *AdminHandler) Reload(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Loader.Load(r.Context(), h.CSVPath)
	if err != nil {
		if errors.Is(err, loader.ErrInProgress) {
			writeJSON(w, http.StatusConflict, map[string]interface{}{
				"success": false,
				"error":   err.Error(),
			})
			return
		}
		h.Log.Error().Err(err).Str("path", h.CSVPath).Msg("reload failed")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   "failed to reload data: " + err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "data reloaded successfully",
		"stats":   stats,
	})
}

// Stats handles GET /api/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	properties, proprietors, err := h.Store.Counts(r.Context())
	if err != nil {
		h.Log.Error().Err(err).Msg("stats query failed")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   "failed to read statistics",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"properties":  properties,
		"proprietors": proprietors,
	})
}

// Health handles GET /api/health.
func (h *AdminHandler) Health(w http.ResponseWriter, r *http.Request) {
	if _, _, err := h.Store.Counts(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}

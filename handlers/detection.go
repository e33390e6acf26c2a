package handlers

import (
	"net/http"

	"github.com/camden-git/loreboardbackend/models"
)

type detectRequest struct {
	SelectedText string `json:"selected_text"`
}

func (h *EntityHandler) DetectEntities(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	found, err := h.Processor.DetectEntities(req.SelectedText)
	if err != nil {
		writeServiceError(w, h.Log, "detect entities", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entities": found})
}

// SearchEntities handles GET /api/search?q=&entity_type=.
func (h *EntityHandler) SearchEntities(w http.ResponseWriter, r *http.Request) {
	var entityType models.EntityType
	if raw := r.URL.Query().Get("entity_type"); raw != "" {
		t, err := models.ParseEntityType(raw)
		if err != nil {
			WriteAPIError(w, http.StatusBadRequest, "invalid_entity_type", err.Error())
			return
		}
		entityType = t
	}

	hits, err := h.Processor.SearchEntities(r.URL.Query().Get("q"), entityType)
	if err != nil {
		writeServiceError(w, h.Log, "search entities", err)
		return
	}
	writeJSON(w, http.StatusOK, hits)
}

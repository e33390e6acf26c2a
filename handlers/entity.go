package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/camden-git/loreboardbackend/models"
	"github.com/camden-git/loreboardbackend/services"
)

type EntityHandler struct {
	Processor *services.EntityProcessor
	Log       *zap.Logger
}

type createEntityRequest struct {
	Name         string `json:"name"`
	SelectedText string `json:"selected_text"`
	Position     *int   `json:"position,omitempty"`
}

type updateEntityRequest struct {
	SelectedText string  `json:"selected_text"`
	Category     *string `json:"category,omitempty"`
}

type bulkUpdateRequest struct {
	SelectedText string               `json:"selected_text"`
	EntityIDs    []uint               `json:"entity_ids,omitempty"`
	Entities     []services.EntityRef `json:"entities,omitempty"`
}

func (h *EntityHandler) CreateEntity(w http.ResponseWriter, r *http.Request) {
	entityType, err := entityTypeParam(r)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_entity_type", err.Error())
		return
	}

	var req createEntityRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	position := 0
	if req.Position != nil {
		position = *req.Position
	}

	entity, err := h.Processor.CreateEntity(r.Context(), entityType, req.Name, req.SelectedText, position)
	if err != nil {
		writeServiceError(w, h.Log, "create entity", err)
		return
	}
	writeJSON(w, http.StatusOK, entity)
}

func (h *EntityHandler) UpdateEntity(w http.ResponseWriter, r *http.Request) {
	entityType, err := entityTypeParam(r)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_entity_type", err.Error())
		return
	}
	entityID, err := uintParam(r, "entity_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_entity_id", err.Error())
		return
	}

	var req updateEntityRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	category := ""
	if req.Category != nil {
		category = *req.Category
	}

	entity, err := h.Processor.UpdateEntity(r.Context(), entityType, entityID, req.SelectedText, category)
	if err != nil {
		writeServiceError(w, h.Log, "update entity", err)
		return
	}
	writeJSON(w, http.StatusOK, entity)
}

func (h *EntityHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req bulkUpdateRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := h.Processor.BulkUpdate(r.Context(), services.BulkUpdateRequest{
		Text:      req.SelectedText,
		EntityIDs: req.EntityIDs,
		Entities:  req.Entities,
	})
	if err != nil {
		writeServiceError(w, h.Log, "bulk update", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *EntityHandler) GetEntity(w http.ResponseWriter, r *http.Request) {
	entityType, err := entityTypeParam(r)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_entity_type", err.Error())
		return
	}
	entityID, err := uintParam(r, "entity_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_entity_id", err.Error())
		return
	}

	entity, err := h.Processor.GetEntity(entityType, entityID)
	if err != nil {
		writeServiceError(w, h.Log, "get entity", err)
		return
	}
	writeJSON(w, http.StatusOK, entity)
}

func (h *EntityHandler) DeleteEntity(w http.ResponseWriter, r *http.Request) {
	entityType, err := entityTypeParam(r)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_entity_type", err.Error())
		return
	}
	entityID, err := uintParam(r, "entity_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_entity_id", err.Error())
		return
	}

	if err := h.Processor.DeleteEntity(entityType, entityID); err != nil {
		writeServiceError(w, h.Log, "delete entity", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListEntities returns entities grouped by type, optionally filtered by
// ?entity_type= and ordered by ?sort=.
func (h *EntityHandler) ListEntities(w http.ResponseWriter, r *http.Request) {
	var entityType models.EntityType
	if raw := r.URL.Query().Get("entity_type"); raw != "" {
		t, err := models.ParseEntityType(raw)
		if err != nil {
			WriteAPIError(w, http.StatusBadRequest, "invalid_entity_type", err.Error())
			return
		}
		entityType = t
	}

	result, err := h.Processor.ListEntities(entityType, r.URL.Query().Get("sort"))
	if err != nil {
		writeServiceError(w, h.Log, "list entities", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

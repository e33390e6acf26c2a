package handlers

import (
	"net/http"
)

type addAliasRequest struct {
	Alias string `json:"alias"`
}

func (h *EntityHandler) AddAlias(w http.ResponseWriter, r *http.Request) {
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

	var req addAliasRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	aliases, err := h.Processor.AddAlias(entityType, entityID, req.Alias)
	if err != nil {
		writeServiceError(w, h.Log, "add alias", err)
		return
	}
	writeJSON(w, http.StatusOK, aliases)
}

func (h *EntityHandler) ListAliases(w http.ResponseWriter, r *http.Request) {
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

	aliases, err := h.Processor.ListAliases(entityType, entityID)
	if err != nil {
		writeServiceError(w, h.Log, "list aliases", err)
		return
	}
	writeJSON(w, http.StatusOK, aliases)
}

func (h *EntityHandler) DeleteAlias(w http.ResponseWriter, r *http.Request) {
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
	aliasID, err := uintParam(r, "alias_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_alias_id", err.Error())
		return
	}

	aliases, err := h.Processor.DeleteAlias(entityType, entityID, aliasID)
	if err != nil {
		writeServiceError(w, h.Log, "delete alias", err)
		return
	}
	writeJSON(w, http.StatusOK, aliases)
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/camden-git/loreboardbackend/llm"
	"github.com/camden-git/loreboardbackend/models"
	"github.com/camden-git/loreboardbackend/services"
)

// APIErrorDetail represents a single error in the standardized error response.
type APIErrorDetail struct {
	Code   string `json:"code"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// APIErrorResponse represents the standardized error response body.
type APIErrorResponse struct {
	Errors []APIErrorDetail `json:"errors"`
}

// WriteAPIError writes a standardized error response with the given HTTP status, code, and detail.
func WriteAPIError(w http.ResponseWriter, httpStatus int, code string, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	resp := APIErrorResponse{
		Errors: []APIErrorDetail{
			{
				Code:   code,
				Status: strconv.Itoa(httpStatus),
				Detail: detail,
			},
		},
	}

	_ = json.NewEncoder(w).Encode(resp)
}

type errorMapping struct {
	target error
	status int
	code   string
}

// serviceErrors is checked in order; the first match wins.
var serviceErrors = []errorMapping{
	{models.ErrInvalidEntityType, http.StatusBadRequest, "invalid_entity_type"},
	{services.ErrValidation, http.StatusBadRequest, "validation_error"},
	{services.ErrNameNotInContext, http.StatusBadRequest, "name_not_in_context"},
	{services.ErrCommonWord, http.StatusBadRequest, "common_word"},
	{services.ErrInvalidCategory, http.StatusBadRequest, "invalid_category"},
	{services.ErrEntityNotFound, http.StatusNotFound, "entity_not_found"},
	{services.ErrAliasNotFound, http.StatusNotFound, "alias_not_found"},
	{services.ErrDuplicateAlias, http.StatusConflict, "duplicate_alias"},
	{llm.ErrNotConfigured, http.StatusBadGateway, "llm_not_configured"},
	{services.ErrExtraction, http.StatusBadGateway, "llm_error"},
}

// writeServiceError translates a service error into an API error response.
// Unknown errors are logged and reported as 500 without details.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, op string, err error) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			if m.status >= http.StatusInternalServerError {
				log.Warn(op+" failed", zap.Error(err))
			}
			WriteAPIError(w, m.status, m.code, err.Error())
			return
		}
	}
	log.Error(op+" failed", zap.Error(err))
	WriteAPIError(w, http.StatusInternalServerError, "internal_error", "An internal error occurred")
}

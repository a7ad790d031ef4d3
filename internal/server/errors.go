package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ersonp/jurisflow/internal/domain/entities"
)

const (
	errInternal      = "internal_error"
	errInvalidJSON   = "invalid_json"
	errInvalidInput  = "invalid_observation"
	errConflict      = "persistence_conflict"
	errNotFound      = "not_found"
	errTooLarge      = "body_too_large"
	errUnavailable   = "unavailable"
	msgIngestFailed  = "ingestion failed"
	msgQueryFailed   = "query failed"
	msgConflict      = "timeline changed concurrently, retry the request"
	msgBodyTooLarge  = "Request body exceeds maximum allowed size"
	msgInvalidJSON   = "Invalid JSON body"
	msgEntryNotFound = "entry not found"
)

// ErrorResponse is the error response body.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

// apiError carries the HTTP error shape from a helper back to the handler.
type apiError struct {
	statusCode int
	errorType  string
	message    string
}

func (e *apiError) Error() string {
	return e.message
}

// ingestError maps an ingestion failure to its HTTP shape. Internal
// failures are logged and replaced by a generic message.
func ingestError(err error) *apiError {
	switch {
	case errors.Is(err, entities.ErrInvalidObservation):
		return &apiError{statusCode: http.StatusBadRequest, errorType: errInvalidInput, message: err.Error()}
	case errors.Is(err, entities.ErrPersistenceConflict):
		return &apiError{statusCode: http.StatusConflict, errorType: errConflict, message: msgConflict}
	default:
		slog.Error("Failed to ingest observation", "error", err)
		return &apiError{statusCode: http.StatusInternalServerError, errorType: errInternal, message: msgIngestFailed}
	}
}

func queryError(err error) *apiError {
	if errors.Is(err, entities.ErrEntryNotFound) {
		return &apiError{statusCode: http.StatusNotFound, errorType: errNotFound, message: msgEntryNotFound}
	}
	slog.Error("Query failed", "error", err)
	return &apiError{statusCode: http.StatusInternalServerError, errorType: errInternal, message: msgQueryFailed}
}

func writeError(c *gin.Context, err *apiError) {
	c.JSON(err.statusCode, ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
	})
}

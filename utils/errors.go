package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docqa-platform/services"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	ErrorCode string      `json:"error_code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

// RespondWithError sends a standardized error response
func RespondWithError(c *gin.Context, statusCode int, errorCode, message string, details interface{}) {
	c.JSON(statusCode, ErrorResponse{
		ErrorCode: errorCode,
		Message:   message,
		Details:   details,
	})
}

// RespondWithBadRequest sends a 400 Bad Request error
func RespondWithBadRequest(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusBadRequest, "bad_request", message, details)
}

// RespondWithNotFound sends a 404 Not Found error
func RespondWithNotFound(c *gin.Context, message string) {
	RespondWithError(c, http.StatusNotFound, "not_found", message, nil)
}

// RespondWithInternalError sends a 500 Internal Server Error
func RespondWithInternalError(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusInternalServerError, "internal_error", message, details)
}

// RespondWithEngineError maps an engine error to its stable kind and an HTTP
// status code.
func RespondWithEngineError(c *gin.Context, err error) {
	kind := services.ErrorKind(err)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrInvalidConfiguration),
		errors.Is(err, services.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrUnsupportedFormat):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, services.ErrCorruptDocument):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrEmbeddingUnavailable),
		errors.Is(err, services.ErrGenerationUnavailable):
		status = http.StatusServiceUnavailable
	}
	RespondWithError(c, status, kind, err.Error(), nil)
}

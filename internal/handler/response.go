package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docsense/internal/domain"
	"docsense/internal/middleware"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "unsupported file type; allowed: pdf, png, jpg, jpeg"
	case errors.Is(err, domain.ErrFileTooLarge), errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, domain.ErrNoFiles):
		return http.StatusBadRequest, "NO_FILES", "no files provided"
	case errors.Is(err, domain.ErrTooManyFiles):
		return http.StatusBadRequest, "TOO_MANY_FILES", "too many files in one request"
	case errors.Is(err, domain.ErrInvalidThreshold):
		return http.StatusBadRequest, "INVALID_THRESHOLD", "threshold must be between 0 and 1"
	case errors.Is(err, domain.ErrAcquisitionFailed):
		return http.StatusUnprocessableEntity, "ACQUISITION_FAILED", "text extraction failed or no text found"
	case errors.Is(err, domain.ErrUnknownCategory):
		return http.StatusNotFound, "UNKNOWN_CATEGORY", "unknown category"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		l := middleware.GetLogger(c)
		l.Error().Err(err).Msg("internal error")
	}
	RespondError(c, status, code, msg)
}

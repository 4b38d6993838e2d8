// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/telemetry-viewer/backend/internal/export"
	"github.com/telemetry-viewer/backend/internal/loader"
	"github.com/telemetry-viewer/backend/internal/plot"
	"github.com/telemetry-viewer/backend/internal/session"
	"github.com/telemetry-viewer/backend/internal/storage"
)

// errNoSeries is the user-facing message when a selection yields nothing to draw.
var errNoSeries = errors.New("no data to plot, check the contents of the selected files")

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error constructors for consistent error handling

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 422 error for a request that cannot produce a result
func NewValidationError(message string) *APIError {
	return &APIError{
		Status:  http.StatusUnprocessableEntity,
		Code:    "VALIDATION_ERROR",
		Message: message,
	}
}

// NewDirectoryError creates a 400 error for a directory that cannot be listed
func NewDirectoryError(cause error) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "DIRECTORY_ERROR",
		Message: "directory cannot be read",
		Details: cause.Error(),
	}
}

// NewForbiddenError creates a 403 Forbidden error
func NewForbiddenError(message string) *APIError {
	return &APIError{
		Status:  http.StatusForbidden,
		Code:    "FORBIDDEN",
		Message: message,
	}
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// FromError maps domain errors onto API errors
func FromError(err error, resource, id string) *APIError {
	var apiErr *APIError
	var dirErr *loader.DirectoryError

	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &dirErr):
		return NewDirectoryError(err)
	case errors.Is(err, session.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return NewNotFoundError(resource, id)
	case errors.Is(err, storage.ErrInvalidName):
		return NewBadRequestError("invalid file name", err)
	case errors.Is(err, loader.ErrEmptySelection):
		return NewValidationError("select a column for the Y axis")
	case errors.Is(err, loader.ErrEmptyCollection):
		return NewValidationError("load telemetry files first")
	case errors.Is(err, errNoSeries), errors.Is(err, plot.ErrNoData), errors.Is(err, export.ErrNoData):
		return NewValidationError(errNoSeries.Error())
	default:
		return NewInternalError("unexpected error", err)
	}
}

// ErrorHandler middleware for Echo
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError
	var httpErr *echo.HTTPError

	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &httpErr):
		apiErr = &APIError{
			Status:  httpErr.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", httpErr.Message),
		}
	default:
		apiErr = NewInternalError("An unexpected error occurred", err)
	}

	c.JSON(apiErr.Status, apiErr)
}

// RespondWithError is a helper to respond with an APIError
func RespondWithError(c echo.Context, err *APIError) error {
	return c.JSON(err.Status, err)
}

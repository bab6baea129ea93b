package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/KaramelBytes/scoreloom-cli/internal/record"
)

// APIError is the JSON body of every failed request.
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

func (e *APIError) Error() string { return e.Message }

// Render implements render.Renderer.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

func newAPIError(status int, code, msg string, details any) *APIError {
	return &APIError{StatusCode: status, ErrorCode: code, Message: msg, Details: details}
}

func badRequest(msg string) *APIError {
	return newAPIError(http.StatusBadRequest, "INVALID_REQUEST", msg, nil)
}

// errorFor maps domain errors onto HTTP statuses.
func errorFor(err error) *APIError {
	var (
		apiErr *APIError
		colErr *record.ColumnsError
		fldErr *record.FieldError
		rngErr *record.RangeError
		dupErr *record.DuplicateError
	)
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &colErr):
		return newAPIError(http.StatusUnprocessableEntity, "MISSING_COLUMNS", err.Error(), map[string]any{
			"missing": colErr.Missing, "available": colErr.Available, "required": colErr.Required,
		})
	case errors.As(err, &fldErr):
		return newAPIError(http.StatusUnprocessableEntity, "MISSING_FIELD", err.Error(), map[string]any{"field": fldErr.Field})
	case errors.As(err, &rngErr):
		return newAPIError(http.StatusUnprocessableEntity, "OUT_OF_RANGE", err.Error(), map[string]any{
			"field": rngErr.Field, "reason": rngErr.Reason,
		})
	case errors.Is(err, record.ErrMissingRequiredField):
		return newAPIError(http.StatusUnprocessableEntity, "MISSING_FIELD", err.Error(), nil)
	case errors.Is(err, record.ErrOutOfRange):
		return newAPIError(http.StatusUnprocessableEntity, "OUT_OF_RANGE", err.Error(), nil)
	case errors.Is(err, record.ErrUnparsableInput):
		return newAPIError(http.StatusBadRequest, "UNPARSABLE_INPUT", err.Error(), nil)
	case errors.Is(err, record.ErrNoValidRows):
		return newAPIError(http.StatusBadRequest, "NO_VALID_ROWS", err.Error(), nil)
	case errors.As(err, &dupErr):
		return newAPIError(http.StatusConflict, "DUPLICATE", err.Error(), map[string]any{
			"position": dupErr.Index + 1, "committed": dupErr.Committed,
		})
	case errors.Is(err, record.ErrNotFound):
		return newAPIError(http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, record.ErrStorageFailure):
		return newAPIError(http.StatusInternalServerError, "STORAGE_FAILURE", "storage failure", nil)
	}
	return newAPIError(http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}

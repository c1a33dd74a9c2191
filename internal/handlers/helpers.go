package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/showforge/showforge/internal/common"
)

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a standard error JSON response with a
// machine-readable kind derived from the error's sentinel marker.
func WriteError(w http.ResponseWriter, err error) error {
	return WriteJSON(w, common.HTTPStatus(err), map[string]string{
		"status": "error",
		"kind":   errorKind(err),
		"error":  err.Error(),
	})
}

// WriteErrorMessage writes an error JSON response for a plain message
func WriteErrorMessage(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, common.ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, common.ErrNotFound):
		return "not_found"
	case errors.Is(err, common.ErrForbidden):
		return "forbidden"
	case errors.Is(err, common.ErrValidation):
		return "validation"
	case errors.Is(err, common.ErrConflict):
		return "conflict"
	case errors.Is(err, common.ErrUpstreamAI):
		return "upstream_ai"
	case errors.Is(err, common.ErrUpstreamRender):
		return "upstream_render"
	default:
		return "internal"
	}
}

// DecodeJSON decodes a request body into dst
func DecodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return common.WrapError(common.ErrValidation, "invalid request body", err)
	}
	return nil
}

package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel markers for error classification. Services wrap failures with one of
// these so handlers can map them to HTTP status codes without inspecting strings.
var (
	ErrQuotaExceeded  = errors.New("quota exceeded")
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
	ErrValidation     = errors.New("validation error")
	ErrConflict       = errors.New("conflict")
	ErrUpstreamAI     = errors.New("ai provider error")
	ErrUpstreamRender = errors.New("render service error")
)

// WrapError tags an error with a sentinel marker for later classification.
// The marker should be one of the exported sentinel errors above.
func WrapError(marker error, message string, err error) error {
	if marker == nil {
		if err != nil {
			return fmt.Errorf("%s: %w", message, err)
		}
		return errors.New(message)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, message, err)
	}
	return fmt.Errorf("%w: %s", marker, message)
}

// Errorf tags a formatted error with a sentinel marker.
func Errorf(marker error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", marker, fmt.Sprintf(format, args...))
}

// HTTPStatus maps a classified error to the HTTP status code handlers
// should return for it.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUpstreamAI), errors.Is(err, ErrUpstreamRender):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

package server

import (
	"context"
	"net/http"

	"github.com/promptvc/promptvc/errors"
)

// Error codes carried in the {error, code} response body.
const (
	codeValidation  = "VALIDATION_ERROR"
	codeAuth        = "AUTH_ERROR"
	codeNotFound    = "NOT_FOUND"
	codeConflict    = "CONFLICT"
	codeForbidden   = "FORBIDDEN"
	codeTimeout     = "TIMEOUT"
	codeRateLimited = "RATE_LIMITED"
	codeInternal    = "INTERNAL_ERROR"
)

// classify maps an error to its HTTP status and response code. Errors
// without a sentinel first go through the message-substring compatibility
// mapping; whatever remains unclassified is an internal error.
func classify(err error) (int, string) {
	err = errors.ClassifyMessage(err)

	switch {
	case errors.Is(err, errors.ErrInvalidRequest):
		return http.StatusBadRequest, codeValidation
	case errors.Is(err, errors.ErrUnauthorized):
		return http.StatusUnauthorized, codeAuth
	case errors.Is(err, errors.ErrNotFound):
		return http.StatusBadRequest, codeNotFound
	case errors.Is(err, errors.ErrConflict):
		return http.StatusBadRequest, codeConflict
	case errors.Is(err, errors.ErrForbidden):
		return http.StatusBadRequest, codeForbidden
	case errors.Is(err, errors.ErrTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, codeTimeout
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

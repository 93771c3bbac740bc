package handler

import (
	"errors"
	"net/http"

	"github.com/go-passwordless-api/internal/domain"
)

var (
	errAliasMissing   = errors.New("an email or mobile number is required")
	errAliasAmbiguous = errors.New("provide either an email or a mobile number, not both")
)

// statusFromError maps domain sentinels to HTTP status codes. Invalid,
// expired and already-used tokens all collapse into 401 so a caller cannot
// tell which keys ever existed.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, domain.ErrAliasNotFound), errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAccountDisabled):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidAlias):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidToken), errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError writes the mapped status with a client-safe message.
// Internal errors never leak their text.
func writeDomainError(w http.ResponseWriter, err error) {
	status := statusFromError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	writeError(w, status, msg)
}

package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/kpiboard/internal/adapters/repository"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest       = errors.New("bad request")
	ErrBackpressure     = errors.New("backpressure")
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// opError prefixes an error kind with the operation that produced it.
func opError(op string, kind error, detail string) error {
	if detail == "" {
		return fmt.Errorf("%s: %w", op, kind)
	}
	return fmt.Errorf("%s: %w: %s", op, kind, detail)
}

// writeServiceError translates service errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("%s: %w", op, err))
	case errors.Is(err, repository.ErrNoSnapshot):
		writeError(w, http.StatusServiceUnavailable, "not_ready", fmt.Errorf("%s: %w", op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", fmt.Errorf("%s: %w", op, err))
	}
}

func methodNotAllowed(w http.ResponseWriter, op string, allowed string) {
	w.Header().Set("Allow", allowed)
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", opError(op, ErrMethodNotAllowed, ""))
}

package kpictl

import (
	"errors"
	"fmt"
)

var (
	// ErrServer is returned for any non-2xx response.
	ErrServer = errors.New("server error")
	// ErrInconsistent is returned when a leaderboard fails verification.
	ErrInconsistent = errors.New("leaderboard inconsistent")
)

// APIError carries the {code,message} body of a failed request.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// Unwrap lets callers match ErrServer.
func (e *APIError) Unwrap() error { return ErrServer }

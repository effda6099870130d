package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound      = errors.New("employee not found")
	ErrNoSnapshot    = errors.New("no snapshot published yet")
	ErrStaleSnapshot = errors.New("snapshot superseded by a newer refresh")
	ErrUnknownDriver = errors.New("unknown database driver")
)

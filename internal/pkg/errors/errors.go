package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources. Resources owned
	// by another doctor are reported with the same sentinel.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
)

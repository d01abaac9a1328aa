package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// ErrAccountNotFound is returned when an account id has no row.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountIDRequired is returned when a lookup is attempted with an empty id.
	ErrAccountIDRequired = errors.New("account id is required")
)

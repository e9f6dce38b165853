package storage

import "errors"

// Storage errors shared by all TradeStore implementations.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when an insert-once record already
	// exists, e.g. a schema_version row written by a concurrent runner.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput is returned when input validation fails,
	// e.g. an empty trade ID or a sort field outside the allowlist.
	ErrInvalidInput = errors.New("invalid input")
)

package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrMalformedIdentity indicates an event reference string that cannot
	// be parsed back into an EventIdentity. Fatal to that single parse,
	// never to the process.
	ErrMalformedIdentity = errors.New("malformed identity reference")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrSweepInProgress indicates a backfill sweep is already running.
	// Sweeps are single-flight: two concurrent sweeps would read-modify-write
	// the same cursor store and race.
	ErrSweepInProgress = errors.New("backfill sweep already in progress")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")
)

package entities

import "errors"

var (
	// ErrInvalidObservation is returned for malformed or empty observations.
	// Such observations are rejected before classification and never persisted.
	ErrInvalidObservation = errors.New("invalid observation")

	// ErrTransientGeneration marks a text-generation failure worth retrying
	// (timeout, rate limit, network or 5xx backend error).
	ErrTransientGeneration = errors.New("transient generation failure")

	// ErrConfiguration is returned when the timeline configuration is invalid.
	ErrConfiguration = errors.New("configuration error")

	// ErrPersistenceConflict is returned when the store detects a concurrent write.
	ErrPersistenceConflict = errors.New("persistence conflict")

	// ErrEntryNotFound is returned when a timeline entry does not exist.
	ErrEntryNotFound = errors.New("timeline entry not found")
)

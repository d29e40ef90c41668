package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrAdjudicatorUnavailable is returned when the adjudicator cannot produce a verdict
	ErrAdjudicatorUnavailable = errors.New("adjudicator unavailable")

	// ErrStoreUnavailable is returned when the persistence collaborator cannot be reached
	ErrStoreUnavailable = errors.New("decision store unavailable")

	// ErrSessionNotFound is returned when no decisions exist for a session
	ErrSessionNotFound = errors.New("session not found")
)

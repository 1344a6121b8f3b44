// Package common defines shared constants and sentinel errors used across
// the layers of mediavault. Callers should use errors.Is to match these
// values; the HTTP layer maps each one to a stable machine-readable code.
package common

import "errors"

var (
	// Taxonomy errors. Every business failure surfaced by the services
	// resolves to exactly one of these.
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrBadRequest      = errors.New("bad request")
	ErrIntegrity       = errors.New("integrity check failed")
	ErrVersionConflict = errors.New("version conflict")

	// Collaborator/transport failures that are not business outcomes.
	ErrInternal = errors.New("internal error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

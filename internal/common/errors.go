// Package common defines sentinel errors and constants shared by the client
// and server sides of daylog. Callers should match errors with errors.Is.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrInternal           = errors.New("internal error")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid username or password")

	// Transient failure of the backing store or transport. Never retried
	// internally; surfaced to the caller.
	ErrUnavailable = errors.New("service unavailable")

	// Auth errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Journal errors.
	ErrInvalidDate   = errors.New("invalid date")
	ErrNoData        = errors.New("no journal entries in period")
	ErrGeneration    = errors.New("summary generation failed")
	ErrInvalidImport = errors.New("invalid import document")
)

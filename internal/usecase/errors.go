package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrPersistFailed wraps a backend write failure that happened after a
	// local mutation already succeeded. Local state stays authoritative and
	// the ledger is marked dirty for a later retry; callers must surface
	// this to the operator rather than swallow it.
	ErrPersistFailed = errors.New("persist live fixture failed")
)

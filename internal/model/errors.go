package model

import "errors"

var (
	// ErrDisconnected marks a remote store call that failed at the
	// transport level. Recoverable: callers fall back to the local store
	// and queue the write.
	ErrDisconnected = errors.New("remote store unreachable")

	// ErrPermissionDenied marks a remote call rejected by the access
	// policy. Recoverable at the orchestration level, but surfaced to the
	// user as a configuration problem rather than a transient failure.
	ErrPermissionDenied = errors.New("permission denied")

	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")

	// ErrNotOwner is returned when a caller tries to edit or delete a
	// comment it does not own.
	ErrNotOwner = errors.New("not the comment owner")
)

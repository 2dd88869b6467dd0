package core

import "errors"

// Sentinel errors returned by core operations. They are always wrapped with
// context, so callers should match them with errors.Is.
var (
	// ErrInvalidTransition means a status or phase change is not an allowed edge.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrNotFound means a referenced task id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation means input was rejected before any state changed.
	ErrValidation = errors.New("validation failed")
	// ErrStorageUnavailable means the task store could not be read or written.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

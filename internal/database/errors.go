// file: internal/database/errors.go
// version: 1.0.0
// guid: 5e2a8c14-9b3d-4f6e-8a1c-2d7b4e9f0a36

package database

import "errors"

// Store error taxonomy. Implementations wrap these sentinels with context
// via fmt.Errorf("...: %w", ...) so callers can test with errors.Is.
var (
	// ErrIO indicates the underlying storage is unreadable or unwritable.
	// Fatal for the operation; the store stays in its last committed state.
	ErrIO = errors.New("storage I/O failure")

	// ErrCorrupt indicates the on-disk structure failed an integrity check
	// on open. The store is unusable until repaired or recreated.
	ErrCorrupt = errors.New("store is corrupt")

	// ErrLocked indicates another process holds the store. Not retried.
	ErrLocked = errors.New("store is locked by another process")

	// ErrNotFound indicates a referenced id is absent. Recoverable.
	ErrNotFound = errors.New("record not found")

	// ErrHasDependents indicates a delete was blocked because dependent
	// quotes exist and cascade was not requested.
	ErrHasDependents = errors.New("record has dependent quotes")
)

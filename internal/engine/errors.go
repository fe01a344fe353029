package engine

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidationError reports caller-supplied data that fails a local invariant.
// No store call is ever attempted when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an operation referencing an id absent from the
// canonical list.
type NotFoundError struct {
	ID uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task %s not in canonical list", e.ID)
}

// PersistenceError reports a failed store write. The canonical list is left
// exactly as it was before the call.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// LoadError reports a failed full load. The previous canonical list is
// retained; the caller decides whether to show stale data.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load failed: %v", e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

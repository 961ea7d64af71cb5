package core

import (
	"errors"
	"fmt"
)

// ErrNotFound reports a lookup of an unknown fact, entity, user or session.
var ErrNotFound = errors.New("not found")

// StorageError signals a failed transactional write. Nothing is partially
// persisted when it is returned.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ValidationError rejects malformed input before any write happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// AdapterUnavailableError reports an unreachable vector backend. It is
// logged and swallowed on the read path; recall callers never see it.
type AdapterUnavailableError struct {
	Backend string
	Err     error
}

func (e *AdapterUnavailableError) Error() string {
	return fmt.Sprintf("vector adapter %s unavailable: %v", e.Backend, e.Err)
}

func (e *AdapterUnavailableError) Unwrap() error { return e.Err }

// ValidateConfidence ensures a confidence scalar stays inside [0, 1].
func ValidateConfidence(c float64) error {
	if c < 0 || c > 1 {
		return &ValidationError{Field: "confidence", Reason: fmt.Sprintf("%v outside [0, 1]", c)}
	}
	return nil
}

package kv

import (
	"errors"
	"fmt"
)

var (
	// ErrStorageCorruption marks a persisted value that could not be parsed.
	// Readers recover by treating the value as empty/default.
	ErrStorageCorruption = errors.New("storage corruption")
	// ErrStorageWrite marks a rejected Set. The in-memory state that triggered
	// the write stays authoritative until the next successful write.
	ErrStorageWrite = errors.New("storage write failure")
)

// CorruptionError describes an unparseable value found under Key.
type CorruptionError struct {
	Key string
	Err error
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("%s: key %q: %v", ErrStorageCorruption, e.Key, e.Err)
}

// Unwrap exposes both the sentinel and the parse error.
func (e *CorruptionError) Unwrap() []error { return []error{ErrStorageCorruption, e.Err} }

// WriteError describes a failed Set of Key.
type WriteError struct {
	Key string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s: key %q: %v", ErrStorageWrite, e.Key, e.Err)
}

// Unwrap exposes both the sentinel and the backend error.
func (e *WriteError) Unwrap() []error { return []error{ErrStorageWrite, e.Err} }

// Result carries non-fatal outcomes of a mutating operation.
type Result struct {
	Warnings []*WriteError
}

// Warn appends a write failure.
func (r *Result) Warn(key string, err error) {
	r.Warnings = append(r.Warnings, &WriteError{Key: key, Err: err})
}

// HasWarnings reports whether any write failed.
func (r Result) HasWarnings() bool { return len(r.Warnings) > 0 }

// Err joins the warnings into one error, or returns nil.
func (r Result) Err() error {
	if len(r.Warnings) == 0 {
		return nil
	}
	errs := make([]error, len(r.Warnings))
	for i, w := range r.Warnings {
		errs[i] = w
	}
	return errors.Join(errs...)
}

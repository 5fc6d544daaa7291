package domain

import "fmt"

// NotFoundError represents a missing dandiset, record or submission.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

// ValidationError represents rejected input, optionally with field detail.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e ValidationError) Error() string {
	if e.Message == "" {
		return "validation failed"
	}
	return e.Message
}

func (e ValidationError) Is(target error) bool {
	_, ok := target.(ValidationError)
	if ok {
		return true
	}
	_, ok = target.(*ValidationError)
	return ok
}

// StateError represents an operation invalid for the record's current
// status, such as approving into an occupied destination.
type StateError struct {
	Message string
}

func (e StateError) Error() string {
	if e.Message == "" {
		return "invalid state transition"
	}
	return e.Message
}

func (e StateError) Is(target error) bool {
	_, ok := target.(StateError)
	if ok {
		return true
	}
	_, ok = target.(*StateError)
	return ok
}

// CorruptionError represents a stored record that cannot be parsed.
type CorruptionError struct {
	Path string
	Err  error
}

func (e CorruptionError) Error() string {
	return fmt.Sprintf("corrupt record %s: %v", e.Path, e.Err)
}

func (e CorruptionError) Unwrap() error { return e.Err }

func (e CorruptionError) Is(target error) bool {
	_, ok := target.(CorruptionError)
	if ok {
		return true
	}
	_, ok = target.(*CorruptionError)
	return ok
}

package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownFailure stands in for a failure that carried no error value.
var ErrUnknownFailure = errors.New("extraction failed without an error")

// UnknownModelError is returned when a model identifier is not in the registry.
// It is fatal to the whole run.
type UnknownModelError struct {
	ID string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("unknown model: %s", e.ID)
}

// UnreadablePdfError is returned when a file is missing, corrupt or not a PDF.
type UnreadablePdfError struct {
	Path  string
	Cause error
}

func (e *UnreadablePdfError) Error() string {
	return fmt.Sprintf("unreadable pdf %s: %v", e.Path, e.Cause)
}

func (e *UnreadablePdfError) Unwrap() error {
	return e.Cause
}

// BackendErrorKind classifies backend failures.
type BackendErrorKind string

const (
	BackendErrorAuth      BackendErrorKind = "auth"
	BackendErrorQuota     BackendErrorKind = "quota"
	BackendErrorNetwork   BackendErrorKind = "network"
	BackendErrorMalformed BackendErrorKind = "malformed_response"
	BackendErrorOther     BackendErrorKind = "other"
)

// BackendError is returned by extraction backends.
type BackendError struct {
	Kind  BackendErrorKind
	Cause error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend error (%s): %v", e.Kind, e.Cause)
}

func (e *BackendError) Unwrap() error {
	return e.Cause
}

// NewBackendError wraps cause with the given kind.
func NewBackendError(kind BackendErrorKind, cause error) *BackendError {
	return &BackendError{Kind: kind, Cause: cause}
}

// SinkWriteError is returned when the record store cannot be written.
// It aborts the run.
type SinkWriteError struct {
	Path  string
	Cause error
}

func (e *SinkWriteError) Error() string {
	return fmt.Sprintf("write record store %s: %v", e.Path, e.Cause)
}

func (e *SinkWriteError) Unwrap() error {
	return e.Cause
}

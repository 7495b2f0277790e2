package entity

import (
	"errors"
	"fmt"
)

var (
	ErrNoteNotFound = errors.New("note not found")
	ErrOffline      = errors.New("remote store is unreachable while offline")

	ErrMissingFields = &ValidationError{Msg: "Missing required fields: id and title"}
	ErrInvalidNoteID = &ValidationError{Msg: "Valid Note ID is required"}
)

// ValidationError reports a malformed request. It is terminal: retrying the
// same input fails the same way.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// TransientNetworkError wraps any failed call to the remote store.
type TransientNetworkError struct {
	Op  string
	Err error
}

func (e *TransientNetworkError) Error() string {
	return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
}

func (e *TransientNetworkError) Unwrap() error {
	return e.Err
}

// StorageError wraps a failure of the on-device store. There is no fallback
// store, so it is always surfaced to the caller.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("local storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

func IsTransient(err error) bool {
	var terr *TransientNetworkError
	return errors.As(err, &terr)
}

func IsStorage(err error) bool {
	var serr *StorageError
	return errors.As(err, &serr)
}

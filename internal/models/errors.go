package models

import (
	"errors"
	"fmt"
)

var (
	// ErrWindowClosed means the request arrived outside the event window.
	ErrWindowClosed = errors.New("event window is closed")
	// ErrValidation means the participant input was rejected.
	ErrValidation = errors.New("invalid participant input")
	// ErrLockTimeout means the allocation lock could not be obtained. Retryable.
	ErrLockTimeout = errors.New("allocation lock not acquired")
	// ErrStorage matches every *StorageError.
	ErrStorage = errors.New("storage failure")
	// ErrNotFound is returned by Store.Get for missing keys.
	ErrNotFound = errors.New("key not found")
)

// StorageError is a failed read or write against the shared store.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func NewStorageError(op, key string, err error) *StorageError {
	return &StorageError{Op: op, Key: key, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %s", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

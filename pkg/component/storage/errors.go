package storage

import (
	"errors"
	"fmt"
)

// Common storage error types. Use them directly or enrich them with
// WithMessage and WithCause.
var (
	// ErrNotConnected indicates that the storage client is not connected
	// to the backend.
	ErrNotConnected = &StorageError{
		Code:    "NOT_CONNECTED",
		Message: "storage client is not connected",
	}

	// ErrConnectionFailed indicates that an attempt to connect to the
	// storage backend failed.
	ErrConnectionFailed = &StorageError{
		Code:    "CONNECTION_FAILED",
		Message: "failed to connect to storage backend",
	}

	// ErrTimeout indicates that a storage operation exceeded its deadline.
	ErrTimeout = &StorageError{
		Code:    "TIMEOUT",
		Message: "storage operation timed out",
	}

	// ErrInvalidConfig indicates that the storage configuration is invalid.
	ErrInvalidConfig = &StorageError{
		Code:    "INVALID_CONFIG",
		Message: "invalid storage configuration",
	}

	// ErrClientNotFound indicates that a requested client was not found
	// in the storage manager.
	ErrClientNotFound = &StorageError{
		Code:    "CLIENT_NOT_FOUND",
		Message: "storage client not found",
	}

	// ErrClientAlreadyExists indicates that a client with the same name
	// is already registered in the storage manager.
	ErrClientAlreadyExists = &StorageError{
		Code:    "CLIENT_ALREADY_EXISTS",
		Message: "storage client already exists",
	}

	// ErrOperationFailed indicates that a storage operation failed. Wrap
	// it with specific details.
	ErrOperationFailed = &StorageError{
		Code:    "OPERATION_FAILED",
		Message: "storage operation failed",
	}
)

// StorageError represents a storage-related error with a machine-readable
// code. Errors compare by code, so enriched copies still match their base
// through errors.Is.
type StorageError struct {
	// Code is a machine-readable error code (e.g., "NOT_CONNECTED")
	Code string

	// Message is a human-readable error message
	Message string

	// Cause is the underlying error that caused this error, if any
	Cause error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// Is matches errors by code, enabling errors.Is across enriched copies.
func (e *StorageError) Is(target error) bool {
	t, ok := target.(*StorageError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithMessage returns a copy of the error with an updated message.
func (e *StorageError) WithMessage(msg string) *StorageError {
	return &StorageError{
		Code:    e.Code,
		Message: msg,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping an underlying cause.
func (e *StorageError) WithCause(cause error) *StorageError {
	return &StorageError{
		Code:    e.Code,
		Message: e.Message,
		Cause:   cause,
	}
}

// IsStorageError checks if an error is a StorageError.
func IsStorageError(err error) bool {
	var storageErr *StorageError
	return errors.As(err, &storageErr)
}

// GetStorageError extracts a StorageError from an error chain.
func GetStorageError(err error) (*StorageError, bool) {
	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		return storageErr, true
	}
	return nil, false
}

package store

import (
	"errors"
	"fmt"
)

// ErrOrderNotFound is returned by MarkAcknowledged when no order exists
// with the given identifier.
var ErrOrderNotFound = errors.New("order not found")

// StorageError represents a failure in the persistent store.
//
// Every storage-layer failure (initialization, write, read) is surfaced
// as a StorageError; the store never silently drops a write.
type StorageError struct {
	// Op identifies the failed operation.
	Op StorageOp

	// Err is the underlying cause.
	Err error
}

// StorageOp categorizes storage operations for error reporting.
type StorageOp string

const (
	// OpInit is database open, schema creation, or migration.
	OpInit StorageOp = "init"

	// OpWrite is any mutating statement.
	OpWrite StorageOp = "write"

	// OpRead is any query.
	OpRead StorageOp = "read"
)

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError returns true if the error is a storage failure.
// Uses errors.As to handle wrapped errors.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

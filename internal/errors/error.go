// Package errors provides custom error types for sweet-related operations.
package errors

import "errors"

var (
	// ErrSweetNotFound is returned when the requested sweet id does not exist.
	ErrSweetNotFound = errors.New("sweet not found")

	// ErrInsufficientStock is returned by purchase when the requested quantity
	// exceeds the current stock. The purchase transaction is aborted and no
	// partial decrement is ever persisted.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrConflict is reserved for duplicate-identity situations in adjacent
	// collaborators (e.g. user registration). The catalog core never raises it.
	ErrConflict = errors.New("conflict")

	// ErrStoreUnavailable wraps store or cache connectivity failures. The core
	// propagates it without retrying; retry policy belongs to the caller.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrAdminRequired is returned when an admin-gated operation is invoked
	// without a valid admin grant.
	ErrAdminRequired = errors.New("admin privileges required")

	ErrTransactionBegin    = errors.New("failed to begin transaction")
	ErrTransactionCommit   = errors.New("failed to commit transaction")
	ErrTransactionRollback = errors.New("failed to rollback transaction")
)

package storage

import "errors"

// Common client storage errors
var (
	// ErrEntityNotFound indicates that entity was not found
	ErrEntityNotFound = errors.New("entity not found")

	// ErrQueueItemNotFound indicates that sync queue item was not found
	ErrQueueItemNotFound = errors.New("sync queue item not found")

	// ErrConflictNotFound indicates that conflict record was not found
	ErrConflictNotFound = errors.New("conflict record not found")

	// ErrSessionNotFound indicates that no device session exists
	ErrSessionNotFound = errors.New("session not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)

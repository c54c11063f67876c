package storage

import "errors"

// Common storage errors
var (
	// ErrDeviceNotFound indicates that the device was not found in storage
	ErrDeviceNotFound = errors.New("device not found")

	// ErrDeviceAlreadyExists indicates that a device with this ID is already registered
	ErrDeviceAlreadyExists = errors.New("device already exists")

	// ErrEntityNotFound indicates that the entity was not found
	ErrEntityNotFound = errors.New("entity not found")
)

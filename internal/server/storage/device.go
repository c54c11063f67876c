package storage

import (
	"context"
	"time"

	"github.com/iudanet/fieldkeeper/internal/models"
)

// DeviceStorage defines interface for registered device persistence
type DeviceStorage interface {
	// CreateDevice registers a new device
	// Returns ErrDeviceAlreadyExists if the device ID is taken
	CreateDevice(ctx context.Context, device *models.Device) error

	// GetDevice retrieves a device by ID
	// Returns ErrDeviceNotFound if the device doesn't exist
	GetDevice(ctx context.Context, deviceID string) (*models.Device, error)

	// UpdateLastLogin updates the last login timestamp
	UpdateLastLogin(ctx context.Context, deviceID string, lastLogin time.Time) error
}

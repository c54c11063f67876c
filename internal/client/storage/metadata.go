package storage

import (
	"context"
	"time"
)

//go:generate moq -out metadata_mock.go . MetadataStorage

// Session содержит данные аутентификации устройства на сервере
type Session struct {
	ExpiresAt   time.Time `json:"expires_at"`
	DeviceName  string    `json:"device_name"`
	AccessToken string    `json:"access_token"`
}

// MetadataStorage defines interface for storing client metadata
type MetadataStorage interface {
	// DeviceID returns the stable device identifier, generating and
	// persisting one on first call
	DeviceID(ctx context.Context) (string, error)

	// SaveSession persists the device session (access token)
	SaveSession(ctx context.Context, session *Session) error

	// GetSession retrieves the device session
	// Returns ErrSessionNotFound if the device is not logged in
	GetSession(ctx context.Context) (*Session, error)

	// DeleteSession removes the device session (logout)
	DeleteSession(ctx context.Context) error
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/fieldkeeper/internal/models"
	"github.com/iudanet/fieldkeeper/internal/server/storage"
)

// CreateDevice registers a new device
// Returns ErrDeviceAlreadyExists if the device ID is taken
func (s *Storage) CreateDevice(ctx context.Context, device *models.Device) error {
	query := `
		INSERT INTO devices (id, name, secret_hash, created_at, last_login_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		device.ID,
		device.Name,
		device.SecretHash,
		device.CreatedAt.Unix(),
		device.LastLoginAt.Unix(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return storage.ErrDeviceAlreadyExists
		}
		return fmt.Errorf("failed to insert device: %w", err)
	}

	return nil
}

// GetDevice retrieves a device by ID
// Returns ErrDeviceNotFound if the device doesn't exist
func (s *Storage) GetDevice(ctx context.Context, deviceID string) (*models.Device, error) {
	query := `
		SELECT id, name, secret_hash, created_at, last_login_at
		FROM devices
		WHERE id = ?
	`

	device := &models.Device{}
	var createdAt, lastLoginAt int64

	err := s.db.QueryRowContext(ctx, query, deviceID).Scan(
		&device.ID,
		&device.Name,
		&device.SecretHash,
		&createdAt,
		&lastLoginAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrDeviceNotFound
		}
		return nil, fmt.Errorf("failed to query device: %w", err)
	}

	device.CreatedAt = time.Unix(createdAt, 0).UTC()
	device.LastLoginAt = time.Unix(lastLoginAt, 0).UTC()

	return device, nil
}

// UpdateLastLogin updates the last login timestamp
func (s *Storage) UpdateLastLogin(ctx context.Context, deviceID string, lastLogin time.Time) error {
	query := `UPDATE devices SET last_login_at = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, lastLogin.Unix(), deviceID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return storage.ErrDeviceNotFound
	}

	return nil
}

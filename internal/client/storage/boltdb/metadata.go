package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/iudanet/fieldkeeper/internal/client/storage"
)

var (
	keyDeviceID = []byte("device_id")
	keySession  = []byte("session")
)

// DeviceID returns the stable device identifier, generating and persisting
// one on first call. Идентификатор живет столько же, сколько база данных.
func (s *Storage) DeviceID(ctx context.Context) (string, error) {
	if s.db == nil {
		return "", storage.ErrStorageClosed
	}

	var deviceID string

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMeta)

		if existing := bucket.Get(keyDeviceID); existing != nil {
			deviceID = string(existing)
			return nil
		}

		deviceID = uuid.New().String()

		return bucket.Put(keyDeviceID, []byte(deviceID))
	})
	if err != nil {
		return "", fmt.Errorf("device id transaction failed: %w", err)
	}

	return deviceID, nil
}

// SaveSession persists the device session
func (s *Storage) SaveSession(ctx context.Context, session *storage.Session) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}

		return tx.Bucket(bucketMeta).Put(keySession, data)
	})
	if err != nil {
		return fmt.Errorf("session transaction failed: %w", err)
	}

	return nil
}

// GetSession retrieves the device session
func (s *Storage) GetSession(ctx context.Context) (*storage.Session, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var session *storage.Session

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keySession)
		if data == nil {
			return storage.ErrSessionNotFound
		}

		session = &storage.Session{}
		if err := json.Unmarshal(data, session); err != nil {
			return fmt.Errorf("failed to unmarshal session: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return session, nil
}

// DeleteSession removes the device session
func (s *Storage) DeleteSession(ctx context.Context) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMeta).Delete(keySession)
	})
	if err != nil {
		return fmt.Errorf("session transaction failed: %w", err)
	}

	return nil
}

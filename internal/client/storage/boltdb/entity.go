package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/fieldkeeper/internal/client/storage"
	"github.com/iudanet/fieldkeeper/internal/models"
)

// PutEntity stores or updates an entity
func (s *Storage) PutEntity(ctx context.Context, entity *models.Entity) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return putEntityTx(tx, entity)
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

// putEntityTx записывает entity внутри уже открытой транзакции.
// Используется и отдельными вызовами, и ApplyMutation.
func putEntityTx(tx *bbolt.Tx, entity *models.Entity) error {
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	bucket := tx.Bucket(bucketEntities)
	if err := bucket.Put([]byte(entity.ID), data); err != nil {
		return fmt.Errorf("failed to save entity: %w", err)
	}

	return nil
}

// GetEntity retrieves an entity by ID
func (s *Storage) GetEntity(ctx context.Context, id string) (*models.Entity, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var entity *models.Entity

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketEntities).Get([]byte(id))
		if data == nil {
			return storage.ErrEntityNotFound
		}

		entity = &models.Entity{}
		if err := json.Unmarshal(data, entity); err != nil {
			return fmt.Errorf("failed to unmarshal entity: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return entity, nil
}

// ListEntities returns all entities, optionally filtered by type
func (s *Storage) ListEntities(ctx context.Context, entityType string) ([]*models.Entity, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var entities []*models.Entity

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEntities).ForEach(func(k, v []byte) error {
			var entity models.Entity
			if err := json.Unmarshal(v, &entity); err != nil {
				return fmt.Errorf("failed to unmarshal entity: %w", err)
			}

			if entityType == "" || entity.Type == entityType {
				entities = append(entities, &entity)
			}

			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}

	return entities, nil
}

// GetEntitiesByParent returns entities referencing the given parent ID
func (s *Storage) GetEntitiesByParent(ctx context.Context, parentID string) ([]*models.Entity, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var entities []*models.Entity

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEntities).ForEach(func(k, v []byte) error {
			var entity models.Entity
			if err := json.Unmarshal(v, &entity); err != nil {
				return fmt.Errorf("failed to unmarshal entity: %w", err)
			}

			if entity.ParentID == parentID {
				entities = append(entities, &entity)
			}

			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get entities by parent: %w", err)
	}

	return entities, nil
}

// SetSyncStatus updates only the sync status of an entity
func (s *Storage) SetSyncStatus(ctx context.Context, id string, status models.SyncStatus) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketEntities)

		data := bucket.Get([]byte(id))
		if data == nil {
			return storage.ErrEntityNotFound
		}

		var entity models.Entity
		if err := json.Unmarshal(data, &entity); err != nil {
			return fmt.Errorf("failed to unmarshal entity: %w", err)
		}

		entity.SyncStatus = status

		updated, err := json.Marshal(&entity)
		if err != nil {
			return fmt.Errorf("failed to marshal entity: %w", err)
		}

		return bucket.Put([]byte(id), updated)
	})
	if err != nil {
		if err == storage.ErrEntityNotFound {
			return err
		}
		return fmt.Errorf("set status transaction failed: %w", err)
	}

	return nil
}

// DeleteEntity removes an entity record entirely
func (s *Storage) DeleteEntity(ctx context.Context, id string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEntities).Delete([]byte(id))
	})
	if err != nil {
		return fmt.Errorf("delete transaction failed: %w", err)
	}

	return nil
}

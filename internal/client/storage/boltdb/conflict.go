package boltdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/fieldkeeper/internal/client/storage"
	"github.com/iudanet/fieldkeeper/internal/models"
)

// SaveConflict stores a conflict record keyed by entity ID.
// Повторное сохранение перезаписывает предыдущий конфликт той же записи.
func (s *Storage) SaveConflict(ctx context.Context, record *models.ConflictRecord) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal conflict: %w", err)
		}

		return tx.Bucket(bucketConflicts).Put([]byte(record.EntityID), data)
	})
	if err != nil {
		return fmt.Errorf("conflict transaction failed: %w", err)
	}

	return nil
}

// GetConflict retrieves the conflict record for an entity
func (s *Storage) GetConflict(ctx context.Context, entityID string) (*models.ConflictRecord, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var record *models.ConflictRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketConflicts).Get([]byte(entityID))
		if data == nil {
			return storage.ErrConflictNotFound
		}

		record = &models.ConflictRecord{}
		if err := json.Unmarshal(data, record); err != nil {
			return fmt.Errorf("failed to unmarshal conflict: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

// ListConflicts returns conflict records, newest first
func (s *Storage) ListConflicts(ctx context.Context, unresolvedOnly bool) ([]*models.ConflictRecord, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var records []*models.ConflictRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketConflicts).ForEach(func(k, v []byte) error {
			var record models.ConflictRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("failed to unmarshal conflict: %w", err)
			}

			if unresolvedOnly && record.ResolvedAt != nil {
				return nil
			}

			records = append(records, &record)

			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list conflicts: %w", err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	return records, nil
}

// ResolveConflict marks the record resolved with the given strategy
func (s *Storage) ResolveConflict(ctx context.Context, entityID string, strategy models.ResolutionStrategy, resolvedAt time.Time) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketConflicts)

		data := bucket.Get([]byte(entityID))
		if data == nil {
			return storage.ErrConflictNotFound
		}

		var record models.ConflictRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return fmt.Errorf("failed to unmarshal conflict: %w", err)
		}

		record.Strategy = strategy
		record.ResolvedAt = &resolvedAt

		updated, err := json.Marshal(&record)
		if err != nil {
			return fmt.Errorf("failed to marshal conflict: %w", err)
		}

		return bucket.Put([]byte(entityID), updated)
	})
	if err != nil {
		if errors.Is(err, storage.ErrConflictNotFound) {
			return err
		}
		return fmt.Errorf("resolve transaction failed: %w", err)
	}

	return nil
}

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

// DequeueNext returns up to max eligible queue items ordered by
// (priority ascending, enqueuedAt ascending). Items remain in the queue;
// removal happens only after a confirmed sync.
func (s *Storage) DequeueNext(ctx context.Context, now time.Time, max int) ([]*models.SyncQueueItem, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var items []*models.SyncQueueItem

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketQueue).ForEach(func(k, v []byte) error {
			var item models.SyncQueueItem
			if err := json.Unmarshal(v, &item); err != nil {
				return fmt.Errorf("failed to unmarshal queue item: %w", err)
			}

			// Dead-letter и отложенные backoff элементы не выдаются
			if item.DeadLetter || item.NextAttemptAt.After(now) {
				return nil
			}

			items = append(items, &item)

			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan queue: %w", err)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Priority != items[j].Priority {
			return items[i].Priority < items[j].Priority
		}
		return items[i].EnqueuedAt.Before(items[j].EnqueuedAt)
	})

	if max > 0 && len(items) > max {
		items = items[:max]
	}

	return items, nil
}

// GetQueueItem retrieves a queue item by its ID
func (s *Storage) GetQueueItem(ctx context.Context, id string) (*models.SyncQueueItem, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var item *models.SyncQueueItem

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketQueue).Get([]byte(id))
		if data == nil {
			return storage.ErrQueueItemNotFound
		}

		item = &models.SyncQueueItem{}
		if err := json.Unmarshal(data, item); err != nil {
			return fmt.Errorf("failed to unmarshal queue item: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// GetQueueItemByEntity retrieves the queued item for an entity via the
// queue_by_entity index. Очередь держит не более одного элемента на запись.
func (s *Storage) GetQueueItemByEntity(ctx context.Context, entityID string) (*models.SyncQueueItem, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var item *models.SyncQueueItem

	err := s.db.View(func(tx *bbolt.Tx) error {
		itemID := tx.Bucket(bucketQueueIndex).Get([]byte(entityID))
		if itemID == nil {
			return storage.ErrQueueItemNotFound
		}

		data := tx.Bucket(bucketQueue).Get(itemID)
		if data == nil {
			// Индекс указывает на удаленный элемент - считаем записью без очереди
			return storage.ErrQueueItemNotFound
		}

		item = &models.SyncQueueItem{}
		if err := json.Unmarshal(data, item); err != nil {
			return fmt.Errorf("failed to unmarshal queue item: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// ListQueue returns all queue items, dead-lettered ones only when requested
func (s *Storage) ListQueue(ctx context.Context, includeDeadLetter bool) ([]*models.SyncQueueItem, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var items []*models.SyncQueueItem

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketQueue).ForEach(func(k, v []byte) error {
			var item models.SyncQueueItem
			if err := json.Unmarshal(v, &item); err != nil {
				return fmt.Errorf("failed to unmarshal queue item: %w", err)
			}

			if item.DeadLetter && !includeDeadLetter {
				return nil
			}

			items = append(items, &item)

			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list queue: %w", err)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Priority != items[j].Priority {
			return items[i].Priority < items[j].Priority
		}
		return items[i].EnqueuedAt.Before(items[j].EnqueuedAt)
	})

	return items, nil
}

// UpdateQueueItem persists retry bookkeeping for an existing item
func (s *Storage) UpdateQueueItem(ctx context.Context, item *models.SyncQueueItem) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueue)

		if bucket.Get([]byte(item.ID)) == nil {
			return storage.ErrQueueItemNotFound
		}

		return putQueueItemTx(tx, item)
	})
	if err != nil {
		if errors.Is(err, storage.ErrQueueItemNotFound) {
			return err
		}
		return fmt.Errorf("update transaction failed: %w", err)
	}

	return nil
}

// putQueueItemTx записывает элемент очереди и поддерживает индекс
// entityID -> itemID внутри уже открытой транзакции.
func putQueueItemTx(tx *bbolt.Tx, item *models.SyncQueueItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal queue item: %w", err)
	}

	if err := tx.Bucket(bucketQueue).Put([]byte(item.ID), data); err != nil {
		return fmt.Errorf("failed to save queue item: %w", err)
	}

	if err := tx.Bucket(bucketQueueIndex).Put([]byte(item.EntityID), []byte(item.ID)); err != nil {
		return fmt.Errorf("failed to update queue index: %w", err)
	}

	return nil
}

// RemoveQueueItem deletes a queue item after successful sync
func (s *Storage) RemoveQueueItem(ctx context.Context, id string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return removeQueueItemTx(tx, id)
	})
	if err != nil {
		if errors.Is(err, storage.ErrQueueItemNotFound) {
			return err
		}
		return fmt.Errorf("remove transaction failed: %w", err)
	}

	return nil
}

// removeQueueItemTx удаляет элемент очереди вместе с записью индекса.
func removeQueueItemTx(tx *bbolt.Tx, id string) error {
	bucket := tx.Bucket(bucketQueue)

	data := bucket.Get([]byte(id))
	if data == nil {
		return storage.ErrQueueItemNotFound
	}

	var item models.SyncQueueItem
	if err := json.Unmarshal(data, &item); err != nil {
		return fmt.Errorf("failed to unmarshal queue item: %w", err)
	}

	if err := bucket.Delete([]byte(id)); err != nil {
		return fmt.Errorf("failed to delete queue item: %w", err)
	}

	return tx.Bucket(bucketQueueIndex).Delete([]byte(item.EntityID))
}

// MarkDeadLetter moves an item out of automatic retry while keeping it
// persisted for inspection, requeue or discard.
func (s *Storage) MarkDeadLetter(ctx context.Context, id string, reason string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueue)

		data := bucket.Get([]byte(id))
		if data == nil {
			return storage.ErrQueueItemNotFound
		}

		var item models.SyncQueueItem
		if err := json.Unmarshal(data, &item); err != nil {
			return fmt.Errorf("failed to unmarshal queue item: %w", err)
		}

		item.DeadLetter = true
		item.LastError = reason

		updated, err := json.Marshal(&item)
		if err != nil {
			return fmt.Errorf("failed to marshal queue item: %w", err)
		}

		return bucket.Put([]byte(id), updated)
	})
	if err != nil {
		if errors.Is(err, storage.ErrQueueItemNotFound) {
			return err
		}
		return fmt.Errorf("dead-letter transaction failed: %w", err)
	}

	return nil
}

// CountPending returns the number of items awaiting sync,
// dead-lettered items excluded
func (s *Storage) CountPending(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, storage.ErrStorageClosed
	}

	count := 0

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketQueue).ForEach(func(k, v []byte) error {
			var item models.SyncQueueItem
			if err := json.Unmarshal(v, &item); err != nil {
				return fmt.Errorf("failed to unmarshal queue item: %w", err)
			}

			if !item.DeadLetter {
				count++
			}

			return nil
		})
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count queue: %w", err)
	}

	return count, nil
}

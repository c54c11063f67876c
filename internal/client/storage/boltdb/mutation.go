package boltdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/fieldkeeper/internal/client/queue"
	"github.com/iudanet/fieldkeeper/internal/client/storage"
	"github.com/iudanet/fieldkeeper/internal/models"
)

// ApplyMutation atomically persists an entity write together with its
// change log entries and the proposed queue item. Коалесцирование
// с уже стоящим в очереди элементом выполняется внутри той же
// транзакции, поэтому инвариант "один элемент очереди на запись"
// не нарушается даже при сбое между шагами.
//
// Путь purge (Delete поверх несинхронизированного Create) удаляет
// запись, элемент очереди и журнал изменений - наружу не уходит ничего.
func (s *Storage) ApplyMutation(ctx context.Context, mut *storage.Mutation) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		if mut.QueueItem == nil {
			return applyWithoutQueue(tx, mut)
		}

		existing, err := queueItemByEntityTx(tx, mut.QueueItem.EntityID)
		if err != nil {
			return err
		}

		item, purge, err := queue.Coalesce(existing, mut.QueueItem)
		if err != nil {
			return err
		}

		if purge {
			return purgeEntityTx(tx, existing, mut.QueueItem.EntityID)
		}

		if mut.Entity != nil {
			if err := putEntityTx(tx, mut.Entity); err != nil {
				return err
			}
		}

		if err := appendChangeLogTx(tx, mut.ChangeLog); err != nil {
			return err
		}

		return putQueueItemTx(tx, item)
	})
	if err != nil {
		if errors.Is(err, queue.ErrDeletePending) {
			return err
		}
		return fmt.Errorf("mutation transaction failed: %w", err)
	}

	return nil
}

// applyWithoutQueue записывает entity и журнал без постановки в очередь.
// Используется при применении канонического состояния сервера.
func applyWithoutQueue(tx *bbolt.Tx, mut *storage.Mutation) error {
	if mut.Entity != nil {
		if err := putEntityTx(tx, mut.Entity); err != nil {
			return err
		}
	}

	return appendChangeLogTx(tx, mut.ChangeLog)
}

// queueItemByEntityTx ищет стоящий в очереди элемент записи внутри
// открытой транзакции. Возвращает nil, если элемента нет.
func queueItemByEntityTx(tx *bbolt.Tx, entityID string) (*models.SyncQueueItem, error) {
	itemID := tx.Bucket(bucketQueueIndex).Get([]byte(entityID))
	if itemID == nil {
		return nil, nil
	}

	data := tx.Bucket(bucketQueue).Get(itemID)
	if data == nil {
		return nil, nil
	}

	item := &models.SyncQueueItem{}
	if err := json.Unmarshal(data, item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal queue item: %w", err)
	}

	return item, nil
}

// purgeEntityTx гасит несинхронизированную запись: удаляет ее саму,
// элемент очереди и журнал изменений одной транзакцией.
func purgeEntityTx(tx *bbolt.Tx, existing *models.SyncQueueItem, entityID string) error {
	if err := tx.Bucket(bucketEntities).Delete([]byte(entityID)); err != nil {
		return fmt.Errorf("failed to purge entity: %w", err)
	}

	if existing != nil {
		if err := tx.Bucket(bucketQueue).Delete([]byte(existing.ID)); err != nil {
			return fmt.Errorf("failed to purge queue item: %w", err)
		}
	}

	if err := tx.Bucket(bucketQueueIndex).Delete([]byte(entityID)); err != nil {
		return fmt.Errorf("failed to purge queue index: %w", err)
	}

	return pruneChangeLogTx(tx, entityID)
}

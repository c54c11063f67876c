package storage

import (
	"context"

	"github.com/iudanet/fieldkeeper/internal/models"
)

// Mutation представляет атомарную единицу локальной записи: обновленная
// запись, ее журнал изменений и предлагаемый элемент очереди фиксируются
// одной транзакцией. Сбой транзакции возвращается вызывающему синхронно -
// частично примененная мутация невозможна.
//
// QueueItem is a proposal: the store coalesces it with an already queued
// item for the same entity (see the queue package rules) inside the same
// transaction, so the one-item-per-entity invariant holds on disk.
type Mutation struct {
	Entity    *models.Entity
	ChangeLog []*models.ChangeLogEntry
	QueueItem *models.SyncQueueItem
}

// Storage объединяет все возможности локального durable-хранилища.
// Очередь и таблица записей - единственные разделяемые изменяемые ресурсы;
// весь доступ к ним идет через этот интерфейс.
type Storage interface {
	EntityStorage
	ChangeLogStorage
	QueueStorage
	ConflictStorage
	MetadataStorage

	// ApplyMutation atomically writes entity + change log + queue item.
	// A Delete mutation over a still-unsynced Create purges both the
	// entity and the queued item with no outgoing operation left behind.
	ApplyMutation(ctx context.Context, mut *Mutation) error

	// Close closes the underlying database
	Close() error
}

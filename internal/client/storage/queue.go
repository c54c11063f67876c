package storage

import (
	"context"
	"time"

	"github.com/iudanet/fieldkeeper/internal/models"
)

//go:generate moq -out queuestorage_mock.go . QueueStorage

// QueueStorage defines interface for the durable sync queue.
// Элемент очереди существует только будучи зафиксированным на диске:
// постановка в очередь происходит исключительно через Storage.ApplyMutation
// одной транзакцией вместе с записью и журналом изменений.
type QueueStorage interface {
	// DequeueNext returns up to max eligible items ordered by
	// (priority ascending, enqueuedAt ascending). Eligible means:
	// not dead-lettered and nextAttemptAt <= now. Items are not removed.
	DequeueNext(ctx context.Context, now time.Time, max int) ([]*models.SyncQueueItem, error)

	// GetQueueItem retrieves a queue item by its ID
	// Returns ErrQueueItemNotFound if item doesn't exist
	GetQueueItem(ctx context.Context, id string) (*models.SyncQueueItem, error)

	// GetQueueItemByEntity retrieves the pending queue item for an entity.
	// The queue holds at most one item per entity (coalescing invariant).
	// Returns ErrQueueItemNotFound if no item is queued for the entity.
	GetQueueItemByEntity(ctx context.Context, entityID string) (*models.SyncQueueItem, error)

	// ListQueue returns all queue items; dead-lettered ones only when
	// includeDeadLetter is true
	ListQueue(ctx context.Context, includeDeadLetter bool) ([]*models.SyncQueueItem, error)

	// UpdateQueueItem persists retry bookkeeping (retryCount, nextAttemptAt,
	// lastError) for an existing item
	UpdateQueueItem(ctx context.Context, item *models.SyncQueueItem) error

	// RemoveQueueItem deletes a queue item after successful sync
	RemoveQueueItem(ctx context.Context, id string) error

	// MarkDeadLetter moves an item out of automatic retry.
	// The item stays persisted until explicitly resolved.
	MarkDeadLetter(ctx context.Context, id string, reason string) error

	// CountPending returns the number of items awaiting sync
	// (dead-lettered items excluded)
	CountPending(ctx context.Context) (int, error)
}

package boltdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/fieldkeeper/internal/client/queue"
	"github.com/iudanet/fieldkeeper/internal/client/storage"
	"github.com/iudanet/fieldkeeper/internal/models"
)

func TestApplyMutation_WritesAllThreeAtomically(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	entity := testEntity("quote-1")
	item := testQueueItem("q-1", "quote-1", models.OperationCreate, models.PriorityCritical)

	require.NoError(t, store.ApplyMutation(ctx, &storage.Mutation{
		Entity: entity,
		ChangeLog: []*models.ChangeLogEntry{
			{ID: "cl-1", EntityID: "quote-1", FieldPath: "title", NewValue: "Fence repair", Timestamp: time.Now().UTC()},
		},
		QueueItem: item,
	}))

	got, err := store.GetEntity(ctx, "quote-1")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusPending, got.SyncStatus)

	queued, err := store.GetQueueItemByEntity(ctx, "quote-1")
	require.NoError(t, err)
	assert.Equal(t, models.OperationCreate, queued.Operation)

	log, err := store.GetChangeLog(ctx, "quote-1")
	require.NoError(t, err)
	assert.Len(t, log, 1)
}

func TestApplyMutation_CoalescesUpdates(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	entity := testEntity("quote-1")
	first := testQueueItem("q-1", "quote-1", models.OperationUpdate, models.PriorityNormal)
	first.Snapshot = models.Fields{"notes": "first"}

	require.NoError(t, store.ApplyMutation(ctx, &storage.Mutation{
		Entity:    entity,
		QueueItem: first,
	}))

	second := testQueueItem("q-2", "quote-1", models.OperationUpdate, models.PriorityCritical)
	second.Snapshot = models.Fields{"notes": "second", "status": "approved"}
	second.EnqueuedAt = testEnqueueBase.Add(time.Minute)

	require.NoError(t, store.ApplyMutation(ctx, &storage.Mutation{
		Entity:    entity,
		QueueItem: second,
	}))

	// В очереди остался один элемент на запись: снимок последний,
	// приоритет повышен, позиция FIFO осталась за первой мутацией
	items, err := store.ListQueue(ctx, true)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "q-1", items[0].ID)
	assert.True(t, items[0].EnqueuedAt.Equal(testEnqueueBase))
	assert.Equal(t, "second", items[0].Snapshot["notes"])
	assert.Equal(t, models.PriorityCritical, items[0].Priority)
}

func TestApplyMutation_DeleteOverCreatePurges(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	entity := testEntity("quote-1")
	create := testQueueItem("q-1", "quote-1", models.OperationCreate, models.PriorityCritical)

	require.NoError(t, store.ApplyMutation(ctx, &storage.Mutation{
		Entity: entity,
		ChangeLog: []*models.ChangeLogEntry{
			{ID: "cl-1", EntityID: "quote-1", FieldPath: "title", Timestamp: time.Now().UTC()},
		},
		QueueItem: create,
	}))

	del := testQueueItem("q-2", "quote-1", models.OperationDelete, models.PriorityHigh)
	del.Snapshot = nil

	require.NoError(t, store.ApplyMutation(ctx, &storage.Mutation{
		QueueItem: del,
	}))

	// Запись никогда не покидала устройство: гасим и запись, и очередь, и журнал
	_, err := store.GetEntity(ctx, "quote-1")
	assert.ErrorIs(t, err, storage.ErrEntityNotFound)

	_, err = store.GetQueueItemByEntity(ctx, "quote-1")
	assert.ErrorIs(t, err, storage.ErrQueueItemNotFound)

	log, err := store.GetChangeLog(ctx, "quote-1")
	require.NoError(t, err)
	assert.Empty(t, log)

	count, err := store.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestApplyMutation_RejectsMutationOverPendingDelete(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	del := testQueueItem("q-1", "quote-1", models.OperationDelete, models.PriorityHigh)
	del.Snapshot = nil
	enqueue(t, store, del)

	update := testQueueItem("q-2", "quote-1", models.OperationUpdate, models.PriorityNormal)

	err := store.ApplyMutation(ctx, &storage.Mutation{
		Entity:    testEntity("quote-1"),
		QueueItem: update,
	})
	require.ErrorIs(t, err, queue.ErrDeletePending)

	// Отклоненная транзакция не оставила следов: записи нет, Delete на месте
	_, err = store.GetEntity(ctx, "quote-1")
	assert.ErrorIs(t, err, storage.ErrEntityNotFound)

	queued, err := store.GetQueueItemByEntity(ctx, "quote-1")
	require.NoError(t, err)
	assert.Equal(t, models.OperationDelete, queued.Operation)
}

func TestApplyMutation_WithoutQueueItem(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	// Применение канонического состояния сервера не ставит ничего в очередь
	entity := testEntity("quote-1")
	entity.SyncStatus = models.SyncStatusSynced

	require.NoError(t, store.ApplyMutation(ctx, &storage.Mutation{Entity: entity}))

	got, err := store.GetEntity(ctx, "quote-1")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusSynced, got.SyncStatus)

	count, err := store.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

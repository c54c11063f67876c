package boltdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/iudanet/fieldkeeper/internal/client/storage"
	"github.com/iudanet/fieldkeeper/internal/models"
	"github.com/iudanet/fieldkeeper/internal/vclock"
)

var testEnqueueBase = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func testQueueItem(id, entityID string, op models.Operation, prio models.Priority) *models.SyncQueueItem {
	return &models.SyncQueueItem{
		EnqueuedAt:    testEnqueueBase,
		ID:            id,
		EntityID:      entityID,
		EntityType:    models.EntityTypeQuote,
		Operation:     op,
		Snapshot:      models.Fields{"title": "Fence repair"},
		VersionVector: vclock.New("device-a"),
		Priority:      prio,
	}
}

// enqueue кладет элемент напрямую, минуя коалесцирование
func enqueue(t *testing.T, store *Storage, item *models.SyncQueueItem) {
	t.Helper()
	require.NoError(t, store.db.Update(func(tx *bbolt.Tx) error {
		return putQueueItemTx(tx, item)
	}))
}

func TestDequeueNext_PriorityThenFIFO(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	low := testQueueItem("q-1", "e-1", models.OperationUpdate, models.PriorityLow)
	low.EnqueuedAt = testEnqueueBase

	critical := testQueueItem("q-2", "e-2", models.OperationCreate, models.PriorityCritical)
	critical.EnqueuedAt = testEnqueueBase.Add(time.Second)

	normalOld := testQueueItem("q-3", "e-3", models.OperationUpdate, models.PriorityNormal)
	normalOld.EnqueuedAt = testEnqueueBase.Add(2 * time.Second)

	normalNew := testQueueItem("q-4", "e-4", models.OperationUpdate, models.PriorityNormal)
	normalNew.EnqueuedAt = testEnqueueBase.Add(3 * time.Second)

	for _, item := range []*models.SyncQueueItem{low, normalNew, critical, normalOld} {
		enqueue(t, store, item)
	}

	items, err := store.DequeueNext(ctx, testEnqueueBase.Add(time.Minute), 0)
	require.NoError(t, err)
	require.Len(t, items, 4)

	// Приоритет по возрастанию, внутри приоритета FIFO по времени постановки
	assert.Equal(t, "q-2", items[0].ID)
	assert.Equal(t, "q-3", items[1].ID)
	assert.Equal(t, "q-4", items[2].ID)
	assert.Equal(t, "q-1", items[3].ID)

	// max ограничивает размер партии
	limited, err := store.DequeueNext(ctx, testEnqueueBase.Add(time.Minute), 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "q-2", limited[0].ID)
}

func TestDequeueNext_SkipsScheduledAndDeadLetter(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	now := testEnqueueBase.Add(time.Minute)

	ready := testQueueItem("q-1", "e-1", models.OperationUpdate, models.PriorityNormal)

	// Элемент в backoff-окне не выдается до наступления NextAttemptAt
	scheduled := testQueueItem("q-2", "e-2", models.OperationUpdate, models.PriorityCritical)
	scheduled.NextAttemptAt = now.Add(30 * time.Second)

	dead := testQueueItem("q-3", "e-3", models.OperationUpdate, models.PriorityCritical)
	dead.DeadLetter = true

	for _, item := range []*models.SyncQueueItem{ready, scheduled, dead} {
		enqueue(t, store, item)
	}

	items, err := store.DequeueNext(ctx, now, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "q-1", items[0].ID)

	// После наступления расписания элемент снова доступен
	items, err = store.DequeueNext(ctx, now.Add(time.Minute), 0)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestGetQueueItemByEntity(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	item := testQueueItem("q-1", "e-1", models.OperationUpdate, models.PriorityNormal)
	enqueue(t, store, item)

	got, err := store.GetQueueItemByEntity(ctx, "e-1")
	require.NoError(t, err)
	assert.Equal(t, "q-1", got.ID)

	_, err = store.GetQueueItemByEntity(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrQueueItemNotFound)
}

func TestUpdateQueueItem_RetryBookkeeping(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	item := testQueueItem("q-1", "e-1", models.OperationUpdate, models.PriorityNormal)
	enqueue(t, store, item)

	item.RetryCount = 2
	item.LastError = "connection refused"
	item.NextAttemptAt = testEnqueueBase.Add(4 * time.Second)
	require.NoError(t, store.UpdateQueueItem(ctx, item))

	got, err := store.GetQueueItem(ctx, "q-1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.RetryCount)
	assert.Equal(t, "connection refused", got.LastError)
	assert.True(t, got.NextAttemptAt.Equal(testEnqueueBase.Add(4*time.Second)))

	missing := testQueueItem("q-404", "e-404", models.OperationUpdate, models.PriorityNormal)
	err = store.UpdateQueueItem(ctx, missing)
	assert.ErrorIs(t, err, storage.ErrQueueItemNotFound)
}

func TestRemoveQueueItem_CleansIndex(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	item := testQueueItem("q-1", "e-1", models.OperationUpdate, models.PriorityNormal)
	enqueue(t, store, item)

	require.NoError(t, store.RemoveQueueItem(ctx, "q-1"))

	_, err := store.GetQueueItem(ctx, "q-1")
	assert.ErrorIs(t, err, storage.ErrQueueItemNotFound)

	// Индекс entityID -> itemID тоже очищен
	_, err = store.GetQueueItemByEntity(ctx, "e-1")
	assert.ErrorIs(t, err, storage.ErrQueueItemNotFound)

	err = store.RemoveQueueItem(ctx, "q-1")
	assert.ErrorIs(t, err, storage.ErrQueueItemNotFound)
}

func TestMarkDeadLetter(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	item := testQueueItem("q-1", "e-1", models.OperationUpdate, models.PriorityNormal)
	enqueue(t, store, item)

	require.NoError(t, store.MarkDeadLetter(ctx, "q-1", "validation failed: unknown field"))

	got, err := store.GetQueueItem(ctx, "q-1")
	require.NoError(t, err)
	assert.True(t, got.DeadLetter)
	assert.Equal(t, "validation failed: unknown field", got.LastError)

	// Dead-letter элемент хранится, но не попадает в выдачу и счетчик
	count, err := store.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	visible, err := store.ListQueue(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, visible)

	all, err := store.ListQueue(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

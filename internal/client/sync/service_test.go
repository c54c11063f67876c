package sync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	gosync "sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpapi "github.com/iudanet/fieldkeeper/internal/client/api"
	"github.com/iudanet/fieldkeeper/internal/client/conflict"
	"github.com/iudanet/fieldkeeper/internal/client/storage"
	"github.com/iudanet/fieldkeeper/internal/client/storage/boltdb"
	"github.com/iudanet/fieldkeeper/internal/models"
	"github.com/iudanet/fieldkeeper/internal/vclock"
	"github.com/iudanet/fieldkeeper/pkg/api"
)

// fakeClock - управляемые часы для проверки персистентного backoff
type fakeClock struct {
	mu gosync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	store    *boltdb.Storage
	client   *httpapi.ClientAPIMock
	svc      Service
	clock    *fakeClock
	deviceID string
}

func newFixture(t *testing.T, client *httpapi.ClientAPIMock) *fixture {
	t.Helper()
	ctx := context.Background()

	store, err := boltdb.New(ctx, filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.SaveSession(ctx, &storage.Session{
		ExpiresAt:   time.Now().Add(time.Hour),
		DeviceName:  "field-tablet",
		AccessToken: "jwt-token",
	}))

	deviceID, err := store.DeviceID(ctx)
	require.NoError(t, err)

	clock := newFakeClock()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewService(store, client, conflict.NewResolver(nil, nil, nil, logger), Config{
		Clock: clock.Now,
	}, logger)

	return &fixture{
		store:    store,
		client:   client,
		svc:      svc,
		clock:    clock,
		deviceID: deviceID,
	}
}

// seedCreate пишет запись и ее Create-элемент очереди одной мутацией
func (f *fixture) seedCreate(t *testing.T, entityID string, fields models.Fields, dependsOn string) {
	t.Helper()

	now := f.clock.Now()
	vv := vclock.New(f.deviceID)

	entity := &models.Entity{
		CreatedAt:     now,
		UpdatedAt:     now,
		ID:            entityID,
		Type:          models.EntityTypeQuote,
		DeviceID:      f.deviceID,
		Fields:        fields.Clone(),
		VersionVector: vv,
		SyncStatus:    models.SyncStatusPending,
	}
	item := &models.SyncQueueItem{
		EnqueuedAt:        now,
		ID:                uuid.New().String(),
		EntityID:          entityID,
		EntityType:        models.EntityTypeQuote,
		Operation:         models.OperationCreate,
		DependsOnEntityID: dependsOn,
		Snapshot:          fields.Clone(),
		VersionVector:     vv.Clone(),
		Priority:          models.PriorityCritical,
	}

	require.NoError(t, f.store.ApplyMutation(context.Background(), &storage.Mutation{
		Entity:    entity,
		QueueItem: item,
	}))
}

// coalesceUpdate имитирует локальную правку: новый снимок и инкремент
// вектора коалесцируются в уже стоящий элемент очереди одной мутацией
func (f *fixture) coalesceUpdate(t *testing.T, entityID string, fields models.Fields) {
	t.Helper()
	ctx := context.Background()

	entity, err := f.store.GetEntity(ctx, entityID)
	require.NoError(t, err)

	now := f.clock.Now()
	entity.Fields = fields.Clone()
	entity.VersionVector = vclock.Increment(entity.VersionVector, f.deviceID)
	entity.UpdatedAt = now
	entity.SyncStatus = models.SyncStatusPending

	item := &models.SyncQueueItem{
		EnqueuedAt:    now,
		ID:            uuid.New().String(),
		EntityID:      entityID,
		EntityType:    entity.Type,
		Operation:     models.OperationUpdate,
		Snapshot:      entity.Fields.Clone(),
		VersionVector: entity.VersionVector.Clone(),
		Priority:      models.PriorityNormal,
	}

	require.NoError(t, f.store.ApplyMutation(ctx, &storage.Mutation{
		Entity:    entity,
		QueueItem: item,
	}))
}

// appliedResults отвечает "applied" на каждый элемент партии
func appliedResults(req api.BatchSyncRequest) *api.BatchSyncResponse {
	resp := &api.BatchSyncResponse{}
	for _, it := range req.Items {
		resp.Results = append(resp.Results, api.SyncItemResult{
			EntityID:            it.EntityID,
			Status:              api.ItemApplied,
			RemoteVersionVector: it.VersionVector,
		})
	}
	return resp
}

// Сценарий: запись создана полностью офлайн, затем появился сервер.
// Ровно один сетевой вызов, итог Synced, очередь пуста.
func TestSyncCycle_OfflineCreateThenOnline(t *testing.T) {
	client := &httpapi.ClientAPIMock{
		BatchSyncFunc: func(ctx context.Context, token string, req api.BatchSyncRequest) (*api.BatchSyncResponse, error) {
			assert.Equal(t, "jwt-token", token)
			return appliedResults(req), nil
		},
	}
	f := newFixture(t, client)
	ctx := context.Background()

	f.seedCreate(t, "quote-a", models.Fields{"title": "Fence repair"}, "")

	result, err := f.svc.SyncCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 1, result.Applied)

	assert.Len(t, client.BatchSyncCalls(), 1)

	entity, err := f.store.GetEntity(ctx, "quote-a")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusSynced, entity.SyncStatus)

	count, err := f.store.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Журнал изменений поглощен успешной синхронизацией
	log, err := f.store.GetChangeLog(ctx, "quote-a")
	require.NoError(t, err)
	assert.Empty(t, log)

	// Повторный цикл не делает сетевых вызовов
	result, err = f.svc.SyncCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Sent)
	assert.Len(t, client.BatchSyncCalls(), 1)
}

// Сценарий: ребенок создан до завершения синхронизации родителя.
// Ребенок удерживается и уходит только после того, как элемент родителя
// покинул очередь - строго в этом порядке вызовов.
func TestSyncCycle_DependencyOrdering(t *testing.T) {
	client := &httpapi.ClientAPIMock{
		BatchSyncFunc: func(ctx context.Context, token string, req api.BatchSyncRequest) (*api.BatchSyncResponse, error) {
			return appliedResults(req), nil
		},
	}
	f := newFixture(t, client)
	ctx := context.Background()

	f.seedCreate(t, "quote-a", models.Fields{"title": "parent"}, "")
	f.seedCreate(t, "item-b", models.Fields{"desc": "child"}, "quote-a")

	// Первый цикл: родитель отправлен, ребенок удержан
	result, err := f.svc.SyncCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 1, result.Held)

	// Второй цикл: зависимость разрешена, уходит ребенок
	result, err = f.svc.SyncCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 0, result.Held)

	calls := client.BatchSyncCalls()
	require.Len(t, calls, 2)
	require.Len(t, calls[0].Req.Items, 1)
	require.Len(t, calls[1].Req.Items, 1)
	assert.Equal(t, "quote-a", calls[0].Req.Items[0].EntityID)
	assert.Equal(t, "item-b", calls[1].Req.Items[0].EntityID)

	for _, id := range []string{"quote-a", "item-b"} {
		entity, err := f.store.GetEntity(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.SyncStatusSynced, entity.SyncStatus, id)
	}
}

// Сценарий: сервер трижды отвечает 500, затем принимает.
// Наблюдаемый backoff не меньше лестницы 1s, 2s, 4s; расписание
// персистентно; запись в итоге Synced.
func TestSyncCycle_TransientBackoffThenSuccess(t *testing.T) {
	failures := 3
	client := &httpapi.ClientAPIMock{
		BatchSyncFunc: func(ctx context.Context, token string, req api.BatchSyncRequest) (*api.BatchSyncResponse, error) {
			if failures > 0 {
				failures--
				return nil, &httpapi.TransientError{Err: errors.New("server error (500)")}
			}
			return appliedResults(req), nil
		},
	}
	f := newFixture(t, client)
	ctx := context.Background()

	f.seedCreate(t, "quote-a", models.Fields{"title": "Fence repair"}, "")

	expectedDelays := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	for attempt, delay := range expectedDelays {
		result, err := f.svc.SyncCycle(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Transient, "attempt %d", attempt+1)

		item, err := f.store.GetQueueItemByEntity(ctx, "quote-a")
		require.NoError(t, err)
		assert.Equal(t, attempt+1, item.RetryCount)
		assert.True(t, item.NextAttemptAt.Equal(f.clock.Now().Add(delay)),
			"attempt %d: want next attempt at +%v, got %v", attempt+1, delay, item.NextAttemptAt)
		assert.NotEmpty(t, item.LastError)

		// До наступления расписания элемент не отправляется
		result, err = f.svc.SyncCycle(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Sent)

		f.clock.Advance(delay)
	}

	// Четвертая попытка успешна
	result, err := f.svc.SyncCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Applied)

	assert.Len(t, client.BatchSyncCalls(), 4)

	entity, err := f.store.GetEntity(ctx, "quote-a")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusSynced, entity.SyncStatus)
}

// Сценарий: пользователь правит запись, пока партия в полете, и сервер
// отвечает временным сбоем. Перепланирование не откатывает
// коалесцированный снимок - на сервер уходит свежая правка, а не
// устаревший payload поверх нее.
func TestSyncCycle_EditDuringInFlightTransientKeepsNewerSnapshot(t *testing.T) {
	var f *fixture
	calls := 0
	client := &httpapi.ClientAPIMock{
		BatchSyncFunc: func(ctx context.Context, token string, req api.BatchSyncRequest) (*api.BatchSyncResponse, error) {
			calls++
			if calls == 1 {
				// Правка приходит, пока партия в полете
				f.coalesceUpdate(t, "quote-a", models.Fields{"title": "v2-newer-edit"})
				return nil, &httpapi.TransientError{Err: errors.New("server error (500)")}
			}
			return appliedResults(req), nil
		},
	}
	f = newFixture(t, client)
	ctx := context.Background()

	f.seedCreate(t, "quote-a", models.Fields{"title": "v1-original"}, "")

	result, err := f.svc.SyncCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Transient)

	// Коалесцированный элемент не тронут: снимок, вектор и сброшенное
	// расписание повторов сохранены
	item, err := f.store.GetQueueItemByEntity(ctx, "quote-a")
	require.NoError(t, err)
	assert.Equal(t, "v2-newer-edit", item.Snapshot["title"])
	assert.Equal(t, uint64(2), item.VersionVector.Counter(f.deviceID))
	assert.Equal(t, 0, item.RetryCount)

	// Следующий цикл отправляет именно свежую правку
	result, err = f.svc.SyncCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Applied)

	batches := client.BatchSyncCalls()
	require.Len(t, batches, 2)
	require.Len(t, batches[1].Req.Items, 1)
	assert.Equal(t, "v2-newer-edit", batches[1].Req.Items[0].Payload["title"])

	entity, err := f.store.GetEntity(ctx, "quote-a")
	require.NoError(t, err)
	assert.Equal(t, "v2-newer-edit", entity.Fields["title"])
	assert.Equal(t, models.SyncStatusSynced, entity.SyncStatus)

	count, err := f.store.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

// Правка, коалесцированная пока отклоненная партия была в полете,
// не наследует dead-letter устаревшего снимка
func TestSyncCycle_EditDuringInFlightRejectedStaysQueued(t *testing.T) {
	var f *fixture
	calls := 0
	client := &httpapi.ClientAPIMock{
		BatchSyncFunc: func(ctx context.Context, token string, req api.BatchSyncRequest) (*api.BatchSyncResponse, error) {
			calls++
			if calls == 1 {
				f.coalesceUpdate(t, "quote-a", models.Fields{"title": "v2-newer-edit"})
				resp := &api.BatchSyncResponse{}
				for _, it := range req.Items {
					resp.Results = append(resp.Results, api.SyncItemResult{
						EntityID: it.EntityID,
						Status:   api.ItemRejected,
						Error:    "validation failed",
					})
				}
				return resp, nil
			}
			return appliedResults(req), nil
		},
	}
	f = newFixture(t, client)
	ctx := context.Background()

	f.seedCreate(t, "quote-a", models.Fields{"title": "v1-original"}, "")

	_, err := f.svc.SyncCycle(ctx)
	require.NoError(t, err)

	item, err := f.store.GetQueueItemByEntity(ctx, "quote-a")
	require.NoError(t, err)
	assert.False(t, item.DeadLetter)
	assert.Equal(t, "v2-newer-edit", item.Snapshot["title"])

	// Свежая правка уходит своим чередом
	result, err := f.svc.SyncCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Applied)

	entity, err := f.store.GetEntity(ctx, "quote-a")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusSynced, entity.SyncStatus)
}

// Временный сбой уводит элемент в dead-letter только после исчерпания
// бюджета повторов (по умолчанию 6 запланированных повторов)
func TestSyncCycle_TransientExhaustsToDeadLetter(t *testing.T) {
	client := &httpapi.ClientAPIMock{
		BatchSyncFunc: func(ctx context.Context, token string, req api.BatchSyncRequest) (*api.BatchSyncResponse, error) {
			return nil, &httpapi.TransientError{Err: errors.New("connection refused")}
		},
	}
	f := newFixture(t, client)
	ctx := context.Background()

	f.seedCreate(t, "quote-a", models.Fields{"title": "x"}, "")

	for attempt := 1; attempt <= DefaultMaxAttempts; attempt++ {
		result, err := f.svc.SyncCycle(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, result.Sent, "attempt %d", attempt)

		item, err := f.store.GetQueueItemByEntity(ctx, "quote-a")
		require.NoError(t, err)
		require.False(t, item.DeadLetter, "attempt %d", attempt)

		f.clock.Advance(2 * time.Minute)
	}

	// Шестой повтор запланирован по верхней ступени лестницы
	item, err := f.store.GetQueueItemByEntity(ctx, "quote-a")
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxAttempts, item.RetryCount)

	// Следующий сбой исчерпывает бюджет
	result, err := f.svc.SyncCycle(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, result.Sent)

	assert.Len(t, client.BatchSyncCalls(), DefaultMaxAttempts+1)

	// Элемент в dead-letter: хранится, но не отправляется
	items, err := f.store.ListQueue(ctx, true)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].DeadLetter)
	assert.Contains(t, items[0].LastError, "retries exhausted")

	result, err = f.svc.SyncCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Sent)

	status, err := f.svc.Status(ctx, "quote-a")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusError, status)
}

// Постоянный отказ сервера dead-letter-ит с первой попытки и
// каскадирует на зависимые элементы
func TestSyncCycle_RejectedDeadLettersImmediatelyWithCascade(t *testing.T) {
	client := &httpapi.ClientAPIMock{
		BatchSyncFunc: func(ctx context.Context, token string, req api.BatchSyncRequest) (*api.BatchSyncResponse, error) {
			resp := &api.BatchSyncResponse{}
			for _, it := range req.Items {
				resp.Results = append(resp.Results, api.SyncItemResult{
					EntityID: it.EntityID,
					Status:   api.ItemRejected,
					Error:    "validation failed: unknown field",
				})
			}
			return resp, nil
		},
	}
	f := newFixture(t, client)
	ctx := context.Background()

	f.seedCreate(t, "quote-a", models.Fields{"title": "parent"}, "")
	f.seedCreate(t, "item-b", models.Fields{"desc": "child"}, "quote-a")

	result, err := f.svc.SyncCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.DeadLettered)

	// Ровно одна попытка, и родитель, и зависимый ребенок в dead-letter
	assert.Len(t, client.BatchSyncCalls(), 1)

	items, err := f.store.ListQueue(ctx, true)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.True(t, item.DeadLetter, item.EntityID)
		assert.NotEmpty(t, item.LastError)
	}

	// RetryNow возвращает элемент в автоматическую синхронизацию
	require.NoError(t, f.svc.RetryNow(ctx, "quote-a"))

	item, err := f.store.GetQueueItemByEntity(ctx, "quote-a")
	require.NoError(t, err)
	assert.False(t, item.DeadLetter)
	assert.Equal(t, 0, item.RetryCount)
}

// Сценарий: два устройства конкурентно правят статус.
// Создается ConflictRecord, запись остается в Conflict, ни одно поле
// не перезаписывается молча.
func TestSyncCycle_StatusConflictRequiresManual(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.seedCreate(t, "quote-a", models.Fields{"status": "approved"}, "")

	// Журнал фиксирует локальную правку статуса
	require.NoError(t, f.store.AppendChangeLog(ctx, []*models.ChangeLogEntry{{
		ID:        uuid.New().String(),
		EntityID:  "quote-a",
		FieldPath: "status",
		OldValue:  "draft",
		NewValue:  "approved",
		DeviceID:  f.deviceID,
		Timestamp: f.clock.Now(),
	}}))

	remoteVV := map[string]uint64{"device-remote": 1}
	client := &httpapi.ClientAPIMock{
		BatchSyncFunc: func(ctx context.Context, token string, req api.BatchSyncRequest) (*api.BatchSyncResponse, error) {
			return &api.BatchSyncResponse{Results: []api.SyncItemResult{{
				EntityID: "quote-a",
				Status:   api.ItemConflict,
				CanonicalEntity: &api.CanonicalEntity{
					UpdatedAt:     f.clock.Now(),
					EntityID:      "quote-a",
					EntityType:    models.EntityTypeQuote,
					DeviceID:      "device-remote",
					Payload:       map[string]any{"status": "rejected"},
					VersionVector: remoteVV,
				},
				RemoteVersionVector: remoteVV,
			}}}, nil
		},
	}
	svc := NewService(f.store, client, conflict.NewResolver(nil, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil))), Config{Clock: f.clock.Now}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	result, err := svc.SyncCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Conflicts)

	// Конфликт зафиксирован, оба снимка сохранены
	record, err := f.store.GetConflict(ctx, "quote-a")
	require.NoError(t, err)
	assert.Equal(t, models.ResolutionManualRequired, record.Strategy)
	assert.Equal(t, "approved", record.LocalSnapshot["status"])
	assert.Equal(t, "rejected", record.RemoteSnapshot["status"])
	assert.Nil(t, record.ResolvedAt)

	status, err := svc.Status(ctx, "quote-a")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusConflict, status)

	// Запись исключена из автоматической синхронизации
	result, err = svc.SyncCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Sent)

	// Решение пользователя: принять серверную версию
	require.NoError(t, svc.ResolveConflict(ctx, "quote-a", models.ChoiceAcceptRemote))

	entity, err := f.store.GetEntity(ctx, "quote-a")
	require.NoError(t, err)
	assert.Equal(t, "rejected", entity.Fields["status"])
	assert.Equal(t, models.SyncStatusPending, entity.SyncStatus)

	// Новый вектор доминирует над обоими источниками
	assert.True(t, entity.VersionVector.Dominates(record.LocalVector))
	assert.True(t, entity.VersionVector.Dominates(vclock.VersionVector(remoteVV)))

	resolved, err := f.store.GetConflict(ctx, "quote-a")
	require.NoError(t, err)
	assert.Equal(t, models.ResolutionManualResolved, resolved.Strategy)
	assert.NotNil(t, resolved.ResolvedAt)
}

// Сценарий: два устройства правят непересекающиеся поля.
// Слитый результат содержит обе правки, вектор доминирует над обоими
// источниками, запись доходит до Synced вторым проходом.
func TestSyncCycle_DisjointConcurrentEditsAutoMerge(t *testing.T) {
	calls := 0
	remoteVV := map[string]uint64{"device-remote": 1}
	client := &httpapi.ClientAPIMock{
		BatchSyncFunc: func(ctx context.Context, token string, req api.BatchSyncRequest) (*api.BatchSyncResponse, error) {
			calls++
			if calls == 1 {
				return &api.BatchSyncResponse{Results: []api.SyncItemResult{{
					EntityID: "quote-a",
					Status:   api.ItemConflict,
					CanonicalEntity: &api.CanonicalEntity{
						UpdatedAt:  time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
						EntityID:   "quote-a",
						EntityType: models.EntityTypeQuote,
						DeviceID:   "device-remote",
						Payload: map[string]any{
							"title":   "Fence repair",
							"address": "12 Oak Lane", // серверная правка
						},
						VersionVector: remoteVV,
					},
					RemoteVersionVector: remoteVV,
				}}}, nil
			}
			return appliedResults(req), nil
		},
	}
	f := newFixture(t, client)
	ctx := context.Background()

	f.seedCreate(t, "quote-a", models.Fields{
		"title":   "Fence repair (urgent)", // локальная правка
		"address": "",
	}, "")

	// Локально правили только title; до правки он совпадал с серверным
	require.NoError(t, f.store.AppendChangeLog(ctx, []*models.ChangeLogEntry{{
		ID:        uuid.New().String(),
		EntityID:  "quote-a",
		FieldPath: "title",
		OldValue:  "Fence repair",
		NewValue:  "Fence repair (urgent)",
		DeviceID:  f.deviceID,
		Timestamp: f.clock.Now(),
	}}))

	// Первый проход: конфликт, автослияние, запись снова Pending
	result, err := f.svc.SyncCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Conflicts)

	entity, err := f.store.GetEntity(ctx, "quote-a")
	require.NoError(t, err)
	assert.Equal(t, "Fence repair (urgent)", entity.Fields["title"])
	assert.Equal(t, "12 Oak Lane", entity.Fields["address"])
	assert.True(t, entity.VersionVector.Dominates(vclock.VersionVector(remoteVV)))
	assert.Equal(t, models.SyncStatusPending, entity.SyncStatus)

	// Второй проход закрепляет слитый результат на сервере
	result, err = f.svc.SyncCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Applied)

	entity, err = f.store.GetEntity(ctx, "quote-a")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusSynced, entity.SyncStatus)

	count, err := f.store.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

// Цикл без сессии не делает сетевых вызовов
func TestSyncCycle_SkippedWithoutSession(t *testing.T) {
	client := &httpapi.ClientAPIMock{}
	f := newFixture(t, client)
	ctx := context.Background()

	require.NoError(t, f.store.DeleteSession(ctx))
	f.seedCreate(t, "quote-a", models.Fields{"title": "x"}, "")

	result, err := f.svc.SyncCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Sent)
	assert.Empty(t, client.BatchSyncCalls())
}

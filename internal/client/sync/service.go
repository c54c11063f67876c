// Package sync содержит оркестратор синхронизации: фоновый цикл, который
// забирает готовые элементы durable-очереди, отправляет их на сервер одной
// партией и классифицирует по-элементные результаты. Оркестратор никогда
// не блокирует локальные записи - наружу состояние видно только через
// поток статусов.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	httpapi "github.com/iudanet/fieldkeeper/internal/client/api"
	"github.com/iudanet/fieldkeeper/internal/client/conflict"
	"github.com/iudanet/fieldkeeper/internal/client/deps"
	"github.com/iudanet/fieldkeeper/internal/client/queue"
	"github.com/iudanet/fieldkeeper/internal/client/storage"
	"github.com/iudanet/fieldkeeper/internal/models"
	"github.com/iudanet/fieldkeeper/internal/vclock"
	"github.com/iudanet/fieldkeeper/pkg/api"
)

//go:generate moq -out service_mock.go . Service

// DefaultTickInterval - период фонового цикла синхронизации
const DefaultTickInterval = 30 * time.Second

// Service определяет интерфейс оркестратора для CLI и UI
type Service interface {
	// Run запускает фоновый цикл до отмены контекста
	Run(ctx context.Context) error

	// Kick запрашивает внеочередной цикл синхронизации
	Kick()

	// SyncCycle выполняет один цикл: checkout, отправка, классификация
	SyncCycle(ctx context.Context) (*SyncResult, error)

	// RetryNow сбрасывает расписание повторов записи (включая dead-letter)
	// и запрашивает немедленный цикл
	RetryNow(ctx context.Context, entityID string) error

	// ResolveConflict применяет решение пользователя к конфликту
	ResolveConflict(ctx context.Context, entityID string, choice models.ConflictChoice) error

	// PendingCount возвращает количество изменений, ожидающих отправки
	PendingCount(ctx context.Context) (int, error)

	// SubscribeStatus подписывает на изменения статуса записи
	SubscribeStatus(entityID string) (<-chan models.SyncStatus, func())

	// Status возвращает текущий статус синхронизации записи
	Status(ctx context.Context, entityID string) (models.SyncStatus, error)
}

// SyncResult contains per-cycle counters
type SyncResult struct {
	Sent         int // отправлено на сервер
	Applied      int // принято сервером
	Conflicts    int // конкурентные версии, ушли в resolver
	Transient    int // временные сбои, перепланированы
	DeadLettered int // постоянные отказы
	Held         int // удержаны неразрешенной зависимостью
}

// Config настраивает оркестратор
type Config struct {
	Clock          func() time.Time
	Backoff        BackoffPolicy
	TickInterval   time.Duration
	MaxConcurrency int
}

type service struct {
	store    storage.Storage
	client   httpapi.ClientAPI
	manager  *queue.Manager
	deps     *deps.Resolver
	resolver *conflict.Resolver
	hub      *StatusHub
	logger   *slog.Logger
	now      func() time.Time
	kick     chan struct{}
	backoff  BackoffPolicy
	tick     time.Duration
}

// NewService creates the sync orchestrator
func NewService(store storage.Storage, client httpapi.ClientAPI, resolver *conflict.Resolver, cfg Config, logger *slog.Logger) Service {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.Backoff.MaxAttempts == 0 {
		cfg.Backoff = DefaultBackoffPolicy()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	s := &service{
		store:    store,
		client:   client,
		manager:  queue.NewManager(store, logger, cfg.MaxConcurrency),
		deps:     deps.NewResolver(store, logger),
		resolver: resolver,
		hub:      NewStatusHub(),
		logger:   logger,
		now:      cfg.Clock,
		kick:     make(chan struct{}, 1),
		backoff:  cfg.Backoff,
		tick:     cfg.TickInterval,
	}

	// Стартовый пинок: очередь могла пережить рестарт непустой
	s.Kick()

	return s
}

// Run запускает фоновый цикл синхронизации.
// Триггеры: периодический тикер, Kick (переход online, ручной повтор,
// новая мутация) и стартовый пинок.
func (s *service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-s.kick:
		}

		if _, err := s.SyncCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("sync cycle failed", "error", err)
		}
	}
}

// Kick запрашивает внеочередной цикл. Неблокирующий: повторные пинки
// до начала цикла схлопываются в один.
func (s *service) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// SyncCycle выполняет один проход очереди.
func (s *service) SyncCycle(ctx context.Context) (*SyncResult, error) {
	result := &SyncResult{}

	session, err := s.store.GetSession(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			s.logger.Debug("sync skipped: device is not logged in")
			return result, nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	deviceID, err := s.store.DeviceID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load device id: %w", err)
	}

	now := s.now()

	checked, err := s.manager.Checkout(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("queue checkout failed: %w", err)
	}

	// Элементы с неразрешенной зависимостью удерживаются на месте:
	// не переупорядочиваются и не отбрасываются
	var batch []*models.SyncQueueItem
	for _, item := range checked {
		eligible, err := s.deps.Eligible(ctx, item)
		if err != nil {
			s.manager.Release(item.EntityID)
			return nil, err
		}
		if !eligible {
			result.Held++
			s.manager.Release(item.EntityID)
			continue
		}
		batch = append(batch, item)
	}

	if len(batch) == 0 {
		return result, nil
	}

	defer func() {
		for _, item := range batch {
			s.manager.Release(item.EntityID)
		}
	}()

	for _, item := range batch {
		s.markSyncing(ctx, item.EntityID)
	}
	result.Sent = len(batch)

	resp, err := s.client.BatchSync(ctx, session.AccessToken, s.buildRequest(ctx, batch, deviceID))
	if err != nil {
		if httpapi.IsTransient(err) {
			for _, item := range batch {
				if herr := s.handleTransient(ctx, item, now, err); herr != nil {
					return nil, herr
				}
			}
			result.Transient = len(batch)
			return result, nil
		}
		return nil, fmt.Errorf("batch sync failed: %w", err)
	}

	byEntity := make(map[string]*models.SyncQueueItem, len(batch))
	for _, item := range batch {
		byEntity[item.EntityID] = item
	}

	for i := range resp.Results {
		res := &resp.Results[i]
		item, ok := byEntity[res.EntityID]
		if !ok {
			continue
		}

		switch res.Status {
		case api.ItemApplied:
			if err := s.handleApplied(ctx, item, res); err != nil {
				return nil, err
			}
			result.Applied++
		case api.ItemConflict:
			if err := s.handleConflict(ctx, item, res, deviceID, now); err != nil {
				return nil, err
			}
			result.Conflicts++
		case api.ItemRejected:
			if err := s.handleRejected(ctx, item, res); err != nil {
				return nil, err
			}
			result.DeadLettered++
		}
	}

	s.logger.Info("sync cycle finished",
		"sent", result.Sent,
		"applied", result.Applied,
		"conflicts", result.Conflicts,
		"transient", result.Transient,
		"dead_lettered", result.DeadLettered,
		"held", result.Held,
	)

	return result, nil
}

// buildRequest собирает batch-запрос из элементов очереди
func (s *service) buildRequest(ctx context.Context, batch []*models.SyncQueueItem, deviceID string) api.BatchSyncRequest {
	items := make([]api.SyncItem, 0, len(batch))
	for _, item := range batch {
		parentID := ""
		if entity, err := s.store.GetEntity(ctx, item.EntityID); err == nil {
			parentID = entity.ParentID
		}

		items = append(items, api.SyncItem{
			ClientTimestamp: item.EnqueuedAt,
			EntityID:        item.EntityID,
			EntityType:      item.EntityType,
			Operation:       string(item.Operation),
			ParentID:        parentID,
			DeviceID:        deviceID,
			Payload:         map[string]any(item.Snapshot),
			VersionVector:   map[string]uint64(item.VersionVector),
		})
	}
	return api.BatchSyncRequest{Items: items}
}

// reloadCurrent перечитывает элемент очереди записи после полета партии.
// Пока элемент был в полете, запись могла мутировать: коалесцирование
// подменило снимок, вектор или операцию в том же элементе. Тогда результат
// сервера относится к уже несуществующей версии - элемент остается в
// очереди нетронутым и уйдет следующим циклом. Возвращает актуальный
// элемент (nil, если очередь записи опустела) и признак устаревания.
func (s *service) reloadCurrent(ctx context.Context, sent *models.SyncQueueItem) (*models.SyncQueueItem, bool, error) {
	current, err := s.store.GetQueueItemByEntity(ctx, sent.EntityID)
	if err != nil {
		if errors.Is(err, storage.ErrQueueItemNotFound) {
			return nil, true, nil
		}
		return nil, false, fmt.Errorf("failed to reload queue item: %w", err)
	}

	if current.ID != sent.ID ||
		current.Operation != sent.Operation ||
		vclock.Compare(sent.VersionVector, current.VersionVector) == vclock.Before {
		return current, true, nil
	}

	return current, false, nil
}

// handleApplied фиксирует принятую сервером мутацию: сливает векторы,
// применяет канонический снимок, чистит журнал и убирает элемент очереди.
func (s *service) handleApplied(ctx context.Context, sent *models.SyncQueueItem, res *api.SyncItemResult) error {
	current, stale, err := s.reloadCurrent(ctx, sent)
	if err != nil {
		return err
	}
	if stale {
		if current != nil {
			s.hub.Publish(sent.EntityID, models.SyncStatusPending)
		}
		return nil
	}

	if err := s.store.RemoveQueueItem(ctx, current.ID); err != nil {
		return fmt.Errorf("failed to remove synced queue item: %w", err)
	}
	if err := s.store.PruneChangeLog(ctx, sent.EntityID); err != nil {
		return fmt.Errorf("failed to prune change log: %w", err)
	}

	if sent.Operation == models.OperationDelete {
		// Локально запись уже удалена
		s.hub.Publish(sent.EntityID, models.SyncStatusSynced)
		return nil
	}

	entity, err := s.store.GetEntity(ctx, sent.EntityID)
	if err != nil {
		if errors.Is(err, storage.ErrEntityNotFound) {
			// Удалена локально, устаревший результат отбрасывается
			return nil
		}
		return fmt.Errorf("failed to load entity: %w", err)
	}

	entity.VersionVector = vclock.Merge(entity.VersionVector, vclock.VersionVector(res.RemoteVersionVector))
	if res.CanonicalEntity != nil {
		entity.Fields = models.Fields(res.CanonicalEntity.Payload).Clone()
		entity.UpdatedAt = res.CanonicalEntity.UpdatedAt
	}
	entity.SyncStatus = models.SyncStatusSynced

	if err := s.store.PutEntity(ctx, entity); err != nil {
		return fmt.Errorf("failed to commit synced entity: %w", err)
	}

	s.hub.Publish(sent.EntityID, models.SyncStatusSynced)
	return nil
}

// handleConflict направляет конкурентные версии в resolver.
// Автослияние возвращает запись в Pending на еще один проход;
// ручной конфликт исключает запись из автоматической синхронизации.
func (s *service) handleConflict(ctx context.Context, sent *models.SyncQueueItem, res *api.SyncItemResult, deviceID string, now time.Time) error {
	// Устаревший вердикт не разрешается: свежая мутация в очереди сама
	// получит актуальный ответ сервера
	current, stale, err := s.reloadCurrent(ctx, sent)
	if err != nil {
		return err
	}
	if stale {
		if current != nil {
			s.hub.Publish(sent.EntityID, models.SyncStatusPending)
		}
		return nil
	}

	if res.CanonicalEntity == nil {
		return s.handleTransient(ctx, sent, now, errors.New("conflict result without canonical entity"))
	}

	local, err := s.store.GetEntity(ctx, sent.EntityID)
	if err != nil {
		if errors.Is(err, storage.ErrEntityNotFound) {
			// Запись удалена локально: элемент очереди уже стал Delete
			// и разрешит конфликт следующим циклом
			return nil
		}
		return fmt.Errorf("failed to load entity: %w", err)
	}

	localLog, err := s.store.GetChangeLog(ctx, sent.EntityID)
	if err != nil {
		return fmt.Errorf("failed to load change log: %w", err)
	}

	remote := canonicalToEntity(res.CanonicalEntity)
	resolution := s.resolver.Resolve(local, remote, localLog, deviceID, now)

	if resolution.Strategy == models.ResolutionManualRequired {
		if err := s.store.SaveConflict(ctx, resolution.Record); err != nil {
			return fmt.Errorf("failed to save conflict record: %w", err)
		}
		// Запись выходит из автоматической синхронизации до решения
		if err := s.store.RemoveQueueItem(ctx, sent.ID); err != nil && !errors.Is(err, storage.ErrQueueItemNotFound) {
			return fmt.Errorf("failed to park conflicted queue item: %w", err)
		}
		s.setStatus(ctx, sent.EntityID, models.SyncStatusConflict)
		return nil
	}

	// Автослияние: слитая запись и слитый снимок идут на еще один проход
	item := &models.SyncQueueItem{
		EnqueuedAt:    now,
		ID:            uuid.New().String(),
		EntityID:      sent.EntityID,
		EntityType:    sent.EntityType,
		Operation:     models.OperationUpdate,
		Snapshot:      resolution.Merged.Fields.Clone(),
		VersionVector: resolution.Merged.VersionVector.Clone(),
		Priority:      sent.Priority,
	}

	if err := s.store.ApplyMutation(ctx, &storage.Mutation{
		Entity:    resolution.Merged,
		QueueItem: item,
	}); err != nil {
		return fmt.Errorf("failed to apply auto-merge: %w", err)
	}

	if len(resolution.ConflictingFields) > 0 {
		if err := s.store.SaveConflict(ctx, resolution.Record); err != nil {
			return fmt.Errorf("failed to record auto-merge: %w", err)
		}
	}

	s.hub.Publish(sent.EntityID, models.SyncStatusPending)
	return nil
}

// handleRejected переводит постоянный отказ в dead-letter с первой попытки
// и каскадирует dead-letter на зависимые элементы.
func (s *service) handleRejected(ctx context.Context, sent *models.SyncQueueItem, res *api.SyncItemResult) error {
	// Отказ относится к отправленному снимку; коалесцированная в полете
	// правка не наследует его dead-letter
	current, stale, err := s.reloadCurrent(ctx, sent)
	if err != nil {
		return err
	}
	if stale {
		if current != nil {
			s.hub.Publish(sent.EntityID, models.SyncStatusPending)
		}
		return nil
	}

	reason := res.Error
	if reason == "" {
		reason = "rejected by server"
	}

	if err := s.store.MarkDeadLetter(ctx, current.ID, reason); err != nil {
		return fmt.Errorf("failed to dead-letter rejected item: %w", err)
	}
	if err := s.deps.CascadeDeadLetter(ctx, sent.EntityID, reason); err != nil {
		return err
	}

	s.setStatus(ctx, sent.EntityID, models.SyncStatusError)

	s.logger.Warn("queue item rejected by server",
		"entity_id", sent.EntityID,
		"reason", reason,
	)
	return nil
}

// handleTransient перепланирует элемент по лестнице backoff; исчерпанный
// бюджет попыток уводит элемент в dead-letter. Перепланируется актуальный
// элемент очереди, а не отправленная копия: запись могла мутировать, пока
// партия была в полете, и откат снимка потерял бы правку.
func (s *service) handleTransient(ctx context.Context, sent *models.SyncQueueItem, now time.Time, cause error) error {
	current, stale, err := s.reloadCurrent(ctx, sent)
	if err != nil {
		return err
	}
	if stale {
		// Свежая мутация уже стоит в очереди со сброшенным расписанием
		if current != nil {
			s.hub.Publish(sent.EntityID, models.SyncStatusPending)
		}
		return nil
	}

	retry := current.RetryCount + 1

	if s.backoff.Exhausted(retry) {
		reason := fmt.Sprintf("retries exhausted after %d attempts: %v", retry, cause)
		if err := s.store.MarkDeadLetter(ctx, current.ID, reason); err != nil {
			return fmt.Errorf("failed to dead-letter exhausted item: %w", err)
		}
		if err := s.deps.CascadeDeadLetter(ctx, current.EntityID, reason); err != nil {
			return err
		}
		s.setStatus(ctx, current.EntityID, models.SyncStatusError)
		return nil
	}

	current.RetryCount = retry
	current.NextAttemptAt = s.backoff.NextAttempt(now, retry)
	current.LastError = cause.Error()

	if err := s.store.UpdateQueueItem(ctx, current); err != nil {
		return fmt.Errorf("failed to reschedule queue item: %w", err)
	}

	s.setStatus(ctx, current.EntityID, models.SyncStatusPending)

	s.logger.Debug("queue item rescheduled",
		"entity_id", current.EntityID,
		"retry", retry,
		"next_attempt_at", current.NextAttemptAt,
	)
	return nil
}

// RetryNow сбрасывает расписание элемента (и dead-letter) и пинает цикл.
func (s *service) RetryNow(ctx context.Context, entityID string) error {
	item, err := s.store.GetQueueItemByEntity(ctx, entityID)
	if err != nil {
		return fmt.Errorf("nothing queued for entity %s: %w", entityID, err)
	}

	item.DeadLetter = false
	item.RetryCount = 0
	item.NextAttemptAt = time.Time{}
	item.LastError = ""

	if err := s.store.UpdateQueueItem(ctx, item); err != nil {
		return fmt.Errorf("failed to requeue item: %w", err)
	}

	s.setStatus(ctx, entityID, models.SyncStatusPending)
	s.Kick()
	return nil
}

// ResolveConflict применяет выбор пользователя: выбранный снимок становится
// новой мутацией с вектором, доминирующим над обоими источниками.
func (s *service) ResolveConflict(ctx context.Context, entityID string, choice models.ConflictChoice) error {
	record, err := s.store.GetConflict(ctx, entityID)
	if err != nil {
		return err
	}
	if record.ResolvedAt != nil {
		return fmt.Errorf("conflict for entity %s is already resolved", entityID)
	}

	var fields models.Fields
	switch choice {
	case models.ChoiceAcceptLocal:
		fields = record.LocalSnapshot
	case models.ChoiceAcceptRemote:
		fields = record.RemoteSnapshot
	default:
		return fmt.Errorf("unknown conflict choice: %s", choice)
	}

	deviceID, err := s.store.DeviceID(ctx)
	if err != nil {
		return fmt.Errorf("failed to load device id: %w", err)
	}

	entity, err := s.store.GetEntity(ctx, entityID)
	if err != nil {
		return fmt.Errorf("failed to load entity: %w", err)
	}

	now := s.now()

	entity.Fields = fields.Clone()
	entity.VersionVector = vclock.Increment(vclock.Merge(record.LocalVector, record.RemoteVector), deviceID)
	entity.UpdatedAt = now
	entity.DeviceID = deviceID
	entity.SyncStatus = models.SyncStatusPending

	// Старый журнал поглощен решением конфликта
	if err := s.store.PruneChangeLog(ctx, entityID); err != nil {
		return fmt.Errorf("failed to prune change log: %w", err)
	}

	item := &models.SyncQueueItem{
		EnqueuedAt:    now,
		ID:            uuid.New().String(),
		EntityID:      entityID,
		EntityType:    entity.Type,
		Operation:     models.OperationUpdate,
		Snapshot:      entity.Fields.Clone(),
		VersionVector: entity.VersionVector.Clone(),
		Priority:      models.PriorityCritical,
	}

	if err := s.store.ApplyMutation(ctx, &storage.Mutation{
		Entity:    entity,
		QueueItem: item,
	}); err != nil {
		return fmt.Errorf("failed to apply conflict resolution: %w", err)
	}

	if err := s.store.ResolveConflict(ctx, entityID, models.ResolutionManualResolved, now); err != nil {
		return fmt.Errorf("failed to mark conflict resolved: %w", err)
	}

	s.hub.Publish(entityID, models.SyncStatusPending)
	s.Kick()
	return nil
}

// PendingCount возвращает количество изменений, ожидающих отправки
func (s *service) PendingCount(ctx context.Context) (int, error) {
	return s.store.CountPending(ctx)
}

// SubscribeStatus подписывает на изменения статуса записи
func (s *service) SubscribeStatus(entityID string) (<-chan models.SyncStatus, func()) {
	return s.hub.Subscribe(entityID)
}

// Status проецирует текущее состояние записи в статус синхронизации
func (s *service) Status(ctx context.Context, entityID string) (models.SyncStatus, error) {
	entity, err := s.store.GetEntity(ctx, entityID)
	if err != nil && !errors.Is(err, storage.ErrEntityNotFound) {
		return "", err
	}

	item, err := s.store.GetQueueItemByEntity(ctx, entityID)
	if err != nil && !errors.Is(err, storage.ErrQueueItemNotFound) {
		return "", err
	}

	record, err := s.store.GetConflict(ctx, entityID)
	if err != nil && !errors.Is(err, storage.ErrConflictNotFound) {
		return "", err
	}

	return Project(entity, item, record, s.manager.InFlight(entityID)), nil
}

// markSyncing переводит запись в Syncing на время полета
func (s *service) markSyncing(ctx context.Context, entityID string) {
	s.setStatus(ctx, entityID, models.SyncStatusSyncing)
}

// setStatus обновляет персистентный статус записи (если она еще
// существует) и публикует его подписчикам.
func (s *service) setStatus(ctx context.Context, entityID string, status models.SyncStatus) {
	if err := s.store.SetSyncStatus(ctx, entityID, status); err != nil && !errors.Is(err, storage.ErrEntityNotFound) {
		s.logger.Error("failed to persist sync status",
			"entity_id", entityID,
			"status", status,
			"error", err,
		)
	}
	s.hub.Publish(entityID, status)
}

func canonicalToEntity(c *api.CanonicalEntity) *models.Entity {
	return &models.Entity{
		UpdatedAt:     c.UpdatedAt,
		ID:            c.EntityID,
		Type:          c.EntityType,
		ParentID:      c.ParentID,
		DeviceID:      c.DeviceID,
		Fields:        models.Fields(c.Payload),
		VersionVector: vclock.VersionVector(c.VersionVector),
		SyncStatus:    models.SyncStatusSynced,
	}
}

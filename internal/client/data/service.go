// Package data реализует оптимистичные локальные записи: каждая мутация
// синхронно фиксируется в durable-хранилище (запись + журнал изменений +
// элемент очереди одной транзакцией) и сразу видна пользователю,
// не дожидаясь сети.
package data

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/fieldkeeper/internal/client/storage"
	"github.com/iudanet/fieldkeeper/internal/models"
	"github.com/iudanet/fieldkeeper/internal/vclock"
)

// Service определяет интерфейс локальных операций над записями
type Service interface {
	// CreateEntity создает запись с клиентским UUID и ставит Create в очередь
	CreateEntity(ctx context.Context, entityType, parentID string, fields models.Fields) (*models.Entity, error)

	// UpdateEntity применяет правки полей и ставит Update в очередь
	// (коалесцируется с уже отложенной мутацией той же записи)
	UpdateEntity(ctx context.Context, entityID string, fields models.Fields) (*models.Entity, error)

	// DeleteEntity удаляет запись локально и ставит Delete в очередь.
	// Удаление несинхронизированной записи гасится без сетевого вызова.
	DeleteEntity(ctx context.Context, entityID string) error

	// GetEntity возвращает запись по ID
	GetEntity(ctx context.Context, entityID string) (*models.Entity, error)

	// ListEntities возвращает записи, опционально по типу
	ListEntities(ctx context.Context, entityType string) ([]*models.Entity, error)
}

type service struct {
	store storage.Storage
	now   func() time.Time
}

// NewService creates a new data service over the durable store
func NewService(store storage.Storage) Service {
	return &service{
		store: store,
		now:   time.Now,
	}
}

// CreateEntity создает новую запись. ID генерируется клиентом и постоянен:
// сервер никогда его не переназначает, поэтому дочерние записи могут
// ссылаться на родителя до его синхронизации.
func (s *service) CreateEntity(ctx context.Context, entityType, parentID string, fields models.Fields) (*models.Entity, error) {
	deviceID, err := s.store.DeviceID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load device id: %w", err)
	}

	now := s.now().UTC()

	entity := &models.Entity{
		CreatedAt:     now,
		UpdatedAt:     now,
		ID:            uuid.New().String(),
		Type:          entityType,
		ParentID:      parentID,
		DeviceID:      deviceID,
		Fields:        fields.Clone(),
		VersionVector: vclock.New(deviceID),
		SyncStatus:    models.SyncStatusPending,
	}

	changeLog := make([]*models.ChangeLogEntry, 0, len(fields))
	for path, value := range fields {
		changeLog = append(changeLog, &models.ChangeLogEntry{
			Timestamp: now,
			ID:        uuid.New().String(),
			EntityID:  entity.ID,
			FieldPath: path,
			DeviceID:  deviceID,
			NewValue:  value,
		})
	}

	item := &models.SyncQueueItem{
		EnqueuedAt:        now,
		ID:                uuid.New().String(),
		EntityID:          entity.ID,
		EntityType:        entityType,
		Operation:         models.OperationCreate,
		DependsOnEntityID: s.parentDependency(ctx, parentID),
		Snapshot:          entity.Fields.Clone(),
		VersionVector:     entity.VersionVector.Clone(),
		Priority:          models.PriorityCritical,
	}

	if err := s.store.ApplyMutation(ctx, &storage.Mutation{
		Entity:    entity,
		ChangeLog: changeLog,
		QueueItem: item,
	}); err != nil {
		return nil, fmt.Errorf("failed to create entity: %w", err)
	}

	return entity, nil
}

// UpdateEntity применяет правки к записи: инкрементирует счетчик
// устройства в векторе, пишет журнал по каждому измененному полю
// и кладет полный снимок в очередь.
func (s *service) UpdateEntity(ctx context.Context, entityID string, fields models.Fields) (*models.Entity, error) {
	deviceID, err := s.store.DeviceID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load device id: %w", err)
	}

	entity, err := s.store.GetEntity(ctx, entityID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()

	changeLog := make([]*models.ChangeLogEntry, 0, len(fields))
	updated := entity.Fields.Clone()
	if updated == nil {
		updated = models.Fields{}
	}
	for path, value := range fields {
		old := updated[path]
		if reflect.DeepEqual(old, value) {
			continue
		}
		changeLog = append(changeLog, &models.ChangeLogEntry{
			Timestamp: now,
			ID:        uuid.New().String(),
			EntityID:  entityID,
			FieldPath: path,
			DeviceID:  deviceID,
			OldValue:  old,
			NewValue:  value,
		})
		updated[path] = value
	}

	if len(changeLog) == 0 {
		// Ничего не изменилось - ни журнала, ни очереди
		return entity, nil
	}

	entity.Fields = updated
	entity.VersionVector = vclock.Increment(entity.VersionVector, deviceID)
	entity.UpdatedAt = now
	entity.DeviceID = deviceID
	entity.SyncStatus = models.SyncStatusPending

	item := &models.SyncQueueItem{
		EnqueuedAt:    now,
		ID:            uuid.New().String(),
		EntityID:      entityID,
		EntityType:    entity.Type,
		Operation:     models.OperationUpdate,
		Snapshot:      entity.Fields.Clone(),
		VersionVector: entity.VersionVector.Clone(),
		Priority:      derivePriority(changeLog),
	}

	if err := s.store.ApplyMutation(ctx, &storage.Mutation{
		Entity:    entity,
		ChangeLog: changeLog,
		QueueItem: item,
	}); err != nil {
		return nil, fmt.Errorf("failed to update entity: %w", err)
	}

	return entity, nil
}

// DeleteEntity удаляет запись локально и ставит Delete в очередь.
// Если Create записи еще не синхронизирован, хранилище гасит обе
// мутации и наружу не уходит ничего.
func (s *service) DeleteEntity(ctx context.Context, entityID string) error {
	deviceID, err := s.store.DeviceID(ctx)
	if err != nil {
		return fmt.Errorf("failed to load device id: %w", err)
	}

	entity, err := s.store.GetEntity(ctx, entityID)
	if err != nil {
		return err
	}

	now := s.now().UTC()

	item := &models.SyncQueueItem{
		EnqueuedAt:    now,
		ID:            uuid.New().String(),
		EntityID:      entityID,
		EntityType:    entity.Type,
		Operation:     models.OperationDelete,
		VersionVector: vclock.Increment(entity.VersionVector, deviceID),
		Priority:      models.PriorityHigh,
	}

	if err := s.store.ApplyMutation(ctx, &storage.Mutation{QueueItem: item}); err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
	}

	// Оптимистичное локальное удаление: запись скрывается сразу.
	// Путь purge уже удалил ее внутри транзакции, повтор безвреден.
	if err := s.store.DeleteEntity(ctx, entityID); err != nil {
		return fmt.Errorf("failed to remove local entity: %w", err)
	}

	return nil
}

// GetEntity возвращает запись по ID
func (s *service) GetEntity(ctx context.Context, entityID string) (*models.Entity, error) {
	return s.store.GetEntity(ctx, entityID)
}

// ListEntities возвращает записи, опционально отфильтрованные по типу
func (s *service) ListEntities(ctx context.Context, entityType string) ([]*models.Entity, error) {
	return s.store.ListEntities(ctx, entityType)
}

// parentDependency возвращает зависимость от родителя, если его
// собственная мутация еще не покинула очередь.
func (s *service) parentDependency(ctx context.Context, parentID string) string {
	if parentID == "" {
		return ""
	}
	if _, err := s.store.GetQueueItemByEntity(ctx, parentID); err != nil {
		return ""
	}
	return parentID
}

// derivePriority выводит приоритет Update из затронутых полей:
// статусные правки критичны, настройки могут подождать.
func derivePriority(changeLog []*models.ChangeLogEntry) models.Priority {
	priority := models.PriorityLow
	for _, entry := range changeLog {
		p := fieldPriority(entry.FieldPath)
		if p < priority {
			priority = p
		}
	}
	return priority
}

func fieldPriority(path string) models.Priority {
	switch {
	case path == "status" || path == "lifecycle" || path == "approval":
		return models.PriorityCritical
	case path == "preferences" || strings.HasPrefix(path, "preferences."):
		return models.PriorityLow
	default:
		return models.PriorityNormal
	}
}

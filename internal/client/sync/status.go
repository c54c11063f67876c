package sync

import (
	"sync"

	"github.com/iudanet/fieldkeeper/internal/models"
)

// Project вычисляет статус синхронизации записи как чистую проекцию
// ее состояния: записи, элемента очереди и конфликта. Статус нигде не
// хранится как отдельный источник истины, поэтому не может разойтись
// с очередью.
func Project(entity *models.Entity, item *models.SyncQueueItem, conflict *models.ConflictRecord, inFlight bool) models.SyncStatus {
	switch {
	case conflict != nil && conflict.ResolvedAt == nil:
		return models.SyncStatusConflict
	case item != nil && item.DeadLetter:
		return models.SyncStatusError
	case item != nil && inFlight:
		return models.SyncStatusSyncing
	case item != nil:
		return models.SyncStatusPending
	default:
		return models.SyncStatusSynced
	}
}

// statusBuffer - емкость канала подписки; отстающий подписчик теряет
// промежуточные статусы, но всегда получит последний
const statusBuffer = 8

// StatusHub рассылает изменения статуса записей подписчикам (UI).
// Публикация не блокируется на медленных подписчиках.
type StatusHub struct {
	mu   sync.Mutex
	subs map[string][]chan models.SyncStatus
}

// NewStatusHub creates an empty subscription hub
func NewStatusHub() *StatusHub {
	return &StatusHub{
		subs: make(map[string][]chan models.SyncStatus),
	}
}

// Subscribe returns a status channel for the entity and a cancel func.
// Канал закрывается при отмене подписки.
func (h *StatusHub) Subscribe(entityID string) (<-chan models.SyncStatus, func()) {
	ch := make(chan models.SyncStatus, statusBuffer)

	h.mu.Lock()
	h.subs[entityID] = append(h.subs[entityID], ch)
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		channels := h.subs[entityID]
		for i, c := range channels {
			if c == ch {
				h.subs[entityID] = append(channels[:i], channels[i+1:]...)
				close(ch)
				break
			}
		}
		if len(h.subs[entityID]) == 0 {
			delete(h.subs, entityID)
		}
	}

	return ch, cancel
}

// Publish delivers a status change to all subscribers of the entity.
// При переполненном буфере подписчика вытесняется самый старый статус:
// отстающий подписчик теряет промежуточные значения, но не последнее.
func (h *StatusHub) Publish(entityID string, status models.SyncStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs[entityID] {
		select {
		case ch <- status:
			continue
		default:
		}

		select {
		case <-ch:
		default:
		}
		select {
		case ch <- status:
		default:
		}
	}
}

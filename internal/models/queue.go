package models

import (
	"time"

	"github.com/iudanet/fieldkeeper/internal/vclock"
)

// Operation представляет тип исходящей мутации.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Priority определяет порядок отправки элементов очереди.
// Меньшее число - выше приоритет.
type Priority int

const (
	// PriorityCritical - изменения идентичности и статуса записи
	PriorityCritical Priority = 1
	// PriorityHigh - удаления
	PriorityHigh Priority = 2
	// PriorityNormal - обычные правки полей
	PriorityNormal Priority = 3
	// PriorityLow - настройки и предпочтения
	PriorityLow Priority = 4
)

// SyncQueueItem представляет одну отложенную мутацию в durable-очереди.
// Элемент считается поставленным в очередь только после фиксации
// в локальном хранилище - никогда не существует только в памяти.
// Ссылка на запись хранится исключительно по EntityID.
type SyncQueueItem struct {
	EnqueuedAt        time.Time            `json:"enqueued_at"`
	NextAttemptAt     time.Time            `json:"next_attempt_at"` // персистентное расписание backoff
	ID                string               `json:"id"`
	EntityID          string               `json:"entity_id"`
	EntityType        string               `json:"entity_type"`
	Operation         Operation            `json:"operation"`
	DependsOnEntityID string               `json:"depends_on_entity_id,omitempty"` // родитель, который должен уйти из очереди раньше
	LastError         string               `json:"last_error,omitempty"`
	Snapshot          Fields               `json:"snapshot"` // полный снимок полей на момент мутации
	VersionVector     vclock.VersionVector `json:"version_vector"`
	Priority          Priority             `json:"priority"`
	RetryCount        int                  `json:"retry_count"`
	DeadLetter        bool                 `json:"dead_letter"`
}

// Clone создает глубокую копию элемента очереди.
func (i *SyncQueueItem) Clone() *SyncQueueItem {
	clone := *i
	clone.Snapshot = i.Snapshot.Clone()
	clone.VersionVector = i.VersionVector.Clone()
	return &clone
}

package models

import (
	"time"

	"github.com/iudanet/fieldkeeper/internal/vclock"
)

// ResolutionStrategy описывает, как конфликт был (или должен быть) разрешен.
type ResolutionStrategy string

const (
	// ResolutionAutoMerged - конфликт слит автоматически по категориям полей
	ResolutionAutoMerged ResolutionStrategy = "auto_merged"
	// ResolutionManualRequired - требуется решение пользователя
	ResolutionManualRequired ResolutionStrategy = "manual_required"
	// ResolutionManualResolved - пользователь выбрал исход
	ResolutionManualResolved ResolutionStrategy = "manual_resolved"
)

// ConflictChoice представляет выбор пользователя при ручном разрешении.
type ConflictChoice string

const (
	ChoiceAcceptLocal  ConflictChoice = "accept_local"
	ChoiceAcceptRemote ConflictChoice = "accept_remote"
)

// ConflictRecord фиксирует расхождение локальной и серверной версии записи.
// Хранит оба полных снимка и подокументный дифф, чтобы пользователь мог
// принять решение. Пока запись в статусе Conflict, она исключена из
// автоматической синхронизации.
type ConflictRecord struct {
	CreatedAt         time.Time            `json:"created_at"`
	ResolvedAt        *time.Time           `json:"resolved_at,omitempty"`
	EntityID          string               `json:"entity_id"`
	EntityType        string               `json:"entity_type"`
	LocalSnapshot     Fields               `json:"local_snapshot"`
	RemoteSnapshot    Fields               `json:"remote_snapshot"`
	LocalVector       vclock.VersionVector `json:"local_vector"`
	RemoteVector      vclock.VersionVector `json:"remote_vector"`
	ConflictingFields []string             `json:"conflicting_fields"`
	Strategy          ResolutionStrategy   `json:"strategy"`
}

package models

import (
	"time"

	"github.com/iudanet/fieldkeeper/internal/vclock"
)

// SyncStatus представляет состояние синхронизации записи.
type SyncStatus string

const (
	// SyncStatusPending - есть локальные изменения, ожидающие отправки
	SyncStatusPending SyncStatus = "pending"
	// SyncStatusSyncing - изменение отправлено, ответ еще не получен
	SyncStatusSyncing SyncStatus = "syncing"
	// SyncStatusSynced - локальное состояние совпадает с серверным
	SyncStatusSynced SyncStatus = "synced"
	// SyncStatusConflict - обнаружен конфликт, требуется решение пользователя
	SyncStatusConflict SyncStatus = "conflict"
	// SyncStatusError - запись в dead-letter, требуется вмешательство
	SyncStatusError SyncStatus = "error"
)

// EntityType константы для типов бизнес-записей
const (
	EntityTypeQuote    = "quote"
	EntityTypeJob      = "job"
	EntityTypeLineItem = "line_item"
)

// Fields представляет снимок полей бизнес-записи. Для движка
// синхронизации содержимое непрозрачно: интерпретация путей полей
// происходит только при разрешении конфликтов.
type Fields map[string]any

// Clone создает глубокую копию снимка полей.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	clone := make(Fields, len(f))
	for k, v := range f {
		clone[k] = cloneValue(v)
	}
	return clone
}

// cloneValue рекурсивно копирует значения, пришедшие из JSON
// (map[string]any, []any и скаляры).
func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, item := range val {
			m[k] = cloneValue(item)
		}
		return m
	case []any:
		s := make([]any, len(val))
		for i, item := range val {
			s[i] = cloneValue(item)
		}
		return s
	default:
		return v
	}
}

// Entity представляет синхронизируемую бизнес-запись (смета, заказ).
// ID генерируется клиентом (UUID) и никогда не переназначается сервером,
// поэтому дочерняя запись может ссылаться на родителя до его синхронизации.
type Entity struct {
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
	ID            string               `json:"id"`        // клиентский UUID, постоянный первичный ключ
	Type          string               `json:"type"`      // тип записи: "quote", "job", "line_item"
	ParentID      string               `json:"parent_id"` // ссылка на родителя только по ID, без вложенных объектов
	DeviceID      string               `json:"device_id"` // устройство последней локальной мутации
	Fields        Fields               `json:"fields"`
	VersionVector vclock.VersionVector `json:"version_vector"`
	SyncStatus    SyncStatus           `json:"sync_status"`
}

// Clone создает глубокую копию записи.
func (e *Entity) Clone() *Entity {
	clone := *e
	clone.Fields = e.Fields.Clone()
	clone.VersionVector = e.VersionVector.Clone()
	return &clone
}

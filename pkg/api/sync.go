package api

import "time"

// ItemStatus представляет статус обработки одного элемента batch-запроса.
type ItemStatus string

const (
	// ItemApplied - мутация применена, возвращается каноничное состояние
	ItemApplied ItemStatus = "applied"
	// ItemConflict - серверная версия конкурентна клиентской
	ItemConflict ItemStatus = "conflict"
	// ItemRejected - постоянная ошибка валидации, повторять бессмысленно
	ItemRejected ItemStatus = "rejected"
)

// SyncItem представляет одну исходящую мутацию в batch-запросе.
type SyncItem struct {
	ClientTimestamp time.Time         `json:"client_timestamp"`
	EntityID        string            `json:"entity_id" validate:"required,uuid4"`
	EntityType      string            `json:"entity_type" validate:"required,oneof=quote job line_item"`
	Operation       string            `json:"operation" validate:"required,oneof=create update delete"`
	ParentID        string            `json:"parent_id,omitempty" validate:"omitempty,uuid4"`
	DeviceID        string            `json:"device_id" validate:"required"`
	Payload         map[string]any    `json:"payload,omitempty"`
	VersionVector   map[string]uint64 `json:"version_vector" validate:"required"`
}

// BatchSyncRequest представляет batch-запрос синхронизации от клиента.
type BatchSyncRequest struct {
	Items []SyncItem `json:"items" validate:"required,min=1,dive"`
}

// CanonicalEntity представляет каноничное серверное состояние записи.
type CanonicalEntity struct {
	UpdatedAt     time.Time         `json:"updated_at"`
	EntityID      string            `json:"entity_id"`
	EntityType    string            `json:"entity_type"`
	ParentID      string            `json:"parent_id,omitempty"`
	DeviceID      string            `json:"device_id"`
	Payload       map[string]any    `json:"payload,omitempty"`
	VersionVector map[string]uint64 `json:"version_vector"`
	Deleted       bool              `json:"deleted"`
}

// SyncItemResult представляет по-элементный результат batch-запроса.
type SyncItemResult struct {
	EntityID            string            `json:"entity_id"`
	Status              ItemStatus        `json:"status"`
	Error               string            `json:"error,omitempty"`
	CanonicalEntity     *CanonicalEntity  `json:"canonical_entity,omitempty"`
	RemoteVersionVector map[string]uint64 `json:"remote_version_vector,omitempty"`
}

// BatchSyncResponse представляет ответ сервера: результат для каждого
// элемента запроса в том же порядке.
type BatchSyncResponse struct {
	Results []SyncItemResult `json:"results"`
}

package models

import "time"

// ChangeLogEntry представляет одну зафиксированную правку поля.
// Записи журнала хранятся, пока мутация не синхронизирована или
// не поглощена более поздним слиянием конфликта, затем удаляются.
type ChangeLogEntry struct {
	Timestamp time.Time `json:"timestamp"` // wall-clock время правки (для LWW полей)
	ID        string    `json:"id"`
	EntityID  string    `json:"entity_id"`
	FieldPath string    `json:"field_path"` // путь поля, например "notes" или "items.<itemID>"
	DeviceID  string    `json:"device_id"`
	OldValue  any       `json:"old_value"`
	NewValue  any       `json:"new_value"` // nil означает удаление значения
}

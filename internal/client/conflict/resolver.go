package conflict

import (
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/iudanet/fieldkeeper/internal/models"
	"github.com/iudanet/fieldkeeper/internal/vclock"
)

// RecomputeFunc пересчитывает производные поля (суммы) из слитого
// снимка. Вызывается в конце автослияния, когда все входы уже слиты.
type RecomputeFunc func(fields models.Fields) models.Fields

// NotifyFunc вызывается, когда серверная версия справочного поля
// вытеснила локальную правку.
type NotifyFunc func(entityID, fieldPath string)

// Resolution содержит исход разрешения конфликта.
// При автослиянии Merged заполнен, запись возвращается в Pending.
// При ManualRequired Merged равен nil: запись остается в Conflict
// и исключается из синхронизации до решения пользователя.
type Resolution struct {
	Merged            *models.Entity
	Record            *models.ConflictRecord
	ConflictingFields []string
	Strategy          models.ResolutionStrategy
}

// Resolver выполняет обнаружение и разрешение конфликтов по категориям полей.
type Resolver struct {
	registry  *Registry
	recompute RecomputeFunc
	notify    NotifyFunc
	logger    *slog.Logger
}

// NewResolver creates a resolver. registry may be nil to use
// DefaultRegistry; recompute and notify may be nil.
func NewResolver(registry *Registry, recompute RecomputeFunc, notify NotifyFunc, logger *slog.Logger) *Resolver {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Resolver{
		registry:  registry,
		recompute: recompute,
		notify:    notify,
		logger:    logger,
	}
}

// Detect returns the overlapping conflicting fields of two concurrent
// versions. Пустой результат означает, что версии конкурентны, но
// правки не пересекаются и сливаются автоматически без потерь.
func (r *Resolver) Detect(local, remote *models.Entity, localLog []*models.ChangeLogEntry) []string {
	if vclock.Compare(local.VersionVector, remote.VersionVector) != vclock.Concurrent {
		return nil
	}
	return conflictingFields(local, remote, localLog)
}

// conflictingFields возвращает поля, измененные обеими сторонами.
// Поле конфликтует, когда оно тронуто локальным журналом, отличается
// от серверного снимка и серверное значение не совпадает со значением
// до первой локальной правки (иначе сервер поле не менял).
func conflictingFields(local, remote *models.Entity, localLog []*models.ChangeLogEntry) []string {
	var fields []string
	for field := range locallyChanged(localLog) {
		if reflect.DeepEqual(local.Fields[field], remote.Fields[field]) {
			continue
		}
		if base, ok := fieldBase(field, localLog); ok && reflect.DeepEqual(remote.Fields[field], base) {
			continue
		}
		fields = append(fields, field)
	}

	sort.Strings(fields)
	return fields
}

// fieldBase возвращает значение поля до первой локальной правки.
// Для вложенных путей (items.<itemID>) базы нет - поле считается
// конфликтующим и разрешается по своей категории.
func fieldBase(field string, log []*models.ChangeLogEntry) (any, bool) {
	var earliest *models.ChangeLogEntry
	for _, entry := range log {
		if entry.FieldPath != field {
			continue
		}
		if earliest == nil || entry.Timestamp.Before(earliest.Timestamp) {
			earliest = entry
		}
	}
	if earliest == nil {
		return nil, false
	}
	return earliest.OldValue, true
}

// locallyChanged собирает верхнеуровневые поля, тронутые локальным журналом.
func locallyChanged(log []*models.ChangeLogEntry) map[string]bool {
	changed := make(map[string]bool, len(log))
	for _, entry := range log {
		changed[topSegment(entry.FieldPath)] = true
	}
	return changed
}

func topSegment(path string) string {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[:i]
	}
	return path
}

// Resolve merges two concurrent versions of an entity.
//
// Поля, измененные только сервером, принимаются как есть; поля,
// измененные только локально, сохраняются. Пересекающиеся поля
// разрешаются по категории. Любое пересечение по статусному полю
// переводит весь конфликт в ManualRequired: статус не сливается
// автоматически никогда.
//
// Вектор автослияния доминирует над обоими источниками:
// merge(local, remote), затем инкремент локального устройства.
func (r *Resolver) Resolve(local, remote *models.Entity, localLog []*models.ChangeLogEntry, deviceID string, now time.Time) *Resolution {
	conflicting := conflictingFields(local, remote, localLog)

	for _, field := range conflicting {
		if r.registry.Categorize(field) == CategoryStatus {
			return r.manualRequired(local, remote, conflicting, now)
		}
	}

	merged := r.mergeFields(local, remote, localLog, conflicting)

	if r.recompute != nil {
		merged = r.recompute(merged)
	}

	entity := local.Clone()
	entity.Fields = merged
	entity.VersionVector = vclock.Increment(vclock.Merge(local.VersionVector, remote.VersionVector), deviceID)
	entity.UpdatedAt = now
	entity.DeviceID = deviceID
	entity.SyncStatus = models.SyncStatusPending

	record := newRecord(local, remote, conflicting, now)
	record.Strategy = models.ResolutionAutoMerged
	record.ResolvedAt = &now

	if r.logger != nil {
		r.logger.Info("conflict auto-merged",
			"entity_id", local.ID,
			"fields", conflicting,
		)
	}

	return &Resolution{
		Merged:            entity,
		Record:            record,
		ConflictingFields: conflicting,
		Strategy:          models.ResolutionAutoMerged,
	}
}

// manualRequired фиксирует конфликт для решения пользователем.
func (r *Resolver) manualRequired(local, remote *models.Entity, conflicting []string, now time.Time) *Resolution {
	record := newRecord(local, remote, conflicting, now)
	record.Strategy = models.ResolutionManualRequired

	if r.logger != nil {
		r.logger.Warn("conflict requires manual resolution",
			"entity_id", local.ID,
			"fields", conflicting,
		)
	}

	return &Resolution{
		Record:            record,
		ConflictingFields: conflicting,
		Strategy:          models.ResolutionManualRequired,
	}
}

func newRecord(local, remote *models.Entity, conflicting []string, now time.Time) *models.ConflictRecord {
	return &models.ConflictRecord{
		CreatedAt:         now,
		EntityID:          local.ID,
		EntityType:        local.Type,
		LocalSnapshot:     local.Fields.Clone(),
		RemoteSnapshot:    remote.Fields.Clone(),
		LocalVector:       local.VersionVector.Clone(),
		RemoteVector:      remote.VersionVector.Clone(),
		ConflictingFields: conflicting,
	}
}

// mergeFields строит слитый снимок: база - серверный снимок,
// локальные добавления сохраняются, пересечения решаются по категориям.
func (r *Resolver) mergeFields(local, remote *models.Entity, localLog []*models.ChangeLogEntry, conflicting []string) models.Fields {
	merged := remote.Fields.Clone()
	if merged == nil {
		merged = models.Fields{}
	}

	changed := locallyChanged(localLog)

	// Локальные правки полей, которые сервер не менял
	for field, value := range local.Fields {
		if _, inRemote := remote.Fields[field]; !inRemote {
			merged[field] = cloneAny(value)
			continue
		}
		if changed[field] && !contains(conflicting, field) {
			merged[field] = cloneAny(value)
		}
	}

	for _, field := range conflicting {
		switch r.registry.Categorize(field) {
		case CategoryFreeText:
			merged[field] = r.lastWriteWins(field, local, remote, localLog)
		case CategoryLineItems:
			merged[field] = mergeLineItems(
				local.Fields[field], remote.Fields[field],
				local.DeviceID, remote.DeviceID,
			)
		case CategoryReference:
			// Серверная версия справочника уже в merged
			if r.notify != nil {
				r.notify(local.ID, field)
			}
		case CategoryDerived:
			// Перезапишется recompute после слияния входов
		}
	}

	return merged
}

// lastWriteWins выбирает значение поля по wall-clock времени правки:
// время последней локальной записи журнала против UpdatedAt сервера.
// При равенстве выигрывает лексикографически большее устройство.
func (r *Resolver) lastWriteWins(field string, local, remote *models.Entity, localLog []*models.ChangeLogEntry) any {
	localTime := localFieldTime(field, localLog, local.UpdatedAt)
	remoteTime := remote.UpdatedAt

	switch {
	case localTime.After(remoteTime):
		return cloneAny(local.Fields[field])
	case remoteTime.After(localTime):
		return cloneAny(remote.Fields[field])
	case local.DeviceID > remote.DeviceID:
		return cloneAny(local.Fields[field])
	default:
		return cloneAny(remote.Fields[field])
	}
}

// localFieldTime возвращает время последней локальной правки поля по журналу.
func localFieldTime(field string, log []*models.ChangeLogEntry, fallback time.Time) time.Time {
	latest := time.Time{}
	for _, entry := range log {
		if topSegment(entry.FieldPath) == field && entry.Timestamp.After(latest) {
			latest = entry.Timestamp
		}
	}
	if latest.IsZero() {
		return fallback
	}
	return latest
}

func contains(fields []string, field string) bool {
	for _, f := range fields {
		if f == field {
			return true
		}
	}
	return false
}

func cloneAny(v any) any {
	return models.Fields{"v": v}.Clone()["v"]
}

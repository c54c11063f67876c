// Package queue содержит правила durable-очереди синхронизации:
// приоритеты, FIFO внутри приоритета и коалесцирование нескольких
// отложенных мутаций одной записи в один исходящий элемент.
package queue

import (
	"errors"

	"github.com/iudanet/fieldkeeper/internal/models"
)

// ErrDeletePending возвращается при попытке поставить в очередь мутацию
// для записи, удаление которой уже ожидает отправки. Пересоздание записи
// поверх отложенного удаления не принимается.
var ErrDeletePending = errors.New("delete already pending for entity")

// Coalesce применяет правила коалесцирования к предлагаемому элементу
// очереди. existing - уже стоящий в очереди элемент той же записи
// (nil, если его нет), incoming - новая мутация.
//
// Возвращает итоговый элемент и флаг purge. purge == true означает, что
// запись никогда не покидала устройство и локальное удаление гасит и
// Create, и саму запись - сетевой вызов не нужен вовсе.
//
// Правила:
//   - нет existing: incoming ставится как есть
//   - Update поверх Update: один элемент с последним полным снимком
//     (последняя мутация выигрывает по каждому полю), позиция FIFO
//     сохраняется за первым элементом
//   - Update поверх Create: остается Create с последним снимком
//   - Delete поверх Create: purge
//   - Delete поверх Update: элемент становится Delete
//   - что угодно поверх Delete: ErrDeletePending
func Coalesce(existing, incoming *models.SyncQueueItem) (*models.SyncQueueItem, bool, error) {
	if existing == nil {
		return incoming.Clone(), false, nil
	}

	if existing.Operation == models.OperationDelete {
		return nil, false, ErrDeletePending
	}

	switch incoming.Operation {
	case models.OperationDelete:
		if existing.Operation == models.OperationCreate {
			// Запись не синхронизировалась ни разу - гасим обе мутации
			return nil, true, nil
		}
		// Delete вытесняет отложенный Update
		item := existing.Clone()
		item.Operation = models.OperationDelete
		item.Snapshot = nil
		item.VersionVector = incoming.VersionVector.Clone()
		item.Priority = higherPriority(existing.Priority, incoming.Priority)
		item.NextAttemptAt = incoming.NextAttemptAt
		item.RetryCount = 0
		item.LastError = ""
		return item, false, nil

	case models.OperationCreate, models.OperationUpdate:
		// Операция остается операцией existing (Create не деградирует
		// до Update, пока запись не побывала на сервере)
		item := existing.Clone()
		item.Snapshot = incoming.Snapshot.Clone()
		item.VersionVector = incoming.VersionVector.Clone()
		item.Priority = higherPriority(existing.Priority, incoming.Priority)
		if incoming.DependsOnEntityID != "" {
			item.DependsOnEntityID = incoming.DependsOnEntityID
		}
		// Новый payload - расписание повторов начинается заново
		item.NextAttemptAt = incoming.NextAttemptAt
		item.RetryCount = 0
		item.LastError = ""
		return item, false, nil

	default:
		return nil, false, errors.New("unknown queue operation: " + string(incoming.Operation))
	}
}

// higherPriority возвращает более срочный из двух приоритетов
// (меньшее число - выше приоритет).
func higherPriority(a, b models.Priority) models.Priority {
	if a < b {
		return a
	}
	return b
}

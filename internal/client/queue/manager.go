package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/fieldkeeper/internal/client/storage"
	"github.com/iudanet/fieldkeeper/internal/models"
)

// DefaultMaxConcurrency - количество записей, которые могут находиться
// в полете одновременно (по разным записям; на одну запись - строго один
// элемент в полете).
const DefaultMaxConcurrency = 3

// Manager выдает элементы очереди оркестратору, гарантируя не больше
// одного элемента в полете на запись и не больше maxConcurrency записей
// в полете суммарно. Сама очередь живет в durable-хранилище; менеджер
// держит в памяти только множество выданных записей.
type Manager struct {
	store          storage.QueueStorage
	logger         *slog.Logger
	inFlight       map[string]string // entityID -> queue item ID
	mu             sync.Mutex
	maxConcurrency int
}

// NewManager creates a new queue manager over the durable queue
func NewManager(store storage.QueueStorage, logger *slog.Logger, maxConcurrency int) *Manager {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	return &Manager{
		store:          store,
		logger:         logger,
		inFlight:       make(map[string]string),
		maxConcurrency: maxConcurrency,
	}
}

// Checkout возвращает элементы, готовые к отправке прямо сейчас, в порядке
// (приоритет, время постановки), исключая записи, уже находящиеся в полете.
// Выданные записи помечаются in-flight до вызова Release.
func (m *Manager) Checkout(ctx context.Context, now time.Time) ([]*models.SyncQueueItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	free := m.maxConcurrency - len(m.inFlight)
	if free <= 0 {
		return nil, nil
	}

	// Берем все готовые элементы: очередь мала, а фильтровать
	// in-flight записи нужно уже после выборки
	eligible, err := m.store.DequeueNext(ctx, now, 0)
	if err != nil {
		return nil, err
	}

	var checked []*models.SyncQueueItem
	for _, item := range eligible {
		if len(checked) >= free {
			break
		}
		if _, busy := m.inFlight[item.EntityID]; busy {
			continue
		}
		m.inFlight[item.EntityID] = item.ID
		checked = append(checked, item)
	}

	return checked, nil
}

// Release снимает пометку in-flight с записи. Вызывается оркестратором
// после классификации результата отправки (или при удержании элемента
// из-за неразрешенной зависимости).
func (m *Manager) Release(entityID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inFlight, entityID)
}

// InFlight сообщает, находится ли запись в полете.
func (m *Manager) InFlight(entityID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, busy := m.inFlight[entityID]
	return busy
}

// Package deps упорядочивает отправку зависимых записей: дочерний
// элемент очереди не уходит на сервер, пока элемент родителя не покинул
// очередь. Это закрывает гонку "child create пришел раньше parent create"
// и ложные отказы "parent not found".
package deps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/iudanet/fieldkeeper/internal/client/storage"
	"github.com/iudanet/fieldkeeper/internal/models"
)

// Resolver решает, можно ли отправлять элемент очереди, и каскадирует
// dead-letter родителя на всех зависимых.
type Resolver struct {
	store  storage.QueueStorage
	logger *slog.Logger
}

// NewResolver creates a dependency resolver over the queue storage
func NewResolver(store storage.QueueStorage, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:  store,
		logger: logger,
	}
}

// Eligible reports whether the item may be dispatched now.
// Элемент без зависимости отправляется всегда. Зависимый элемент
// отправляется только когда у родителя не осталось элемента в очереди:
// удержанный элемент не переупорядочивается и не отбрасывается,
// он просто ждет следующего цикла.
func (r *Resolver) Eligible(ctx context.Context, item *models.SyncQueueItem) (bool, error) {
	if item.DependsOnEntityID == "" {
		return true, nil
	}

	parent, err := r.store.GetQueueItemByEntity(ctx, item.DependsOnEntityID)
	if err != nil {
		if errors.Is(err, storage.ErrQueueItemNotFound) {
			// Родитель покинул очередь - зависимость разрешена
			return true, nil
		}
		return false, fmt.Errorf("failed to check dependency %s: %w", item.DependsOnEntityID, err)
	}

	if r.logger != nil {
		r.logger.Debug("queue item held by dependency",
			"item_id", item.ID,
			"entity_id", item.EntityID,
			"depends_on", item.DependsOnEntityID,
			"parent_dead_letter", parent.DeadLetter,
		)
	}

	return false, nil
}

// CascadeDeadLetter dead-letters every item that depends, directly or
// transitively, on the given entity. Зависимые никогда не отбрасываются
// молча: каждый получает причинную ошибку с цепочкой до источника.
func (r *Resolver) CascadeDeadLetter(ctx context.Context, entityID string, reason string) error {
	items, err := r.store.ListQueue(ctx, false)
	if err != nil {
		return fmt.Errorf("failed to list queue for cascade: %w", err)
	}

	dependents := make(map[string][]*models.SyncQueueItem, len(items))
	for _, item := range items {
		if item.DependsOnEntityID != "" {
			dependents[item.DependsOnEntityID] = append(dependents[item.DependsOnEntityID], item)
		}
	}

	return r.cascade(ctx, dependents, entityID, reason)
}

func (r *Resolver) cascade(ctx context.Context, dependents map[string][]*models.SyncQueueItem, entityID, reason string) error {
	for _, item := range dependents[entityID] {
		causal := fmt.Sprintf("dependency %s dead-lettered: %s", entityID, reason)

		if err := r.store.MarkDeadLetter(ctx, item.ID, causal); err != nil {
			return fmt.Errorf("failed to cascade dead-letter to %s: %w", item.ID, err)
		}

		if r.logger != nil {
			r.logger.Warn("queue item dead-lettered by dependency cascade",
				"item_id", item.ID,
				"entity_id", item.EntityID,
				"depends_on", entityID,
			)
		}

		if err := r.cascade(ctx, dependents, item.EntityID, causal); err != nil {
			return err
		}
	}

	return nil
}

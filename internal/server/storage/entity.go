package storage

import (
	"context"

	"github.com/iudanet/fieldkeeper/pkg/api"
)

// EntityStorage defines interface for canonical entity state persistence.
// Каноничное состояние и есть контракт синхронизации, поэтому хранилище
// работает с wire-типом напрямую.
type EntityStorage interface {
	// GetEntity retrieves the canonical state of an entity, including
	// tombstones. Returns ErrEntityNotFound if the server never saw it.
	GetEntity(ctx context.Context, entityID string) (*api.CanonicalEntity, error)

	// UpsertEntity writes the canonical state of an entity, replacing
	// any previous version
	UpsertEntity(ctx context.Context, entity *api.CanonicalEntity) error

	// ListEntitiesByParent retrieves non-deleted children of a parent
	ListEntitiesByParent(ctx context.Context, parentID string) ([]*api.CanonicalEntity, error)
}

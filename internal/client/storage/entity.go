package storage

import (
	"context"

	"github.com/iudanet/fieldkeeper/internal/models"
)

//go:generate moq -out entitystorage_mock.go . EntityStorage

// EntityStorage defines interface for storing business entities on client
type EntityStorage interface {
	// PutEntity stores or updates an entity
	PutEntity(ctx context.Context, entity *models.Entity) error

	// GetEntity retrieves an entity by ID
	// Returns ErrEntityNotFound if entity doesn't exist
	GetEntity(ctx context.Context, id string) (*models.Entity, error)

	// ListEntities returns all entities, optionally filtered by type
	// (empty entityType returns everything)
	ListEntities(ctx context.Context, entityType string) ([]*models.Entity, error)

	// GetEntitiesByParent returns entities referencing the given parent ID
	GetEntitiesByParent(ctx context.Context, parentID string) ([]*models.Entity, error)

	// SetSyncStatus updates only the sync status of an entity
	SetSyncStatus(ctx context.Context, id string, status models.SyncStatus) error

	// DeleteEntity removes an entity record entirely.
	// Used when a queued Create is purged by a local Delete.
	DeleteEntity(ctx context.Context, id string) error
}

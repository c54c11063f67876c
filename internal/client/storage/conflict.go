package storage

import (
	"context"
	"time"

	"github.com/iudanet/fieldkeeper/internal/models"
)

// ConflictStorage defines interface for persisted conflict records
type ConflictStorage interface {
	// SaveConflict stores a conflict record for an entity
	// (one unresolved conflict per entity)
	SaveConflict(ctx context.Context, record *models.ConflictRecord) error

	// GetConflict retrieves the conflict record for an entity
	// Returns ErrConflictNotFound if none exists
	GetConflict(ctx context.Context, entityID string) (*models.ConflictRecord, error)

	// ListConflicts returns conflict records; with unresolvedOnly true only
	// those still requiring a decision
	ListConflicts(ctx context.Context, unresolvedOnly bool) ([]*models.ConflictRecord, error)

	// ResolveConflict marks the record resolved with the given strategy
	ResolveConflict(ctx context.Context, entityID string, strategy models.ResolutionStrategy, resolvedAt time.Time) error
}

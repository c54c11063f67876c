package storage

import (
	"context"

	"github.com/iudanet/fieldkeeper/internal/models"
)

// ChangeLogStorage defines interface for the per-entity change log.
// Записи журнала живут до тех пор, пока мутация не синхронизирована
// или не поглощена слиянием конфликта.
type ChangeLogStorage interface {
	// AppendChangeLog adds entries to the entity's change log
	AppendChangeLog(ctx context.Context, entries []*models.ChangeLogEntry) error

	// GetChangeLog returns the change log for an entity ordered by timestamp
	GetChangeLog(ctx context.Context, entityID string) ([]*models.ChangeLogEntry, error)

	// PruneChangeLog removes the change log of an entity after its
	// mutations have been durably synced or merged
	PruneChangeLog(ctx context.Context, entityID string) error
}

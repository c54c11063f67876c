package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/fieldkeeper/internal/server/storage"
	"github.com/iudanet/fieldkeeper/pkg/api"
)

// GetEntity retrieves the canonical state of an entity, tombstones included
// Returns ErrEntityNotFound if the server never saw this entity
func (s *Storage) GetEntity(ctx context.Context, entityID string) (*api.CanonicalEntity, error) {
	query := `
		SELECT entity_id, entity_type, parent_id, device_id,
		       payload, version_vector, deleted, updated_at
		FROM entities
		WHERE entity_id = ?
	`

	return s.scanEntity(s.db.QueryRowContext(ctx, query, entityID))
}

// UpsertEntity writes the canonical state, replacing any previous version
func (s *Storage) UpsertEntity(ctx context.Context, entity *api.CanonicalEntity) error {
	payload, err := json.Marshal(entity.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	vector, err := json.Marshal(entity.VersionVector)
	if err != nil {
		return fmt.Errorf("failed to marshal version vector: %w", err)
	}

	query := `
		INSERT INTO entities (
			entity_id, entity_type, parent_id, device_id,
			payload, version_vector, deleted, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (entity_id) DO UPDATE SET
			entity_type = excluded.entity_type,
			parent_id = excluded.parent_id,
			device_id = excluded.device_id,
			payload = excluded.payload,
			version_vector = excluded.version_vector,
			deleted = excluded.deleted,
			updated_at = excluded.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		entity.EntityID,
		entity.EntityType,
		entity.ParentID,
		entity.DeviceID,
		string(payload),
		string(vector),
		boolToInt(entity.Deleted),
		entity.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert entity: %w", err)
	}

	return nil
}

// ListEntitiesByParent retrieves non-deleted children of a parent
func (s *Storage) ListEntitiesByParent(ctx context.Context, parentID string) ([]*api.CanonicalEntity, error) {
	query := `
		SELECT entity_id, entity_type, parent_id, device_id,
		       payload, version_vector, deleted, updated_at
		FROM entities
		WHERE parent_id = ? AND deleted = 0
		ORDER BY updated_at
	`

	rows, err := s.db.QueryContext(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	entities := make([]*api.CanonicalEntity, 0)
	for rows.Next() {
		entity, err := s.scanEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entities: %w", err)
	}

	return entities, nil
}

// scanner покрывает и *sql.Row, и *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func (s *Storage) scanEntity(row scanner) (*api.CanonicalEntity, error) {
	entity := &api.CanonicalEntity{}
	var payload, vector string
	var deleted int
	var updatedAt int64

	err := row.Scan(
		&entity.EntityID,
		&entity.EntityType,
		&entity.ParentID,
		&entity.DeviceID,
		&payload,
		&vector,
		&deleted,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to scan entity: %w", err)
	}

	if err := json.Unmarshal([]byte(payload), &entity.Payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if err := json.Unmarshal([]byte(vector), &entity.VersionVector); err != nil {
		return nil, fmt.Errorf("failed to unmarshal version vector: %w", err)
	}

	entity.Deleted = deleted != 0
	entity.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return entity, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

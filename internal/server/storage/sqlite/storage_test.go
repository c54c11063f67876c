package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/fieldkeeper/internal/models"
	"github.com/iudanet/fieldkeeper/internal/server/storage"
	"github.com/iudanet/fieldkeeper/pkg/api"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	store, err := New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func testDevice(id string) *models.Device {
	return &models.Device{
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
		ID:         id,
		Name:       "office-laptop",
		SecretHash: "$2a$10$fakehashfortests",
	}
}

func testCanonical(entityID string) *api.CanonicalEntity {
	return &api.CanonicalEntity{
		UpdatedAt:     time.Now().UTC().Truncate(time.Second),
		EntityID:      entityID,
		EntityType:    "quote",
		DeviceID:      "device-a",
		Payload:       map[string]any{"title": "Fence repair"},
		VersionVector: map[string]uint64{"device-a": 1},
	}
}

func TestNew_RunsMigrations(t *testing.T) {
	store := newTestStorage(t)

	// Таблицы созданы миграциями
	for _, table := range []string{"devices", "entities"} {
		var name string
		err := store.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s must exist", table)
	}
}

func TestCreateDevice_AndGet(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	device := testDevice("device-1")
	require.NoError(t, store.CreateDevice(ctx, device))

	got, err := store.GetDevice(ctx, "device-1")
	require.NoError(t, err)
	assert.Equal(t, device.Name, got.Name)
	assert.Equal(t, device.SecretHash, got.SecretHash)
}

func TestCreateDevice_Duplicate(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.CreateDevice(ctx, testDevice("device-1")))

	err := store.CreateDevice(ctx, testDevice("device-1"))
	assert.ErrorIs(t, err, storage.ErrDeviceAlreadyExists)
}

func TestGetDevice_NotFound(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.GetDevice(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrDeviceNotFound)
}

func TestUpdateLastLogin(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.CreateDevice(ctx, testDevice("device-1")))

	login := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.UpdateLastLogin(ctx, "device-1", login))

	got, err := store.GetDevice(ctx, "device-1")
	require.NoError(t, err)
	assert.Equal(t, login, got.LastLoginAt)

	err = store.UpdateLastLogin(ctx, "missing", login)
	assert.ErrorIs(t, err, storage.ErrDeviceNotFound)
}

func TestUpsertEntity_InsertAndGet(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	entity := testCanonical("entity-1")
	require.NoError(t, store.UpsertEntity(ctx, entity))

	got, err := store.GetEntity(ctx, "entity-1")
	require.NoError(t, err)
	assert.Equal(t, entity.Payload, got.Payload)
	assert.Equal(t, entity.VersionVector, got.VersionVector)
	assert.Equal(t, entity.UpdatedAt, got.UpdatedAt)
	assert.False(t, got.Deleted)
}

func TestUpsertEntity_ReplacesPreviousVersion(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	entity := testCanonical("entity-1")
	require.NoError(t, store.UpsertEntity(ctx, entity))

	entity.Payload = map[string]any{"title": "Fence repair and paint"}
	entity.VersionVector = map[string]uint64{"device-a": 2}
	require.NoError(t, store.UpsertEntity(ctx, entity))

	got, err := store.GetEntity(ctx, "entity-1")
	require.NoError(t, err)
	assert.Equal(t, "Fence repair and paint", got.Payload["title"])
	assert.Equal(t, uint64(2), got.VersionVector["device-a"])
}

func TestGetEntity_TombstoneIsVisible(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	entity := testCanonical("entity-1")
	entity.Deleted = true
	entity.Payload = nil
	require.NoError(t, store.UpsertEntity(ctx, entity))

	// Tombstone остается читаемым: нужен для сравнения векторов
	got, err := store.GetEntity(ctx, "entity-1")
	require.NoError(t, err)
	assert.True(t, got.Deleted)
}

func TestGetEntity_NotFound(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.GetEntity(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrEntityNotFound)
}

func TestListEntitiesByParent(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	parent := testCanonical("parent-1")
	require.NoError(t, store.UpsertEntity(ctx, parent))

	child1 := testCanonical("child-1")
	child1.EntityType = "line_item"
	child1.ParentID = "parent-1"
	require.NoError(t, store.UpsertEntity(ctx, child1))

	child2 := testCanonical("child-2")
	child2.EntityType = "line_item"
	child2.ParentID = "parent-1"
	child2.Deleted = true
	require.NoError(t, store.UpsertEntity(ctx, child2))

	// Удаленные дети не возвращаются
	children, err := store.ListEntitiesByParent(ctx, "parent-1")
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "child-1", children[0].EntityID)
}

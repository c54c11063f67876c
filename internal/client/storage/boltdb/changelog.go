package boltdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.etcd.io/bbolt"

	"github.com/iudanet/fieldkeeper/internal/client/storage"
	"github.com/iudanet/fieldkeeper/internal/models"
)

// Ключи журнала имеют вид "entityID/seq", где seq - монотонный номер
// внутри бакета. Префиксный курсор по "entityID/" дает журнал одной записи.

func changeLogPrefix(entityID string) []byte {
	return []byte(entityID + "/")
}

// AppendChangeLog adds entries to the entities' change logs
func (s *Storage) AppendChangeLog(ctx context.Context, entries []*models.ChangeLogEntry) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return appendChangeLogTx(tx, entries)
	})
	if err != nil {
		return fmt.Errorf("changelog transaction failed: %w", err)
	}

	return nil
}

// appendChangeLogTx дописывает записи журнала внутри уже открытой транзакции.
func appendChangeLogTx(tx *bbolt.Tx, entries []*models.ChangeLogEntry) error {
	bucket := tx.Bucket(bucketChangeLog)

	for _, entry := range entries {
		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to get changelog sequence: %w", err)
		}

		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal changelog entry: %w", err)
		}

		key := fmt.Sprintf("%s/%016d", entry.EntityID, seq)
		if err := bucket.Put([]byte(key), data); err != nil {
			return fmt.Errorf("failed to save changelog entry: %w", err)
		}
	}

	return nil
}

// GetChangeLog returns the change log for an entity ordered by timestamp
func (s *Storage) GetChangeLog(ctx context.Context, entityID string) ([]*models.ChangeLogEntry, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var entries []*models.ChangeLogEntry

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketChangeLog).Cursor()
		prefix := changeLogPrefix(entityID)

		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var entry models.ChangeLogEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("failed to unmarshal changelog entry: %w", err)
			}

			entries = append(entries, &entry)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read changelog: %w", err)
	}

	// Порядок по seq уже хронологический для одного устройства,
	// но после слияния конфликтов записи могут прийти вразнобой
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})

	return entries, nil
}

// PruneChangeLog removes the change log of an entity after its mutations
// have been durably synced or merged
func (s *Storage) PruneChangeLog(ctx context.Context, entityID string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return pruneChangeLogTx(tx, entityID)
	})
	if err != nil {
		return fmt.Errorf("prune transaction failed: %w", err)
	}

	return nil
}

// pruneChangeLogTx удаляет журнал записи внутри уже открытой транзакции.
func pruneChangeLogTx(tx *bbolt.Tx, entityID string) error {
	bucket := tx.Bucket(bucketChangeLog)
	c := bucket.Cursor()
	prefix := changeLogPrefix(entityID)

	var keys [][]byte
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		keys = append(keys, append([]byte(nil), k...))
	}

	for _, k := range keys {
		if err := bucket.Delete(k); err != nil {
			return fmt.Errorf("failed to delete changelog entry: %w", err)
		}
	}

	return nil
}

// Package snapshot persists the last good generation of every marketplace in
// an embedded bbolt file, so a restart can serve data even when a source is
// broken at boot.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/commission-finder/internal/commission"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var bucketSnapshots = []byte("snapshots")

// ErrNotFound is returned by Load for marketplaces without a snapshot.
var ErrNotFound = errors.New("snapshot not found")

// Store is a bbolt backed snapshot store. One key per marketplace, the
// value is the JSON encoded commission.Snapshot.
type Store struct {
	db     *bolt.DB
	logger *zap.Logger
}

// Open opens (or creates) the database at path.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSnapshots)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the snapshot of snap.Marketplace.
func (s *Store) Save(snap commission.Snapshot) error {
	if snap.Marketplace == "" {
		return fmt.Errorf("snapshot without marketplace")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSnapshots).Put([]byte(snap.Marketplace), data)
	})
}

// Load returns the snapshot of id or ErrNotFound.
func (s *Store) Load(id string) (commission.Snapshot, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		// bbolt slices are only valid inside the transaction.
		if v := tx.Bucket(bucketSnapshots).Get([]byte(id)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return commission.Snapshot{}, err
	}
	if data == nil {
		return commission.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	var snap commission.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return commission.Snapshot{}, fmt.Errorf("unmarshal snapshot %s: %w", id, err)
	}
	return snap, nil
}

// Delete removes the snapshot of id. Missing ids are not an error.
func (s *Store) Delete(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSnapshots).Delete([]byte(id))
	})
}

// IDs lists the marketplaces that have a snapshot, in key order.
func (s *Store) IDs() ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSnapshots).ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	return ids, err
}

// Prune deletes the snapshots of marketplaces not in keep, such as ones
// removed or disabled in the registry file. It returns the pruned ids.
func (s *Store) Prune(keep []string) ([]string, error) {
	ids, err := s.IDs()
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	wanted := make(map[string]bool, len(keep))
	for _, id := range keep {
		wanted[id] = true
	}
	var pruned []string
	for _, id := range ids {
		if wanted[id] {
			continue
		}
		if err := s.Delete(id); err != nil {
			return pruned, fmt.Errorf("delete snapshot %s: %w", id, err)
		}
		pruned = append(pruned, id)
	}
	return pruned, nil
}

// Hook returns a publish hook that saves every fresh generation. Restored
// generations are skipped since they came from this store.
func (s *Store) Hook() commission.PublishHook {
	return func(id string, gen *commission.Generation) {
		if gen == nil || gen.Restored {
			return
		}
		if err := s.Save(gen.Snapshot(id)); err != nil {
			s.logger.Warn("Failed to save snapshot",
				zap.String("marketplace", id),
				zap.Uint64("generation", gen.Number),
				zap.Error(err))
		}
	}
}

// RestoreAll hands every stored snapshot of ids to the registry. It returns
// the ids that were actually restored.
func (s *Store) RestoreAll(reg *commission.Registry, ids []string) []string {
	var restored []string
	for _, id := range ids {
		snap, err := s.Load(id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			s.logger.Warn("Failed to read snapshot", zap.String("marketplace", id), zap.Error(err))
			continue
		}
		used, err := reg.Restore(id, snap)
		if err != nil {
			s.logger.Warn("Failed to restore snapshot", zap.String("marketplace", id), zap.Error(err))
			continue
		}
		if used {
			restored = append(restored, id)
		}
	}
	return restored
}

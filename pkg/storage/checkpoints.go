package storage

import (
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/orneryd/hoverthrust/pkg/hoverthrust"
)

// Checkpoint is the learned estimator state of one vehicle.
type Checkpoint struct {
	VehicleID string
	State     hoverthrust.State
	Valid     bool   // estimate was valid when saved
	RunID     string // run that produced it, empty if saved live
	SavedAt   time.Time
}

// SaveCheckpoint stores cp under cp.VehicleID, replacing any previous one.
// A zero SavedAt is set to the current time.
func (b *BadgerStore) SaveCheckpoint(cp Checkpoint) error {
	if cp.VehicleID == "" {
		return ErrInvalidID
	}
	if cp.SavedAt.IsZero() {
		cp.SavedAt = time.Now().UTC()
	}

	data, err := encode(&cp)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	return b.withUpdate(func(txn *badger.Txn) error {
		return txn.Set(checkpointKey(cp.VehicleID), data)
	})
}

// LoadCheckpoint returns the checkpoint of vehicleID or ErrNotFound.
func (b *BadgerStore) LoadCheckpoint(vehicleID string) (Checkpoint, error) {
	if vehicleID == "" {
		return Checkpoint{}, ErrInvalidID
	}

	var cp Checkpoint
	err := b.withView(func(txn *badger.Txn) error {
		return getValue(txn, checkpointKey(vehicleID), &cp)
	})
	if err != nil {
		return Checkpoint{}, err
	}
	return cp, nil
}

// ListCheckpoints returns all checkpoints ordered by vehicle ID.
func (b *BadgerStore) ListCheckpoints() ([]Checkpoint, error) {
	var checkpoints []Checkpoint
	err := b.withView(func(txn *badger.Txn) error {
		it := txn.NewIterator(iterOptsPrefetchValues([]byte{prefixCheckpoint}))
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var cp Checkpoint
			if err := it.Item().Value(func(val []byte) error {
				return decode(val, &cp)
			}); err != nil {
				return fmt.Errorf("failed to decode checkpoint %q: %w", it.Item().Key()[1:], err)
			}
			checkpoints = append(checkpoints, cp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(checkpoints, func(i, j int) bool {
		return checkpoints[i].VehicleID < checkpoints[j].VehicleID
	})
	return checkpoints, nil
}

// DeleteCheckpoint removes the checkpoint of vehicleID.
func (b *BadgerStore) DeleteCheckpoint(vehicleID string) error {
	if vehicleID == "" {
		return ErrInvalidID
	}
	return b.withUpdate(func(txn *badger.Txn) error {
		key := checkpointKey(vehicleID)
		if _, err := txn.Get(key); err == badger.ErrKeyNotFound {
			return ErrNotFound
		} else if err != nil {
			return err
		}
		return txn.Delete(key)
	})
}

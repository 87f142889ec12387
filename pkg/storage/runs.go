package storage

import (
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/orneryd/hoverthrust/pkg/hover"
)

// Run is the metadata of one replayed flight log.
type Run struct {
	ID        string
	VehicleID string
	Source    string // log file the samples came from
	Frame     string
	CreatedAt time.Time

	// Filled in once the replay finished
	Samples          int
	Accepted         int
	Rejected         int
	FinalHoverThrust float64
	FinalVariance    float64
	Valid            bool
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.New().String()
}

// SaveRun creates or updates run metadata. An empty ID is replaced with a new
// one and a zero CreatedAt with the current time; both are written back to run.
func (b *BadgerStore) SaveRun(run *Run) error {
	if run == nil {
		return ErrInvalidData
	}
	if run.ID == "" {
		run.ID = NewRunID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	data, err := encode(run)
	if err != nil {
		return fmt.Errorf("failed to encode run: %w", err)
	}

	return b.withUpdate(func(txn *badger.Txn) error {
		return txn.Set(runKey(run.ID), data)
	})
}

// LoadRun returns the metadata of runID or ErrNotFound.
func (b *BadgerStore) LoadRun(runID string) (Run, error) {
	if runID == "" {
		return Run{}, ErrInvalidID
	}

	var run Run
	err := b.withView(func(txn *badger.Txn) error {
		return getValue(txn, runKey(runID), &run)
	})
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// ListRuns returns all runs, oldest first.
func (b *BadgerStore) ListRuns() ([]Run, error) {
	var runs []Run
	err := b.withView(func(txn *badger.Txn) error {
		it := txn.NewIterator(iterOptsPrefetchValues([]byte{prefixRun}))
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var run Run
			if err := it.Item().Value(func(val []byte) error {
				return decode(val, &run)
			}); err != nil {
				return fmt.Errorf("failed to decode run: %w", err)
			}
			runs = append(runs, run)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].CreatedAt.Before(runs[j].CreatedAt)
	})
	return runs, nil
}

// AppendRecords stores recs after the last record of runID.
// The run must exist.
func (b *BadgerStore) AppendRecords(runID string, recs []hover.Record) error {
	if runID == "" {
		return ErrInvalidID
	}
	if len(recs) == 0 {
		return nil
	}
	if err := b.ensureOpen(); err != nil {
		return err
	}

	b.appendMu.Lock()
	defer b.appendMu.Unlock()

	var next uint64
	err := b.withView(func(txn *badger.Txn) error {
		if _, err := txn.Get(runKey(runID)); err == badger.ErrKeyNotFound {
			return ErrNotFound
		} else if err != nil {
			return err
		}
		var err error
		next, err = nextSeq(txn, runID)
		return err
	})
	if err != nil {
		return err
	}

	// Records of a long flight do not fit in one transaction.
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()

	for i := range recs {
		data, err := encode(&recs[i])
		if err != nil {
			return fmt.Errorf("failed to encode record %d: %w", i, err)
		}
		if err := wb.Set(recordKey(runID, next+uint64(i)), data); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	return wb.Flush()
}

// nextSeq returns the sequence number after the last stored record of runID.
func nextSeq(txn *badger.Txn, runID string) (uint64, error) {
	prefix := recordPrefix(runID)
	opts := iterOptsKeyOnly(prefix)
	opts.Reverse = true
	it := txn.NewIterator(opts)
	defer it.Close()

	// Reverse iteration starts at the largest key <= seek.
	seek := append(append([]byte{}, prefix...), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
	it.Seek(seek)
	if !it.Valid() {
		return 0, nil
	}
	return seqFromRecordKey(it.Item().Key()) + 1, nil
}

// RunRecords returns every record of runID in publication order.
func (b *BadgerStore) RunRecords(runID string) ([]hover.Record, error) {
	if runID == "" {
		return nil, ErrInvalidID
	}

	var records []hover.Record
	err := b.withView(func(txn *badger.Txn) error {
		if _, err := txn.Get(runKey(runID)); err == badger.ErrKeyNotFound {
			return ErrNotFound
		} else if err != nil {
			return err
		}

		it := txn.NewIterator(iterOptsPrefetchValues(recordPrefix(runID)))
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var rec hover.Record
			if err := it.Item().Value(func(val []byte) error {
				return decode(val, &rec)
			}); err != nil {
				return fmt.Errorf("failed to decode record %d: %w", seqFromRecordKey(it.Item().Key()), err)
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteRun removes a run and all its records. Returns the number of records
// deleted.
func (b *BadgerStore) DeleteRun(runID string) (int, error) {
	if runID == "" {
		return 0, ErrInvalidID
	}

	var keys [][]byte
	err := b.withView(func(txn *badger.Txn) error {
		if _, err := txn.Get(runKey(runID)); err == badger.ErrKeyNotFound {
			return ErrNotFound
		} else if err != nil {
			return err
		}

		it := txn.NewIterator(iterOptsKeyOnly(recordPrefix(runID)))
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return 0, fmt.Errorf("failed to delete record: %w", err)
		}
	}
	if err := wb.Delete(runKey(runID)); err != nil {
		return 0, fmt.Errorf("failed to delete run: %w", err)
	}
	if err := wb.Flush(); err != nil {
		return 0, err
	}
	return len(keys), nil
}

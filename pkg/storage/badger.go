// Package storage persists hover thrust checkpoints and replay runs.
//
// BadgerStore keeps everything in a single BadgerDB instance:
//   - the last learned estimator state per vehicle (checkpoints), so a vehicle
//     starts its next flight from what it learned on the previous one
//   - replay runs: metadata plus every tracker record, so a replay can be
//     inspected or compared later without re-running it
//
// Key Structure:
//   - Checkpoints: 0x01 + vehicleID -> gob(Checkpoint)
//   - Runs:        0x02 + runID -> gob(Run)
//   - Records:     0x03 + runID + 0x00 + uint64 BE seq -> gob(hover.Record)
//
// Example:
//
//	store, err := storage.NewBadgerStore("./data")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	cp, err := store.LoadCheckpoint("x500")
//	if err == nil {
//		tracker.Restore(cp.State)
//	}
package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// Key prefixes for BadgerDB storage organization
const (
	prefixCheckpoint = byte(0x01) // checkpoint:vehicleID -> Checkpoint
	prefixRun        = byte(0x02) // run:runID -> Run
	prefixRecord     = byte(0x03) // record:runID:seq -> hover.Record
)

// Errors returned by BadgerStore.
var (
	ErrNotFound      = errors.New("not found")
	ErrStorageClosed = errors.New("storage closed")
	ErrInvalidID     = errors.New("invalid id")
	ErrInvalidData   = errors.New("invalid data")
)

// BadgerOptions configures the BadgerDB store.
type BadgerOptions struct {
	// DataDir is the directory for storing data files.
	// Required unless InMemory is set.
	DataDir string

	// InMemory runs BadgerDB in memory-only mode.
	// Useful for testing. Data is not persisted.
	InMemory bool

	// SyncWrites forces fsync after each write.
	SyncWrites bool

	// Logger for BadgerDB internal logging.
	// If nil, BadgerDB logging is disabled.
	Logger badger.Logger

	// LowMemory shrinks memtables and caches for companion computers.
	LowMemory bool
}

// BadgerStore is the persistent store for checkpoints and replay runs.
//
// Thread Safety:
//
//	Safe for concurrent use from multiple goroutines.
type BadgerStore struct {
	db       *badger.DB
	mu       sync.RWMutex // guards closed
	closed   bool
	inMemory bool

	appendMu sync.Mutex // serializes sequence allocation in AppendRecords
}

// NewBadgerStore opens (or creates) a store in dataDir with default settings.
func NewBadgerStore(dataDir string) (*BadgerStore, error) {
	return NewBadgerStoreWithOptions(BadgerOptions{
		DataDir: dataDir,
	})
}

// NewBadgerStoreWithOptions opens a store with custom configuration.
//
// Example - Low memory mode on the vehicle:
//
//	store, err := storage.NewBadgerStoreWithOptions(storage.BadgerOptions{
//		DataDir:    "/fs/microsd/hoverthrust",
//		LowMemory:  true,
//		SyncWrites: true,
//	})
func NewBadgerStoreWithOptions(opts BadgerOptions) (*BadgerStore, error) {
	if !opts.InMemory && opts.DataDir == "" {
		return nil, fmt.Errorf("data dir is required for a persistent store")
	}

	badgerOpts := badger.DefaultOptions(opts.DataDir)
	if opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true)
	}

	if opts.SyncWrites {
		badgerOpts = badgerOpts.WithSyncWrites(true)
	}

	if opts.Logger != nil {
		badgerOpts = badgerOpts.WithLogger(opts.Logger)
	} else {
		// Use a quiet logger by default
		badgerOpts = badgerOpts.WithLogger(nil)
	}

	if opts.LowMemory {
		badgerOpts = badgerOpts.
			WithMemTableSize(8 << 20).      // 8MB memtable
			WithValueLogFileSize(32 << 20). // 32MB value log
			WithNumMemtables(1).
			WithNumLevelZeroTables(1).
			WithNumLevelZeroTablesStall(2).
			WithBlockCacheSize(8 << 20). // 8MB block cache
			WithIndexCacheSize(4 << 20)  // 4MB index cache
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	return &BadgerStore{
		db:       db,
		inMemory: opts.InMemory,
	}, nil
}

// NewBadgerStoreInMemory creates an in-memory store for testing.
//
// Data is lost when the store is closed.
func NewBadgerStoreInMemory() (*BadgerStore, error) {
	return NewBadgerStoreWithOptions(BadgerOptions{
		InMemory: true,
	})
}

// IsInMemory returns true if the store is running in memory-only mode.
func (b *BadgerStore) IsInMemory() bool {
	return b.inMemory
}

// Close closes the underlying database. Further calls return ErrStorageClosed.
func (b *BadgerStore) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}

func (b *BadgerStore) ensureOpen() error {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return ErrStorageClosed
	}
	return nil
}

func (b *BadgerStore) withView(fn func(txn *badger.Txn) error) error {
	if err := b.ensureOpen(); err != nil {
		return err
	}
	return b.db.View(fn)
}

func (b *BadgerStore) withUpdate(fn func(txn *badger.Txn) error) error {
	if err := b.ensureOpen(); err != nil {
		return err
	}
	return b.db.Update(fn)
}

func iterOptsPrefetchValues(prefix []byte) badger.IteratorOptions {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = true
	opts.Prefix = prefix
	return opts
}

func iterOptsKeyOnly(prefix []byte) badger.IteratorOptions {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	return opts
}

// ============================================================================
// Key encoding helpers
// ============================================================================

func checkpointKey(vehicleID string) []byte {
	return append([]byte{prefixCheckpoint}, vehicleID...)
}

func runKey(runID string) []byte {
	return append([]byte{prefixRun}, runID...)
}

// recordPrefix returns the prefix shared by all records of a run. The 0x00
// separator keeps one run ID from prefixing another.
func recordPrefix(runID string) []byte {
	key := make([]byte, 0, 1+len(runID)+1)
	key = append(key, prefixRecord)
	key = append(key, runID...)
	return append(key, 0x00)
}

func recordKey(runID string, seq uint64) []byte {
	key := recordPrefix(runID)
	return binary.BigEndian.AppendUint64(key, seq)
}

func seqFromRecordKey(key []byte) uint64 {
	if len(key) < 8 {
		return 0
	}
	return binary.BigEndian.Uint64(key[len(key)-8:])
}

// ============================================================================
// Serialization helpers
// ============================================================================

// encode serializes a value using gob (preserves Go types like time.Time).
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decode deserializes a gob value into v.
func decode(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// getValue loads and decodes key into v, mapping a missing key to ErrNotFound.
func getValue(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return decode(val, v)
	})
}

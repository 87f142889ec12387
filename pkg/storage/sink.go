package storage

import (
	"sync"

	"github.com/orneryd/hoverthrust/pkg/hover"
)

// DefaultSinkBatchSize is how many records a RecordSink buffers before writing.
const DefaultSinkBatchSize = 512

// RecordSink appends tracker records to a stored run. It implements
// hover.Sink. Records are buffered; call Flush when the run is over.
type RecordSink struct {
	store     *BadgerStore
	runID     string
	batchSize int

	mu  sync.Mutex
	buf []hover.Record
}

var _ hover.Sink = (*RecordSink)(nil)

// NewRecordSink returns a sink writing into runID. batchSize <= 0 uses
// DefaultSinkBatchSize.
func NewRecordSink(store *BadgerStore, runID string, batchSize int) *RecordSink {
	if batchSize <= 0 {
		batchSize = DefaultSinkBatchSize
	}
	return &RecordSink{
		store:     store,
		runID:     runID,
		batchSize: batchSize,
		buf:       make([]hover.Record, 0, batchSize),
	}
}

// RunID returns the run this sink writes to.
func (s *RecordSink) RunID() string {
	return s.runID
}

// Publish buffers rec and writes the batch once it is full.
func (s *RecordSink) Publish(rec hover.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf = append(s.buf, rec)
	if len(s.buf) < s.batchSize {
		return nil
	}
	return s.flushLocked()
}

// Flush writes any buffered records.
func (s *RecordSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

func (s *RecordSink) flushLocked() error {
	if len(s.buf) == 0 {
		return nil
	}
	if err := s.store.AppendRecords(s.runID, s.buf); err != nil {
		return err
	}
	s.buf = s.buf[:0]
	return nil
}

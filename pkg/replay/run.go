package replay

import (
	"context"
	"errors"
	"fmt"

	"github.com/orneryd/hoverthrust/pkg/hover"
)

// Flusher is implemented by sinks that buffer, such as storage.RecordSink.
type Flusher interface {
	Flush() error
}

// Run feeds samples through tr and publishes every record to sinks.
//
// The context is checked between samples. On cancellation or a sink error
// the records produced so far are returned together with the error.
// Buffering sinks are flushed before Run returns in every case.
func Run(ctx context.Context, tr *hover.Tracker, samples []hover.Sample, sinks ...hover.Sink) ([]hover.Record, error) {
	records := make([]hover.Record, 0, len(samples))

	var runErr error
loop:
	for i, s := range samples {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
			break loop
		default:
		}

		rec := tr.Update(s)
		records = append(records, rec)

		for _, sink := range sinks {
			if err := sink.Publish(rec); err != nil {
				runErr = fmt.Errorf("sample %d: publish failed: %w", i, err)
				break loop
			}
		}
	}

	return records, errors.Join(runErr, flushSinks(sinks))
}

func flushSinks(sinks []hover.Sink) error {
	var errs []error
	for _, sink := range sinks {
		if f, ok := sink.(Flusher); ok {
			if err := f.Flush(); err != nil {
				errs = append(errs, fmt.Errorf("flush failed: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}

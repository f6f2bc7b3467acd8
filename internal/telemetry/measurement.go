package telemetry

import (
	"errors"
	"fmt"
	"time"
)

// ErrWriteFailed is matched by every WriteError returned from a sink.
var ErrWriteFailed = errors.New("telemetry: write failed")

// ErrNoFields indicates a measurement without any field values.
// Time-series stores reject such points, so sinks refuse them up front.
var ErrNoFields = errors.New("telemetry: measurement has no fields")

// Measurement is a flat, tagged record ready for a single time-series write.
//
// Field values are float64, int64, bool or string. Time is always UTC.
type Measurement struct {
	Name   string
	Tags   map[string]string
	Fields map[string]any
	Time   time.Time
}

// Check reports whether the measurement can be written.
func (m Measurement) Check() error {
	if m.Name == "" {
		return errors.New("telemetry: measurement name is empty")
	}
	if len(m.Fields) == 0 {
		return ErrNoFields
	}
	return nil
}

// WriteError wraps a failure reported by a time-series store.
type WriteError struct {
	Bucket      string
	Measurement string
	Cause       error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("telemetry: writing %s to bucket %q: %v", e.Measurement, e.Bucket, e.Cause)
}

// Unwrap returns the underlying store error.
func (e *WriteError) Unwrap() error {
	return e.Cause
}

// Is matches ErrWriteFailed.
func (e *WriteError) Is(target error) bool {
	return target == ErrWriteFailed
}

package collector

import (
	"context"

	"github.com/nerrad567/gray-logic-solar/internal/fronius"
	"github.com/nerrad567/gray-logic-solar/internal/telemetry"
)

// Fetcher retrieves a raw device payload. Implemented by *fronius.Client.
type Fetcher interface {
	Fetch(ctx context.Context, path string) (*fronius.Payload, error)
}

// Writer persists one measurement synchronously.
// Implemented by *influxdb.Client and *tsdb.Client; store failures are
// returned as *telemetry.WriteError.
type Writer interface {
	Write(ctx context.Context, bucket, org string, m telemetry.Measurement) error
}

// FanOut returns a Writer that writes to each writer in order and stops at
// the first failure. Nil writers are skipped; with none left every Write
// fails with ErrNoWriters.
func FanOut(writers ...Writer) Writer {
	sinks := make(fanOut, 0, len(writers))
	for _, w := range writers {
		if w != nil {
			sinks = append(sinks, w)
		}
	}
	switch len(sinks) {
	case 0:
		return noWriters{}
	case 1:
		return sinks[0]
	}
	return sinks
}

type noWriters struct{}

func (noWriters) Write(context.Context, string, string, telemetry.Measurement) error {
	return ErrNoWriters
}

type fanOut []Writer

func (f fanOut) Write(ctx context.Context, bucket, org string, m telemetry.Measurement) error {
	for _, w := range f {
		if err := w.Write(ctx, bucket, org, m); err != nil {
			return err
		}
	}
	return nil
}

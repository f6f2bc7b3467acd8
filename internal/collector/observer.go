package collector

import (
	"context"
	"time"
)

// CycleResult summarises one finished poll cycle.
type CycleResult struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration

	// FailedStep is the state the cycle was in when it failed; empty on success.
	FailedStep State
	Kind       ErrorKind
	Err        error

	SiteWritten   bool
	MetersWritten int
}

// OK reports whether the cycle completed without error.
func (r CycleResult) OK() bool {
	return r.Err == nil
}

// CycleObserver receives every finished cycle.
// Implementations must not block for long; the loop waits for them.
type CycleObserver interface {
	ObserveCycle(ctx context.Context, result CycleResult) error
}

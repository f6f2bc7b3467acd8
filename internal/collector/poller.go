package collector

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-solar/internal/fronius"
)

// State is the poll loop's current step.
type State string

// Poll loop states, in cycle order. StateRecovering is entered from any step.
const (
	StatePollingSite   State = "polling_site"
	StateMappingSite   State = "mapping_site"
	StateWritingSite   State = "writing_site"
	StatePausing       State = "pausing"
	StatePollingMeters State = "polling_meters"
	StateMappingMeters State = "mapping_meters"
	StateWritingMeters State = "writing_meters"
	StateIdle          State = "idle"
	StateRecovering    State = "recovering"
)

// Config holds the poll loop settings.
type Config struct {
	// Location is written as the "location" tag on every measurement.
	Location string

	// Org is passed to the writer (InfluxDB organisation).
	Org string

	// SiteBucket receives SiteValues; MeterBucket receives MeterValues.
	SiteBucket  string
	MeterBucket string

	// SiteMeterPause is slept between the site write and the meter fetch.
	SiteMeterPause time.Duration

	// CycleInterval is slept after a successful cycle.
	CycleInterval time.Duration

	// RecoveryInterval is slept after any failed cycle.
	RecoveryInterval time.Duration

	// TimestampSource is "collector" or "device"; see fronius.Mapper.
	TimestampSource string
}

// DefaultConfig returns the standard pacing: 2s pause, 3s cycle interval,
// 15s recovery interval.
func DefaultConfig() Config {
	return Config{
		Location:         "home",
		SiteBucket:       "SiteBucket",
		MeterBucket:      "MeterBucket",
		SiteMeterPause:   2 * time.Second,
		CycleInterval:    3 * time.Second,
		RecoveryInterval: 15 * time.Second,
		TimestampSource:  "collector",
	}
}

// Logger defines the logging interface for the poller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Poller runs the fetch → map → write loop.
type Poller struct {
	cfg     Config
	fetcher Fetcher
	writer  Writer
	mapper  fronius.Mapper
	logger  Logger

	observers []CycleObserver

	mu    sync.RWMutex
	state State

	// Replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// New creates a Poller. The fetcher and writer are required.
func New(cfg Config, fetcher Fetcher, writer Writer) (*Poller, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("%w: fetcher is nil", ErrInvalidConfig)
	}
	if writer == nil {
		return nil, fmt.Errorf("%w: writer is nil", ErrInvalidConfig)
	}
	if cfg.SiteBucket == "" || cfg.MeterBucket == "" {
		return nil, fmt.Errorf("%w: site and meter buckets are required", ErrInvalidConfig)
	}
	if cfg.SiteMeterPause < 0 || cfg.CycleInterval < 0 || cfg.RecoveryInterval < 0 {
		return nil, fmt.Errorf("%w: intervals must not be negative", ErrInvalidConfig)
	}

	return &Poller{
		cfg:     cfg,
		fetcher: fetcher,
		writer:  writer,
		mapper:  fronius.Mapper{TimestampSource: cfg.TimestampSource},
		logger:  noopLogger{},
		state:   StateIdle,
		sleep:   sleepContext,
		now:     time.Now,
	}, nil
}

// SetLogger sets the logger for the poller.
func (p *Poller) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	p.logger = logger
}

// AddObserver registers an observer for finished cycles.
// Must be called before Run.
func (p *Poller) AddObserver(o CycleObserver) {
	if o != nil {
		p.observers = append(p.observers, o)
	}
}

// State returns the step the loop is currently in.
func (p *Poller) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

func (p *Poller) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// Run polls until ctx is cancelled, then returns nil.
// Cycle failures never end the loop.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poll loop started",
		"site_bucket", p.cfg.SiteBucket,
		"meter_bucket", p.cfg.MeterBucket,
		"cycle_interval", p.cfg.CycleInterval,
		"recovery_interval", p.cfg.RecoveryInterval,
	)

	for {
		if ctx.Err() != nil {
			p.logger.Info("poll loop stopped")
			return nil
		}

		result := p.runCycle(ctx)
		if ctx.Err() != nil {
			p.logger.Info("poll loop stopped", "cycle_id", result.ID)
			return nil
		}

		p.notify(ctx, result)

		delay := p.cfg.CycleInterval
		if result.Err != nil {
			p.setState(StateRecovering)
			delay = p.cfg.RecoveryInterval
			p.logger.Warn("poll cycle failed, recovering",
				"cycle_id", result.ID,
				"step", string(result.FailedStep),
				"kind", string(result.Kind),
				"error", result.Err,
				"retry_in", delay,
			)
		} else {
			p.setState(StateIdle)
			p.logger.Debug("poll cycle complete",
				"cycle_id", result.ID,
				"meters_written", result.MetersWritten,
				"duration", result.Duration,
			)
		}

		if err := p.sleep(ctx, delay); err != nil {
			p.logger.Info("poll loop stopped")
			return nil
		}
	}
}

// runCycle performs one site + meters pass. Panics are converted into a
// *PanicError on the result.
func (p *Poller) runCycle(ctx context.Context) (result CycleResult) {
	result = CycleResult{
		ID:        uuid.NewString(),
		StartedAt: p.now().UTC(),
	}
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			result.Err = &PanicError{Value: r, Stack: stack}
			p.logger.Error("panic recovered in poll cycle",
				"cycle_id", result.ID,
				"panic", r,
				"stack", string(stack),
			)
		}
		if result.Err != nil {
			result.FailedStep = p.State()
			result.Kind = Kind(result.Err)
		}
		result.Duration = time.Since(start)
	}()

	if err := p.collectSite(ctx, result.ID); err != nil {
		result.Err = err
		return result
	}
	result.SiteWritten = true

	p.setState(StatePausing)
	if err := p.sleep(ctx, p.cfg.SiteMeterPause); err != nil {
		result.Err = err
		return result
	}

	written, err := p.collectMeters(ctx, result.ID)
	result.MetersWritten = written
	if err != nil {
		result.Err = err
	}
	return result
}

func (p *Poller) collectSite(ctx context.Context, cycleID string) error {
	p.setState(StatePollingSite)
	payload, err := p.fetcher.Fetch(ctx, fronius.PowerFlowPath)
	if err != nil {
		return err
	}

	p.setState(StateMappingSite)
	site, inverters, err := p.mapper.PowerFlow(payload)
	if err != nil {
		return err
	}

	p.setState(StateWritingSite)
	m := site.Measurement(p.cfg.Location)
	if err := p.writer.Write(ctx, p.cfg.SiteBucket, p.cfg.Org, m); err != nil {
		return err
	}

	p.logger.Info("site values written",
		"cycle_id", cycleID,
		"bucket", p.cfg.SiteBucket,
		"fields", len(m.Fields),
		"inverters", len(inverters),
		"time", m.Time,
	)
	return nil
}

func (p *Poller) collectMeters(ctx context.Context, cycleID string) (int, error) {
	p.setState(StatePollingMeters)
	payload, err := p.fetcher.Fetch(ctx, fronius.MeterPath)
	if err != nil {
		return 0, err
	}

	p.setState(StateMappingMeters)
	meters, err := p.mapper.Meters(payload)
	if err != nil {
		return 0, err
	}

	p.setState(StateWritingMeters)
	written := 0
	for _, meter := range meters {
		m := meter.Measurement(p.cfg.Location)
		if err := p.writer.Write(ctx, p.cfg.MeterBucket, p.cfg.Org, m); err != nil {
			return written, err
		}
		written++

		p.logger.Info("meter values written",
			"cycle_id", cycleID,
			"bucket", p.cfg.MeterBucket,
			"meter", meter.DeviceID,
			"serial", meter.Serial,
			"fields", len(m.Fields),
		)
	}

	if len(meters) == 0 {
		p.logger.Debug("no meters reported", "cycle_id", cycleID)
	}
	return written, nil
}

func (p *Poller) notify(ctx context.Context, result CycleResult) {
	for _, o := range p.observers {
		if err := o.ObserveCycle(ctx, result); err != nil {
			p.logger.Warn("cycle observer failed",
				"cycle_id", result.ID,
				"error", err,
			)
		}
	}
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

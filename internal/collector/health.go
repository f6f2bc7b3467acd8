package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

const (
	// defaultHealthInterval is used when HealthReporterConfig.Interval is zero.
	defaultHealthInterval = 30 * time.Second

	// componentCheckTimeout bounds all component checks for one message.
	componentCheckTimeout = 5 * time.Second

	// ComponentOK is the component value for a passing health check.
	ComponentOK = "ok"
)

// HealthStatus is the collector status carried in health messages.
type HealthStatus string

const (
	// HealthStarting is reported before the first cycle finishes.
	HealthStarting HealthStatus = "starting"

	// HealthHealthy is reported after a successful cycle.
	HealthHealthy HealthStatus = "healthy"

	// HealthRecovering is reported after a failed cycle.
	HealthRecovering HealthStatus = "recovering"

	// HealthStopping is reported once on shutdown.
	HealthStopping HealthStatus = "stopping"
)

// HealthMessage is the retained JSON document published on the health topic.
type HealthMessage struct {
	SiteID  string       `json:"site_id"`
	Version string       `json:"version"`
	Status  HealthStatus `json:"status"`

	// Reason explains the status (especially recovering).
	Reason string `json:"reason,omitempty"`

	ConsecutiveFailures int    `json:"consecutive_failures"`
	CyclesTotal         uint64 `json:"cycles_total"`
	CyclesFailed        uint64 `json:"cycles_failed"`

	LastSuccess   *time.Time `json:"last_success,omitempty"`
	LastErrorKind ErrorKind  `json:"last_error_kind,omitempty"`

	// Components maps each checked dependency to "ok" or its error text.
	Components map[string]string `json:"components,omitempty"`

	UptimeSeconds int64     `json:"uptime_seconds"`
	Timestamp     time.Time `json:"timestamp"`
}

// HealthPublisher is the interface for publishing health messages.
// This is typically implemented by an MQTT client.
type HealthPublisher interface {
	// PublishRetained sends a retained message at the publisher's configured QoS.
	PublishRetained(topic string, payload []byte) error

	// IsConnected returns true if the publisher is connected.
	IsConnected() bool
}

// HealthChecker is a dependency whose health is included in each message.
// Implemented by the store clients, the journal database and the MQTT client.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthReporterConfig holds configuration for the health reporter.
type HealthReporterConfig struct {
	// SiteID identifies the installation in health messages.
	SiteID string

	// Version is the collector software version.
	Version string

	// Topic is the retained health topic, e.g. graylogic/solar/site-001/health.
	Topic string

	// Interval is how often to publish health status.
	// Default: 30 seconds.
	Interval time.Duration

	// Publisher is the MQTT client for publishing messages.
	Publisher HealthPublisher

	// Checks are run for every message, keyed by component name.
	Checks map[string]HealthChecker
}

// HealthReporter publishes periodic health status and republishes
// immediately when the status changes. It observes poll cycles.
type HealthReporter struct {
	siteID    string
	version   string
	topic     string
	startTime time.Time
	interval  time.Duration
	publisher HealthPublisher
	checks    map[string]HealthChecker

	mu                  sync.Mutex
	status              HealthStatus
	reason              string
	consecutiveFailures int
	cyclesTotal         uint64
	cyclesFailed        uint64
	lastSuccess         time.Time
	lastErrorKind       ErrorKind

	// kick requests an out-of-band publish after a status change.
	kick chan struct{}

	// Shutdown coordination (stopOnce prevents double-close panics)
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger   Logger
	loggerMu sync.RWMutex
}

// NewHealthReporter creates a new health reporter in the starting state.
// Call Start to begin reporting.
func NewHealthReporter(cfg HealthReporterConfig) *HealthReporter {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultHealthInterval
	}

	return &HealthReporter{
		siteID:    cfg.SiteID,
		version:   cfg.Version,
		topic:     cfg.Topic,
		startTime: time.Now(),
		interval:  interval,
		publisher: cfg.Publisher,
		checks:    cfg.Checks,
		status:    HealthStarting,
		reason:    "collector starting",
		kick:      make(chan struct{}, 1),
		done:      make(chan struct{}),
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for this reporter.
func (h *HealthReporter) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	h.loggerMu.Lock()
	h.logger = logger
	h.loggerMu.Unlock()
}

// Start begins periodic health reporting until ctx is cancelled or Stop is called.
func (h *HealthReporter) Start(ctx context.Context) {
	h.wg.Add(1)
	go h.reportLoop(ctx)
}

// Stop ends reporting and publishes a final "stopping" status.
// Safe to call multiple times.
func (h *HealthReporter) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.wg.Wait()

		h.mu.Lock()
		h.status = HealthStopping
		h.reason = "shutdown"
		h.mu.Unlock()

		if err := h.PublishNow(); err != nil {
			h.logError("failed to publish stopping health", err)
		}
	})
}

// ObserveCycle updates the counters from a finished cycle. It never blocks
// on the publisher; a status change is published by the report loop.
func (h *HealthReporter) ObserveCycle(_ context.Context, result CycleResult) error {
	h.mu.Lock()
	previous := h.status

	h.cyclesTotal++
	if result.OK() {
		h.consecutiveFailures = 0
		h.lastSuccess = result.StartedAt.Add(result.Duration)
		h.status = HealthHealthy
		h.reason = ""
	} else {
		h.cyclesFailed++
		h.consecutiveFailures++
		h.lastErrorKind = result.Kind
		h.status = HealthRecovering
		h.reason = fmt.Sprintf("%s failed (%s)", result.FailedStep, result.Kind)
	}

	changed := h.status != previous
	h.mu.Unlock()

	if changed {
		select {
		case h.kick <- struct{}{}:
		default:
		}
	}
	return nil
}

// Message returns the current health message, running the component checks.
func (h *HealthReporter) Message() HealthMessage {
	components := h.checkComponents()

	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now().UTC()
	msg := HealthMessage{
		SiteID:              h.siteID,
		Version:             h.version,
		Status:              h.status,
		Reason:              h.reason,
		ConsecutiveFailures: h.consecutiveFailures,
		CyclesTotal:         h.cyclesTotal,
		CyclesFailed:        h.cyclesFailed,
		LastErrorKind:       h.lastErrorKind,
		Components:          components,
		UptimeSeconds:       int64(time.Since(h.startTime).Seconds()),
		Timestamp:           now,
	}
	if !h.lastSuccess.IsZero() {
		last := h.lastSuccess.UTC()
		msg.LastSuccess = &last
	}
	return msg
}

// PublishNow publishes the current health status immediately.
// It does nothing while the publisher is disconnected.
func (h *HealthReporter) PublishNow() error {
	if h.publisher == nil || !h.publisher.IsConnected() {
		return nil
	}

	payload, err := json.Marshal(h.Message())
	if err != nil {
		return fmt.Errorf("marshalling health message: %w", err)
	}

	return h.publisher.PublishRetained(h.topic, payload)
}

// checkComponents runs every configured check. Returns nil when none are set.
func (h *HealthReporter) checkComponents() map[string]string {
	if len(h.checks) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), componentCheckTimeout)
	defer cancel()

	components := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check.HealthCheck(ctx); err != nil {
			components[name] = err.Error()
			continue
		}
		components[name] = ComponentOK
	}
	return components
}

// reportLoop runs the periodic health reporting.
func (h *HealthReporter) reportLoop(ctx context.Context) {
	defer h.wg.Done()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	if err := h.PublishNow(); err != nil {
		h.logError("failed to publish initial health", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case <-h.kick:
			if err := h.PublishNow(); err != nil {
				h.logError("failed to publish health", err)
			}
		case <-ticker.C:
			if err := h.PublishNow(); err != nil {
				h.logError("failed to publish health", err)
			}
		}
	}
}

// logError logs an error if logger is set.
func (h *HealthReporter) logError(msg string, err error) {
	h.loggerMu.RLock()
	logger := h.logger
	h.loggerMu.RUnlock()

	logger.Error(msg, "error", err)
}

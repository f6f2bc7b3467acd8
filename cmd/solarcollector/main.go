// Gray Logic Solar Collector
//
// Polls a Fronius inverter's local Solar API for site power flow and
// smart meter readings and writes them to InfluxDB and/or VictoriaMetrics.
// Optional extras: MQTT health reporting and a local SQLite cycle journal.
//
// The process runs until SIGINT/SIGTERM. Device and store failures never
// stop it; only an invalid configuration does.
package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/nerrad567/gray-logic-solar/internal/collector"
	"github.com/nerrad567/gray-logic-solar/internal/fronius"
	"github.com/nerrad567/gray-logic-solar/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-solar/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-solar/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-solar/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-solar/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-solar/internal/infrastructure/tsdb"
	"github.com/nerrad567/gray-logic-solar/internal/journal"
	"github.com/nerrad567/gray-logic-solar/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/solar.yaml"

// startupCheckTimeout bounds the startup health check of all components.
const startupCheckTimeout = 10 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the collector and blocks until ctx is cancelled.
// It returns an error only when startup fails.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Gray Logic Solar Collector",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version).With("site_id", cfg.Site.ID)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Every opened dependency registers here for the startup check and
	// the health messages.
	checks := make(map[string]collector.HealthChecker)

	writers, closeSinks := openSinks(ctx, cfg, log, checks)
	defer closeSinks()
	if len(writers) == 0 {
		return errors.New("no time-series store available")
	}

	fetcher := fronius.NewClient(cfg.Inverter)
	log.Info("inverter configured",
		"url", fetcher.BaseURL(),
		"timeout", cfg.Inverter.RequestTimeout,
		"timestamp_source", cfg.Poll.TimestampSource,
	)

	poller, err := collector.New(collectorConfig(cfg), fetcher, collector.FanOut(writers...))
	if err != nil {
		return fmt.Errorf("creating poller: %w", err)
	}
	poller.SetLogger(log)

	if cfg.Database.Enabled {
		repo, closeJournal := openJournal(ctx, cfg, log, checks)
		defer closeJournal()
		if repo != nil {
			poller.AddObserver(repo)
		}
	} else {
		log.Info("cycle journal disabled")
	}

	if cfg.MQTT.Enabled {
		reporter, stopHealth := startHealth(ctx, cfg, log, checks)
		defer stopHealth()
		if reporter != nil {
			poller.AddObserver(reporter)
		}
	} else {
		log.Info("MQTT health reporting disabled")
	}

	// Unhealthy components are not fatal; the poll loop recovers from
	// their failures on its own.
	if err := healthCheck(ctx, checks); err != nil {
		log.Warn("startup health check failed, continuing", "error", err)
	} else {
		log.Info("all health checks passed", "components", len(checks))
	}

	log.Info("initialisation complete, polling")

	// Blocks until the shutdown signal.
	if err := poller.Run(ctx); err != nil {
		return fmt.Errorf("poll loop: %w", err)
	}

	log.Info("shutdown signal received, cleaning up")

	// Deferred cleanup runs in reverse order:
	// 1. Health reporter + MQTT
	// 2. Journal database
	// 3. Sinks

	log.Info("Gray Logic Solar Collector stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses GRAYLOGIC_SOLAR_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_SOLAR_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// collectorConfig converts the file configuration into poll loop settings.
func collectorConfig(cfg *config.Config) collector.Config {
	return collector.Config{
		Location:         cfg.Site.Location,
		Org:              cfg.InfluxDB.Org,
		SiteBucket:       cfg.InfluxDB.SiteBucket,
		MeterBucket:      cfg.InfluxDB.MeterBucket,
		SiteMeterPause:   cfg.Poll.SiteMeterPause,
		CycleInterval:    cfg.Poll.CycleInterval,
		RecoveryInterval: cfg.Poll.RecoveryInterval,
		TimestampSource:  cfg.Poll.TimestampSource,
	}
}

// healthCheck runs every registered check once, in name order, and returns
// all failures joined.
func healthCheck(ctx context.Context, checks map[string]collector.HealthChecker) error {
	checkCtx, cancel := context.WithTimeout(ctx, startupCheckTimeout)
	defer cancel()

	var errs []error
	for _, name := range slices.Sorted(maps.Keys(checks)) {
		if err := checks[name].HealthCheck(checkCtx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// openSinks opens every enabled store. A store that is unreachable at
// startup is still used; its writes fail and the poll loop recovers until
// it comes back.
func openSinks(ctx context.Context, cfg *config.Config, log *logging.Logger, checks map[string]collector.HealthChecker) ([]collector.Writer, func()) {
	var writers []collector.Writer
	var closers []func()

	if cfg.InfluxDB.Enabled {
		client, err := influxdb.Connect(ctx, cfg.InfluxDB)
		if errors.Is(err, influxdb.ErrConnectionFailed) {
			log.Warn("InfluxDB not reachable at startup, writes will retry", "url", cfg.InfluxDB.URL, "error", err)
			client, err = influxdb.New(cfg.InfluxDB)
		}
		if err != nil {
			log.Error("InfluxDB unavailable", "error", err)
		} else {
			log.Info("InfluxDB connected",
				"url", client.URL(),
				"org", cfg.InfluxDB.Org,
				"site_bucket", cfg.InfluxDB.SiteBucket,
				"meter_bucket", cfg.InfluxDB.MeterBucket,
			)
			writers = append(writers, client)
			checks["influxdb"] = client
			closers = append(closers, func() {
				log.Info("closing InfluxDB connection")
				if closeErr := client.Close(); closeErr != nil {
					log.Error("error closing InfluxDB", "error", closeErr)
				}
			})
		}
	} else {
		log.Info("InfluxDB disabled")
	}

	if cfg.TSDB.Enabled {
		client, err := tsdb.Connect(ctx, cfg.TSDB)
		if errors.Is(err, tsdb.ErrConnectionFailed) {
			log.Warn("VictoriaMetrics not reachable at startup, writes will retry", "url", cfg.TSDB.URL, "error", err)
			client, err = tsdb.New(cfg.TSDB)
		}
		if err != nil {
			log.Error("VictoriaMetrics unavailable", "error", err)
		} else {
			log.Info("VictoriaMetrics connected", "url", client.URL())
			writers = append(writers, client)
			checks["victoriametrics"] = client
			closers = append(closers, func() {
				log.Info("closing VictoriaMetrics connection")
				if closeErr := client.Close(); closeErr != nil {
					log.Error("error closing VictoriaMetrics", "error", closeErr)
				}
			})
		}
	} else {
		log.Info("VictoriaMetrics disabled")
	}

	return writers, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
}

// openJournal opens the SQLite journal. Failures are logged and collection
// continues without it.
func openJournal(ctx context.Context, cfg *config.Config, log *logging.Logger, checks map[string]collector.HealthChecker) (*journal.SQLiteRepository, func()) {
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		log.Warn("cycle journal unavailable", "path", cfg.Database.Path, "error", err)
		return nil, func() {}
	}
	closeDB := func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}

	if err := db.Migrate(ctx, migrations.FS); err != nil {
		log.Warn("cycle journal migrations failed", "error", err)
		closeDB()
		return nil, func() {}
	}
	log.Info("cycle journal ready",
		"path", db.Path(),
		"retention", cfg.Retention(),
	)

	repo := journal.NewSQLiteRepository(db.DB, cfg.Retention())
	checks["journal"] = db

	last, err := repo.Recent(ctx, 1)
	switch {
	case err != nil:
		log.Warn("reading last journal entry failed", "error", err)
	case len(last) == 1:
		log.Info("resuming after last recorded cycle",
			"cycle_id", last[0].ID,
			"started_at", last[0].StartedAt,
			"outcome", last[0].Outcome,
			"error_kind", last[0].ErrorKind,
		)
	}

	return repo, closeDB
}

// startHealth connects to MQTT and starts the health reporter. A broker
// failure is logged and collection continues without health messages.
// The reporter includes every registered check in its messages, so all
// other components must be registered before this is called.
func startHealth(ctx context.Context, cfg *config.Config, log *logging.Logger, checks map[string]collector.HealthChecker) (*collector.HealthReporter, func()) {
	mqttClient, err := mqtt.Connect(cfg.MQTT, cfg.Site.ID)
	if err != nil {
		log.Warn("MQTT unavailable, health reporting off",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"error", err,
		)
		return nil, func() {}
	}
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	checks["mqtt"] = mqttClient

	reporter := collector.NewHealthReporter(collector.HealthReporterConfig{
		SiteID:    cfg.Site.ID,
		Version:   version,
		Topic:     mqtt.Topics{}.Health(cfg.Site.ID),
		Interval:  cfg.MQTT.HealthInterval,
		Publisher: mqttClient,
		Checks:    checks,
	})
	reporter.SetLogger(log)

	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
		if pubErr := reporter.PublishNow(); pubErr != nil {
			log.Warn("failed to republish health", "error", pubErr)
		}
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	reporter.Start(ctx)

	return reporter, func() {
		log.Info("stopping health reporter")
		reporter.Stop()

		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}
}

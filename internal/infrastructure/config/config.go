package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Timestamp sources for written records.
const (
	// TimestampCollector stamps records with the time the device response arrived.
	TimestampCollector = "collector"

	// TimestampDevice stamps records with the device-reported Head.Timestamp.
	TimestampDevice = "device"
)

// Config is the root configuration structure for the solar collector.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Inverter InverterConfig `yaml:"inverter"`
	Poll     PollConfig     `yaml:"poll"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	TSDB     TSDBConfig     `yaml:"tsdb"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SiteConfig identifies the installation.
type SiteConfig struct {
	ID string `yaml:"id"`

	// Location is written as the "location" tag on every record.
	Location string `yaml:"location"`
}

// InverterConfig describes how to reach the inverter's local HTTP API.
type InverterConfig struct {
	Host           string        `yaml:"host"`
	Scheme         string        `yaml:"scheme"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// PollConfig contains the pacing of the poll loop.
type PollConfig struct {
	// SiteMeterPause is the sleep between the site write and the meter fetch.
	SiteMeterPause time.Duration `yaml:"site_meter_pause"`

	// CycleInterval is the sleep after a successful cycle.
	CycleInterval time.Duration `yaml:"cycle_interval"`

	// RecoveryInterval is the sleep after any failed cycle.
	RecoveryInterval time.Duration `yaml:"recovery_interval"`

	// TimestampSource is "collector" (default) or "device".
	TimestampSource string `yaml:"timestamp_source"`
}

// InfluxDBConfig contains InfluxDB v2 connection settings and bucket names.
// The bucket names are also used by the VictoriaMetrics sink.
type InfluxDBConfig struct {
	Enabled     bool   `yaml:"enabled"`
	URL         string `yaml:"url"`
	Token       string `yaml:"token"`
	Org         string `yaml:"org"`
	SiteBucket  string `yaml:"site_bucket"`
	MeterBucket string `yaml:"meter_bucket"`
}

// TSDBConfig contains VictoriaMetrics settings.
type TSDBConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// MQTTConfig contains MQTT broker connection settings used for health reporting.
type MQTTConfig struct {
	Enabled        bool                `yaml:"enabled"`
	Broker         MQTTBrokerConfig    `yaml:"broker"`
	Auth           MQTTAuthConfig      `yaml:"auth"`
	QoS            int                 `yaml:"qos"`
	Reconnect      MQTTReconnectConfig `yaml:"reconnect"`
	HealthInterval time.Duration       `yaml:"health_interval"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// DatabaseConfig contains settings for the local SQLite cycle journal.
type DatabaseConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Path          string `yaml:"path"`
	WALMode       bool   `yaml:"wal_mode"`
	BusyTimeout   int    `yaml:"busy_timeout"`
	RetentionDays int    `yaml:"retention_days"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GRAYLOGIC_SOLAR_SECTION_KEY
// For example: GRAYLOGIC_SOLAR_INVERTER_HOST, GRAYLOGIC_SOLAR_INFLUXDB_TOKEN
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:       "site-001",
			Location: "home",
		},
		Inverter: InverterConfig{
			Scheme:         "http",
			RequestTimeout: 15 * time.Second,
		},
		Poll: PollConfig{
			SiteMeterPause:   2 * time.Second,
			CycleInterval:    3 * time.Second,
			RecoveryInterval: 15 * time.Second,
			TimestampSource:  TimestampCollector,
		},
		InfluxDB: InfluxDBConfig{
			Enabled:     true,
			URL:         "http://localhost:8086",
			SiteBucket:  "SiteBucket",
			MeterBucket: "MeterBucket",
		},
		TSDB: TSDBConfig{
			URL: "http://localhost:8428",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graylogic-solar",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
			HealthInterval: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:          "./data/solar-journal.db",
			WALMode:       true,
			BusyTimeout:   5,
			RetentionDays: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Secrets (tokens, passwords) should always come from here rather than the file.
func applyEnvOverrides(cfg *Config) {
	// Inverter
	if v := os.Getenv("GRAYLOGIC_SOLAR_INVERTER_HOST"); v != "" {
		cfg.Inverter.Host = v
	}

	// InfluxDB
	if v := os.Getenv("GRAYLOGIC_SOLAR_INFLUXDB_URL"); v != "" {
		cfg.InfluxDB.URL = v
	}
	if v := os.Getenv("GRAYLOGIC_SOLAR_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
	if v := os.Getenv("GRAYLOGIC_SOLAR_INFLUXDB_ORG"); v != "" {
		cfg.InfluxDB.Org = v
	}

	// TSDB
	if v := os.Getenv("GRAYLOGIC_SOLAR_TSDB_URL"); v != "" {
		cfg.TSDB.URL = v
	}

	// MQTT
	if v := os.Getenv("GRAYLOGIC_SOLAR_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GRAYLOGIC_SOLAR_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GRAYLOGIC_SOLAR_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Database
	if v := os.Getenv("GRAYLOGIC_SOLAR_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Logging
	if v := os.Getenv("GRAYLOGIC_SOLAR_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
// All problems are reported together so a broken file can be fixed in one pass.
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}
	if c.Site.Location == "" {
		errs = append(errs, "site.location is required")
	}

	// Inverter
	if c.Inverter.Host == "" {
		errs = append(errs, "inverter.host is required (set GRAYLOGIC_SOLAR_INVERTER_HOST environment variable)")
	}
	if c.Inverter.Scheme != "http" && c.Inverter.Scheme != "https" {
		errs = append(errs, "inverter.scheme must be http or https")
	}
	if c.Inverter.RequestTimeout <= 0 {
		errs = append(errs, "inverter.request_timeout must be positive")
	}

	// Poll
	if c.Poll.SiteMeterPause < 0 {
		errs = append(errs, "poll.site_meter_pause must not be negative")
	}
	if c.Poll.CycleInterval < 0 {
		errs = append(errs, "poll.cycle_interval must not be negative")
	}
	if c.Poll.RecoveryInterval <= 0 {
		errs = append(errs, "poll.recovery_interval must be positive")
	}
	if c.Poll.TimestampSource != TimestampCollector && c.Poll.TimestampSource != TimestampDevice {
		errs = append(errs, "poll.timestamp_source must be collector or device")
	}

	// Sinks
	if !c.InfluxDB.Enabled && !c.TSDB.Enabled {
		errs = append(errs, "at least one of influxdb.enabled or tsdb.enabled must be true")
	}
	if c.InfluxDB.SiteBucket == "" || c.InfluxDB.MeterBucket == "" {
		errs = append(errs, "influxdb.site_bucket and influxdb.meter_bucket are required")
	}
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required")
		}
		if c.InfluxDB.Org == "" {
			errs = append(errs, "influxdb.org is required")
		}
	}
	if c.TSDB.Enabled && c.TSDB.URL == "" {
		errs = append(errs, "tsdb.url is required")
	}

	// MQTT
	if c.MQTT.Enabled {
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
		if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
			errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
		}
		if c.MQTT.HealthInterval <= 0 {
			errs = append(errs, "mqtt.health_interval must be positive")
		}
	}

	// Database
	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Retention returns the journal retention window as a Duration.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Database.RetentionDays) * 24 * time.Hour
}

package influxdb

import "errors"

// Sentinel errors for InfluxDB operations.
//
// Write failures are reported as *telemetry.WriteError; these sentinels
// appear as its cause or come back from Connect and HealthCheck.
var (
	// ErrNotConnected indicates the client has been closed.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed indicates the startup ping failed.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrDisabled indicates InfluxDB integration is disabled in config.
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)

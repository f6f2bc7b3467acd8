package tsdb

import "errors"

// Sentinel errors for VictoriaMetrics operations.
//
//	if errors.Is(err, tsdb.ErrNotConnected) {
//	    // client was closed
//	}
var (
	// ErrNotConnected indicates the client has been closed.
	ErrNotConnected = errors.New("tsdb: not connected")

	// ErrConnectionFailed indicates the startup health check failed.
	ErrConnectionFailed = errors.New("tsdb: connection failed")

	// ErrDisabled indicates TSDB integration is disabled in config.
	ErrDisabled = errors.New("tsdb: disabled in configuration")
)

// Package telemetry defines the sink-agnostic measurement record.
//
// Device mappers produce Measurement values; the InfluxDB and
// VictoriaMetrics sinks consume them. Any store failure surfaces as a
// *WriteError so callers can classify it with errors.Is(err, ErrWriteFailed).
package telemetry

// Package fronius reads the Fronius Solar API v1 over the inverter's local
// HTTP interface and maps its documents into flat records.
//
// Two documents are used:
//
//	/solar_api/v1/GetPowerFlowRealtimeData.fcgi        -> SiteRecord, []InverterRecord
//	/solar_api/v1/GetMeterRealtimeData.cgi?Scope=System -> []MeterRecord
//
// Client performs the HTTP request and returns a Payload. Mapper walks the
// payload and fails with *MissingFieldError or *FieldTypeError naming the
// dotted path of the offending key. Records convert to telemetry.Measurement
// for the sinks.
//
// Fetch failures are classified as *TransportError, *TimeoutError,
// *HTTPStatusError or *MalformedResponseError. Nothing in this package
// retries or terminates the process; the caller owns the recovery policy.
package fronius

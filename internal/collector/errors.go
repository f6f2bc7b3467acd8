package collector

import (
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-solar/internal/fronius"
	"github.com/nerrad567/gray-logic-solar/internal/telemetry"
)

// ErrInvalidConfig is returned by New when the poller cannot be built.
var ErrInvalidConfig = errors.New("collector: invalid configuration")

// ErrNoWriters is returned by the Writer FanOut builds from no stores.
var ErrNoWriters = errors.New("collector: no writers configured")

// ErrorKind names a class of cycle failure for logs and observers.
type ErrorKind string

// Error kinds reported by Kind.
const (
	KindTransport         ErrorKind = "transport"
	KindTimeout           ErrorKind = "timeout"
	KindHTTPStatus        ErrorKind = "http_status"
	KindMalformedResponse ErrorKind = "malformed_response"
	KindMissingField      ErrorKind = "missing_field"
	KindInvalidField      ErrorKind = "invalid_field"
	KindWrite             ErrorKind = "write"
	KindUnexpected        ErrorKind = "unexpected"
)

// Kind classifies err. It returns "" for a nil error and KindUnexpected
// for anything it does not recognise, including recovered panics.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, telemetry.ErrWriteFailed):
		return KindWrite
	case errors.Is(err, fronius.ErrTimeout):
		return KindTimeout
	case errors.Is(err, fronius.ErrTransport):
		return KindTransport
	case errors.Is(err, fronius.ErrHTTPStatus):
		return KindHTTPStatus
	case errors.Is(err, fronius.ErrMalformedResponse):
		return KindMalformedResponse
	case errors.Is(err, fronius.ErrMissingField):
		return KindMissingField
	case errors.Is(err, fronius.ErrFieldType):
		return KindInvalidField
	default:
		return KindUnexpected
	}
}

// PanicError carries a panic recovered inside a cycle.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("collector: panic during cycle: %v", e.Value)
}

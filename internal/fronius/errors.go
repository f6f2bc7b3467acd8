package fronius

import (
	"errors"
	"fmt"
)

// Sentinel errors for classification with errors.Is.
var (
	// ErrTransport indicates the request never produced an HTTP response.
	ErrTransport = errors.New("fronius: transport failure")

	// ErrTimeout indicates the request exceeded its deadline.
	ErrTimeout = errors.New("fronius: request timed out")

	// ErrHTTPStatus indicates a non-2xx response.
	ErrHTTPStatus = errors.New("fronius: unexpected HTTP status")

	// ErrMalformedResponse indicates the body was not a JSON object.
	ErrMalformedResponse = errors.New("fronius: malformed response")

	// ErrMissingField indicates a required key was absent from the payload.
	ErrMissingField = errors.New("fronius: missing field")

	// ErrFieldType indicates a key was present with the wrong JSON type.
	ErrFieldType = errors.New("fronius: invalid field type")
)

// TransportError wraps a connection-level failure (DNS, refused, reset).
type TransportError struct {
	URL   string
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fronius: GET %s: %v", e.URL, e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// TimeoutError is returned when the request deadline expires.
type TimeoutError struct {
	URL   string
	Cause error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("fronius: GET %s: timed out: %v", e.URL, e.Cause)
}

func (e *TimeoutError) Unwrap() error { return e.Cause }

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// HTTPStatusError is returned when the device answers with a non-2xx status.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("fronius: GET %s: status %d", e.URL, e.StatusCode)
}

func (e *HTTPStatusError) Is(target error) bool { return target == ErrHTTPStatus }

// MalformedResponseError is returned when the body cannot be decoded as a JSON object.
type MalformedResponseError struct {
	URL   string
	Cause error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("fronius: GET %s: malformed response: %v", e.URL, e.Cause)
}

func (e *MalformedResponseError) Unwrap() error { return e.Cause }

func (e *MalformedResponseError) Is(target error) bool { return target == ErrMalformedResponse }

// MissingFieldError names the first required key that was absent.
// Field is a dotted path from the payload root, e.g. "Body.Data.Site.P_PV".
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "fronius: missing field " + e.Field
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

// FieldTypeError is returned when a key holds a value of the wrong JSON type.
type FieldTypeError struct {
	Field string
	Want  string
	Got   string
}

func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("fronius: field %s: want %s, got %s", e.Field, e.Want, e.Got)
}

func (e *FieldTypeError) Is(target error) bool { return target == ErrFieldType }

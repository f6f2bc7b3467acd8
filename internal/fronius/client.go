package fronius

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-solar/internal/infrastructure/config"
)

// Solar API v1 endpoints polled by the collector.
const (
	PowerFlowPath = "/solar_api/v1/GetPowerFlowRealtimeData.fcgi"
	MeterPath     = "/solar_api/v1/GetMeterRealtimeData.cgi?Scope=System"
)

const (
	defaultScheme         = "http"
	defaultRequestTimeout = 15 * time.Second

	// maxBodyBytes bounds a single response. Real payloads are a few KiB.
	maxBodyBytes = 1 << 20
)

// Client performs GET requests against the inverter's local HTTP API.
//
// The API is unauthenticated and reachable only on the local network.
// Client never retries; every failure is returned as a typed error.
//
// Thread Safety: safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client for the inverter described by cfg.
func NewClient(cfg config.InverterConfig) *Client {
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = defaultScheme
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return &Client{
		baseURL: scheme + "://" + cfg.Host,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns scheme://host for the device.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Fetch issues GET baseURL+path and decodes the body as a JSON object.
//
// path is appended verbatim. Errors are one of *TransportError,
// *TimeoutError, *HTTPStatusError or *MalformedResponseError.
func (c *Client) Fetch(ctx context.Context, path string) (*Payload, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{URL: url, Cause: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain body to allow connection reuse
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &HTTPStatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, classifyTransport(url, err)
	}
	receivedAt := time.Now()

	if len(body) > maxBodyBytes {
		return nil, &MalformedResponseError{URL: url, Cause: fmt.Errorf("body exceeds %d bytes", maxBodyBytes)}
	}

	var tree map[string]any
	if err := json.Unmarshal(body, &tree); err != nil {
		return nil, &MalformedResponseError{URL: url, Cause: err}
	}
	if tree == nil {
		return nil, &MalformedResponseError{URL: url, Cause: errors.New("top-level value is not an object")}
	}

	return &Payload{Tree: tree, ReceivedAt: receivedAt, URL: url}, nil
}

// PowerFlow fetches the power-flow realtime document.
func (c *Client) PowerFlow(ctx context.Context) (*Payload, error) {
	return c.Fetch(ctx, PowerFlowPath)
}

// Meters fetches the system-scope meter realtime document.
func (c *Client) Meters(ctx context.Context) (*Payload, error) {
	return c.Fetch(ctx, MeterPath)
}

// classifyTransport splits request failures into timeouts and everything else.
func classifyTransport(url string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{URL: url, Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{URL: url, Cause: err}
	}
	return &TransportError{URL: url, Cause: err}
}

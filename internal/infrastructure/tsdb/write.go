package tsdb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-solar/internal/telemetry"
)

// maxErrorBody bounds how much of a rejection body is kept for the error.
const maxErrorBody = 512

// Write stores one measurement under db=bucket. org is accepted so the
// client shares the influxdb sink's signature; VictoriaMetrics has no orgs.
func (c *Client) Write(ctx context.Context, bucket, _ string, m telemetry.Measurement) error {
	if err := m.Check(); err != nil {
		return &telemetry.WriteError{Bucket: bucket, Measurement: m.Name, Cause: err}
	}
	if !c.IsConnected() {
		return &telemetry.WriteError{Bucket: bucket, Measurement: m.Name, Cause: ErrNotConnected}
	}

	if err := c.post(ctx, bucket, renderLine(m)); err != nil {
		return &telemetry.WriteError{Bucket: bucket, Measurement: m.Name, Cause: err}
	}
	return nil
}

// renderLine formats m as a single millisecond-precision line.
func renderLine(m telemetry.Measurement) string {
	point := write.NewPoint(m.Name, m.Tags, m.Fields, m.Time)
	return strings.TrimRight(write.PointToLineProtocol(point, time.Millisecond), "\n")
}

func (c *Client) post(ctx context.Context, bucket, line string) error {
	endpoint := c.url + "/write?db=" + url.QueryEscape(bucket) + "&precision=ms"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(line+"\n"))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("tsdb: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	// Drain body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}

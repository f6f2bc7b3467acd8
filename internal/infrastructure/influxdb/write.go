package influxdb

import (
	"context"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-solar/internal/telemetry"
)

// Write stores one measurement in bucket under org.
//
// The call blocks until the server acknowledges the point. Any failure,
// including an empty field set, is returned as *telemetry.WriteError.
//
// Example:
//
//	err := client.Write(ctx, "SiteBucket", "home", site.Measurement("home"))
func (c *Client) Write(ctx context.Context, bucket, org string, m telemetry.Measurement) error {
	if err := m.Check(); err != nil {
		return &telemetry.WriteError{Bucket: bucket, Measurement: m.Name, Cause: err}
	}
	if !c.IsConnected() {
		return &telemetry.WriteError{Bucket: bucket, Measurement: m.Name, Cause: ErrNotConnected}
	}

	point := write.NewPoint(m.Name, m.Tags, m.Fields, m.Time)

	if err := c.client.WriteAPIBlocking(org, bucket).WritePoint(ctx, point); err != nil {
		return &telemetry.WriteError{Bucket: bucket, Measurement: m.Name, Cause: err}
	}
	return nil
}

// Package tsdb writes collector measurements to VictoriaMetrics.
//
// VictoriaMetrics accepts InfluxDB line protocol on its /write endpoint.
// Lines are rendered by the influxdb-client-go write package, so both
// sinks produce identical points, and sent one POST per measurement with
// millisecond precision. The bucket name becomes the db query parameter,
// which VictoriaMetrics stores as the "db" label.
//
// # Usage
//
//	client, err := tsdb.Connect(ctx, cfg.TSDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Write(ctx, "SiteBucket", "", m)
//
// # Error Handling
//
// Write is synchronous and returns *telemetry.WriteError for every failure.
// There is no batching and no retry.
package tsdb

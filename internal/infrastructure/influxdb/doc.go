// Package influxdb writes collector measurements to InfluxDB v2.
//
// It wraps the official influxdb-client-go v2 library. Writes go through
// the blocking write API with millisecond precision: the poll loop needs
// to know whether each record was stored before it moves to the next step.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Write(ctx, cfg.InfluxDB.SiteBucket, cfg.InfluxDB.Org, m)
//
// # Error Handling
//
// Write returns *telemetry.WriteError for every failure and never retries.
// Connect and HealthCheck return errors wrapping the sentinels in errors.go.
package influxdb

// Package collector runs the solar poll loop.
//
// A Poller repeats one cycle for as long as its context lives:
//
//	polling_site → mapping_site → writing_site → pausing →
//	polling_meters → mapping_meters → writing_meters → idle → polling_site
//
// Any failure (fetch, map, write, or a recovered panic) ends the cycle in
// the recovering state. The loop logs one warning, sleeps the recovery
// interval and starts over with the power-flow fetch. There is no retry
// limit and every error kind gets the same delay; Kind only classifies
// the error for logs and observers.
//
// # Observers
//
// After each cycle a CycleResult is passed to every registered
// CycleObserver. The HealthReporter (MQTT health messages) and the SQLite
// journal are observers. Observer errors are logged and never affect the
// loop.
//
// # Usage
//
//	poller, err := collector.New(cfg, froniusClient, collector.FanOut(influx, vm))
//	if err != nil {
//	    return err
//	}
//	poller.SetLogger(log)
//	poller.AddObserver(reporter)
//	return poller.Run(ctx) // nil once ctx is cancelled
package collector

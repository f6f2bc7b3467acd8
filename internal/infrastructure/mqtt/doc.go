// Package mqtt provides the MQTT connection used for collector health reporting.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Retained publishing with QoS guarantees
//   - Last Will and Testament (LWT) for offline detection
//
// # Topics
//
//	graylogic/solar/{site_id}/status   online/offline, retained, LWT
//	graylogic/solar/{site_id}/health   periodic health report, retained
//
// # Security Considerations
//
//   - Enable TLS (cfg.Broker.TLS) when the broker is not on the local host
//   - Supply the password via GRAYLOGIC_SOLAR_MQTT_PASSWORD
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, cfg.Site.ID)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishRetained(mqtt.Topics{}.Health(cfg.Site.ID), payload)
package mqtt

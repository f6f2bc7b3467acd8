// Package config handles loading and validating the solar collector configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables (GRAYLOGIC_SOLAR_*)
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - The InfluxDB token and MQTT password should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Configuration is loaded once at startup; there is no runtime reconfiguration.
//
// Usage:
//
//	cfg, err := config.Load("configs/solar.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Inverter.Host)
package config

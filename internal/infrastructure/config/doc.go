// Package config handles loading and validating Alpha 2 bridge configuration.
//
// This package manages:
//   - Loading configuration from YAML files (optional for the mock server)
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (Redis and MQTT passwords, InfluxDB and Supervisor
//     tokens) should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Environment Variables:
//
//	ALPHA2_HOST, ALPHA2_PORT, ALPHA2_DEBUG      HTTP listener and log level
//	ALPHA2_DATA_FILE, ALPHA2_STORE_BACKEND      device document storage
//	ALPHA2_DATABASE_PATH                        SQLite journal / sqlite backend
//	ALPHA2_REDIS_ADDR, ALPHA2_REDIS_PASSWORD    redis backend
//	ALPHA2_MQTT_ENABLED, ALPHA2_MQTT_HOST       state publishing over MQTT
//	ALPHA2_INFLUXDB_ENABLED, ALPHA2_INFLUXDB_TOKEN
//	ALPHA2_CONTROLLER_URL, ALPHA2_OPTIONS_FILE  bridge
//	SUPERVISOR_URL, SUPERVISOR_TOKEN            Home Assistant REST API
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Addr())
package config

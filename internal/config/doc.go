// Package config loads the service configuration.
//
// # Configuration Sources
//
// Values are resolved in the following order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file
//	3. Default values from struct tags (lowest priority)
//
// # Environment Variables
//
// Every variable is namespaced with OUTAGE_ followed by the section name:
//
//	OUTAGE_SERVER_PORT=8080
//	OUTAGE_LOGGING_LEVEL=debug
//	OUTAGE_UPLOAD_MAX_UPLOAD_BYTES=52428800
//	OUTAGE_UPLOAD_MAX_CONCURRENT=4
//	OUTAGE_TELEMETRY_TRACE_EXPORTER=stdout
//
// OUTAGE_CONFIG_FILE points at a YAML file explicitly; otherwise config.yaml
// and configs/config.yaml are tried in the working directory.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Tests that must not depend on the environment use config.Default().
package config

// Package app wires the site outage service together and manages its
// lifecycle.
//
// Initialization order:
//
//  1. Load configuration from the environment and an optional YAML file
//  2. Initialize structured logging and OpenTelemetry
//  3. Create the outage and health services
//  4. Build the chi router and middleware chain
//  5. Configure the HTTP server
//
// Run blocks until SIGINT or SIGTERM, then drains in-flight requests within
// the configured shutdown timeout and flushes telemetry. Errors are returned
// to the caller; the package never calls os.Exit.
package app

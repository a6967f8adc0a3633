// Package http implements the HTTP handlers of the site outage service.
//
// Handlers only deal with HTTP concerns: they decode the multipart upload,
// validate the form, call the outage service and encode the result. Errors
// are never written directly; they go through the errors.ErrorHandler so
// every failure is an RFC 7807 problem document.
//
// Routes:
//
//	POST /upload                  aggregate an uploaded workbook
//	POST /api/outages/aggregate   same, under the versioned API
//	GET  /api/health              overall health
//	GET  /api/health/live         liveness probe
//	GET  /api/health/ready        readiness probe (503 when saturated)
//	GET  /api/version             build information
//
// The aggregation endpoints answer JSON by default; ?format=csv or
// ?format=xlsx returns the same records as a download.
package http

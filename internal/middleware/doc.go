// Package middleware holds the HTTP middleware chain of the outage service:
// request IDs, structured request logging, rate limiting, CORS, security
// headers, OpenTelemetry instrumentation and form validation.
//
// The expected order is RequestID, RealIP, StructuredLogger, recovery,
// OTel, then the per-route middlewares.
package middleware

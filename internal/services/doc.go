// Package services holds the application services behind the HTTP layer.
//
// OutageService is the entry point for aggregations. It enforces the upload
// size limit, bounds the number of workbooks parsed at once with a weighted
// semaphore, fingerprints every document with BLAKE2b-256 and wraps the
// call to the outage package in a span, metrics and structured logs.
//
// HealthService answers liveness, readiness and version probes; readiness
// turns "not_ready" while every aggregation slot is taken.
//
// Services receive their *slog.Logger through their constructor and tag it
// with a component attribute.
package services

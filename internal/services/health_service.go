package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"siteoutage/internal/infrastructure"
	"siteoutage/pkg/contracts"
)

// CapacityReporter exposes how busy the aggregation gate is.
type CapacityReporter interface {
	Capacity() int64
	InFlight() int64
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	capacity  CapacityReporter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	InFlight int64  `json:"in_flight"`
	Capacity int64  `json:"capacity"`
}

// NewHealthService creates a health service. capacity may be nil, in which
// case readiness only reflects that the process is up.
func NewHealthService(version string, capacity CapacityReporter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	return &HealthService{
		version:   version,
		capacity:  capacity,
		startTime: time.Now(),
		logger:    infrastructure.WithComponent(logger, "health_service"),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck reports "ready" while at least one aggregation slot is free.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]interface{}),
	}

	aggregator := hs.checkAggregator()
	status.Services["aggregator"] = aggregator
	if aggregator.Status != "ready" {
		status.Status = "not_ready"
		hs.logger.WarnContext(ctx, "readiness check failed",
			slog.String("reason", aggregator.Message))
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	info := contracts.GetVersionInfo()
	return map[string]interface{}{
		"version":      hs.version,
		"api_version":  info.APIVersion,
		"build_time":   info.BuildTime,
		"git_commit":   info.GitCommit,
		"go_version":   info.GoVersion,
		"os":           info.OS,
		"arch":         info.Architecture,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
}

func (hs *HealthService) checkAggregator() ServiceHealth {
	if hs.capacity == nil {
		return ServiceHealth{Status: "ready", Message: "aggregator is healthy"}
	}

	inFlight, capacity := hs.capacity.InFlight(), hs.capacity.Capacity()
	h := ServiceHealth{
		Status:   "ready",
		Message:  "aggregator is healthy",
		InFlight: inFlight,
		Capacity: capacity,
	}
	if inFlight >= capacity {
		h.Status = "not_ready"
		h.Message = fmt.Sprintf("all %d aggregation slots are in use", capacity)
	}
	return h
}

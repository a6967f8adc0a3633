package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siteoutage/internal/services"
)

type fixedCapacity struct {
	capacity, inFlight int64
}

func (f fixedCapacity) Capacity() int64 { return f.capacity }
func (f fixedCapacity) InFlight() int64 { return f.inFlight }

func healthRouter(capacity services.CapacityReporter) http.Handler {
	h := NewHealthHandler(services.NewHealthService("1.0.0-test", capacity, testLogger()), testLogger())
	r := chi.NewRouter()
	r.Mount("/api/health", h.Routes())
	r.Get("/api/version", h.Version)
	return r
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		capacity   services.CapacityReporter
		wantStatus int
		wantBody   string
	}{
		{name: "health", path: "/api/health", wantStatus: http.StatusOK, wantBody: "ok"},
		{name: "live", path: "/api/health/live", wantStatus: http.StatusOK, wantBody: "alive"},
		{name: "ready", path: "/api/health/ready", capacity: fixedCapacity{capacity: 4, inFlight: 1}, wantStatus: http.StatusOK, wantBody: "ready"},
		{name: "saturated", path: "/api/health/ready", capacity: fixedCapacity{capacity: 2, inFlight: 2}, wantStatus: http.StatusServiceUnavailable, wantBody: "not_ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			healthRouter(tt.capacity).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body["status"])
			assert.Equal(t, "1.0.0-test", body["version"])
		})
	}
}

func TestHealthHandler_Version(t *testing.T) {
	rec := httptest.NewRecorder()
	healthRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "1.0.0-test", body["version"])
	assert.Equal(t, "v1", body["api_version"])
	assert.Contains(t, body, "go_version")
}

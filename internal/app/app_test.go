package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"siteoutage/internal/config"
	"siteoutage/internal/infrastructure"
)

func newTestApp(t *testing.T, mutate ...func(*config.Config)) *Application {
	t.Helper()

	cfg := config.Default()
	cfg.Server.Port = 0
	cfg.Telemetry.Environment = "test"
	cfg.Security.RateLimit.Enabled = false
	for _, m := range mutate {
		m(cfg)
	}

	app, err := New(cfg, infrastructure.NewLogger(cfg.Logging, io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.OTelProviders.Shutdown(context.Background()) })
	return app
}

func workbook(t *testing.T) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	rows := [][]any{
		{"Site", "Fragment Date", "TEC", "DT"},
		{"ABC01", time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC), "2G", 2000},
		{"ABC01", time.Date(2023, 1, 6, 0, 0, 0, 0, time.UTC), "4G", 2500},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func uploadRequest(t *testing.T, target string, doc []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("siteList", `["ABC01"]`))
	require.NoError(t, mw.WriteField("startDate", "2023-01-01"))
	require.NoError(t, mw.WriteField("endDate", "2023-01-31"))
	part, err := mw.CreateFormFile("file", "outages.xlsx")
	require.NoError(t, err)
	_, err = part.Write(doc)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestApplication_UploadRoutes(t *testing.T) {
	app := newTestApp(t)
	doc := workbook(t)

	for _, target := range []string{"/upload", "/api/outages/aggregate"} {
		t.Run(target, func(t *testing.T) {
			rec := httptest.NewRecorder()
			app.Router.ServeHTTP(rec, uploadRequest(t, target, doc))

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
			assert.Len(t, rec.Header().Get("X-Document-Digest"), 64)
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

			var got []map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			require.Len(t, got, 1)
			assert.Equal(t, "ABC01", got[0]["site"])
			assert.Equal(t, 500.0, got[0]["totalOutageMin"])
		})
	}
}

func TestApplication_ErrorRoutes(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name        string
		method      string
		target      string
		contentType string
		wantStatus  int
	}{
		{name: "json upload", method: http.MethodPost, target: "/upload", contentType: "application/json", wantStatus: http.StatusUnsupportedMediaType},
		{name: "unknown route", method: http.MethodGet, target: "/nope", wantStatus: http.StatusNotFound},
		{name: "wrong method", method: http.MethodGet, target: "/upload", wantStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			app.Router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var problem map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			assert.Equal(t, float64(tt.wantStatus), problem["status"])
			assert.NotEmpty(t, problem["trace_id"])
		})
	}
}

func TestApplication_HealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/api/health", "/api/health/live", "/api/health/ready", "/api/health/live/", "/api/version"} {
		rec := httptest.NewRecorder()
		app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestApplication_NoPrometheus(t *testing.T) {
	app := newTestApp(t, func(c *config.Config) { c.Telemetry.MetricsExporter = "none" })

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApplication_RateLimit(t *testing.T) {
	app := newTestApp(t, func(c *config.Config) {
		c.Security.RateLimit.Enabled = true
		c.Security.RateLimit.RPS = 0.001
		c.Security.RateLimit.Burst = 1
	})

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestApplication_StartStop(t *testing.T) {
	app := newTestApp(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, app.Start(ctx, cancel))
	require.NoError(t, app.Stop(ctx))
	assert.NoError(t, ctx.Err(), "a clean shutdown does not cancel the run context")
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/trace/noop"

	"siteoutage/internal/config"
	"siteoutage/internal/infrastructure"
	"siteoutage/internal/outage"
	"siteoutage/pkg/contracts/domain"
)

func newTestService(t *testing.T, cfg config.UploadConfig) (*OutageService, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := infrastructure.NewOutageMetrics(mp.Meter("test"))
	require.NoError(t, err)

	return NewOutageService(cfg, metrics, noop.NewTracerProvider().Tracer("test"), testLogger()), reader
}

func defaultUpload() config.UploadConfig {
	return config.Default().Upload
}

func januaryRequest(doc []byte, sites ...string) AggregateRequest {
	return AggregateRequest{
		Document:    doc,
		Filename:    "outages.xlsx",
		Sites:       sites,
		StartDate:   "2023-01-01",
		EndDate:     "2023-01-31",
		PenaltyRate: 100,
	}
}

// counter returns the value of an int64 counter data point carrying attrs.
func counter(t *testing.T, reader *sdkmetric.ManualReader, name string, attrs ...attribute.KeyValue) int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	want := attribute.NewSet(attrs...)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				if dp.Attributes.Equals(&want) {
					return dp.Value
				}
			}
		}
	}
	return 0
}

func TestOutageService_Aggregate(t *testing.T) {
	svc, reader := newTestService(t, defaultUpload())
	doc := outageWorkbook(t,
		[]any{"ABC", jan(5), "2G", 2000},
		[]any{"ABC", jan(6), "4G", 2500},
		[]any{"XYZ", jan(6), "4G", 100},
	)

	res, err := svc.Aggregate(context.Background(), januaryRequest(doc, "abc"))
	require.NoError(t, err)

	assert.Equal(t, []domain.SiteOutage{{
		Site: "ABC", Downtime2G: 2000, Downtime4G: 2500, CommonOutage: 2000,
		Only4G: 500, TotalOutageMin: 500, TotalOutageDay: 0.35,
	}}, res.Records)
	assert.False(t, res.NoMatch())
	assert.Equal(t, DocumentDigest(doc), res.Digest)
	assert.Len(t, res.Digest, 64)
	assert.Equal(t, 3, res.Stats.RowsScanned)
	assert.Equal(t, 2, res.Stats.RowsMatched)
	assert.Zero(t, svc.InFlight())

	assert.Equal(t, int64(1), counter(t, reader, "outage_aggregations_total", attribute.String("outcome", OutcomeSuccess)))
	assert.Equal(t, int64(3), counter(t, reader, "outage_rows_scanned_total"))
	assert.Equal(t, int64(2), counter(t, reader, "outage_rows_matched_total"))
	assert.Equal(t, int64(1), counter(t, reader, "outage_sites_reported_total"))
}

func TestOutageService_NoMatch(t *testing.T) {
	svc, reader := newTestService(t, defaultUpload())
	doc := outageWorkbook(t, []any{"ABC", jan(5), "2G", 2000})

	res, err := svc.Aggregate(context.Background(), januaryRequest(doc, "NOPE"))
	require.NoError(t, err)

	assert.True(t, res.NoMatch())
	assert.Equal(t, []domain.SiteOutage{domain.NoMatchingData()}, res.Records)
	assert.Equal(t, int64(1), counter(t, reader, "outage_aggregations_total", attribute.String("outcome", OutcomeNoMatch)))
	assert.Equal(t, int64(0), counter(t, reader, "outage_sites_reported_total"))
}

func TestOutageService_Errors(t *testing.T) {
	doc := []byte("not a workbook")

	tests := []struct {
		name    string
		cfg     config.UploadConfig
		req     AggregateRequest
		wantErr error
		outcome string
	}{
		{
			name:    "empty document",
			cfg:     defaultUpload(),
			req:     januaryRequest(nil, "ABC"),
			wantErr: ErrInvalidInput,
			outcome: OutcomeInvalid,
		},
		{
			name:    "document over the limit",
			cfg:     config.UploadConfig{MaxUploadBytes: 4, MaxConcurrent: 1},
			req:     januaryRequest(doc, "ABC"),
			wantErr: ErrDocumentTooLarge,
			outcome: OutcomeTooLarge,
		},
		{
			name: "bad start date",
			cfg:  defaultUpload(),
			req: AggregateRequest{
				Document:  doc,
				Sites:     []string{"ABC"},
				StartDate: "first of january",
				EndDate:   "2023-01-31",
			},
			wantErr: ErrInvalidInput,
			outcome: OutcomeInvalid,
		},
		{
			name:    "malformed workbook",
			cfg:     defaultUpload(),
			req:     januaryRequest(doc, "ABC"),
			wantErr: outage.ErrMalformedDocument,
			outcome: OutcomeMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, reader := newTestService(t, tt.cfg)

			res, err := svc.Aggregate(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, res)
			assert.Equal(t, int64(1), counter(t, reader, "outage_aggregations_total", attribute.String("outcome", tt.outcome)))
		})
	}
}

func TestOutageService_Busy(t *testing.T) {
	svc, reader := newTestService(t, config.UploadConfig{MaxUploadBytes: 1 << 20, MaxConcurrent: 1})
	doc := outageWorkbook(t, []any{"ABC", jan(5), "2G", 1})

	// Occupy the only slot.
	require.NoError(t, svc.sem.Acquire(context.Background(), 1))
	defer svc.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := svc.Aggregate(ctx, januaryRequest(doc, "ABC"))
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, int64(1), counter(t, reader, "outage_aggregations_total", attribute.String("outcome", OutcomeBusy)))
}

func TestOutageService_Capacity(t *testing.T) {
	svc := NewOutageService(config.UploadConfig{MaxConcurrent: 3}, nil, noop.NewTracerProvider().Tracer("test"), nil)
	assert.Equal(t, int64(3), svc.Capacity())
	assert.Zero(t, svc.InFlight())

	svc = NewOutageService(config.UploadConfig{}, nil, noop.NewTracerProvider().Tracer("test"), nil)
	assert.Equal(t, int64(1), svc.Capacity())
}

func TestOutageService_NilMetrics(t *testing.T) {
	svc := NewOutageService(defaultUpload(), nil, noop.NewTracerProvider().Tracer("test"), testLogger())
	doc := outageWorkbook(t, []any{"ABC", jan(5), "2G", 1})

	res, err := svc.Aggregate(context.Background(), januaryRequest(doc, "ABC"))
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)
}

func TestOutcomeOf(t *testing.T) {
	ok := &AggregateResult{Records: []domain.SiteOutage{{Site: "A"}}}
	none := &AggregateResult{Records: []domain.SiteOutage{domain.NoMatchingData()}}

	tests := []struct {
		name string
		res  *AggregateResult
		err  error
		want string
	}{
		{name: "records", res: ok, want: OutcomeSuccess},
		{name: "sentinel", res: none, want: OutcomeNoMatch},
		{name: "cancelled", err: context.Canceled, want: OutcomeCancelled},
		{name: "deadline", err: context.DeadlineExceeded, want: OutcomeCancelled},
		{name: "invalid date", err: outage.ErrInvalidDate, want: OutcomeInvalid},
		{name: "other", err: assert.AnError, want: OutcomeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, outcomeOf(tt.res, tt.err))
		})
	}
}

func TestParseSiteList(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{name: "json array", raw: `["ABC01", "abc02 "]`, want: []string{"ABC01", "abc02"}},
		{name: "json array drops blanks", raw: `["A", "", "  "]`, want: []string{"A"}},
		{name: "empty json array", raw: `[]`, want: []string{}},
		{name: "comma list", raw: "A, B,C", want: []string{"A", "B", "C"}},
		{name: "newline list", raw: "A\r\nB\n\nC", want: []string{"A", "B", "C"}},
		{name: "single id", raw: "ABC01", want: []string{"ABC01"}},
		{name: "blank", raw: "   ", want: nil},
		{name: "broken json", raw: `["A",`, wantErr: true},
		{name: "json of numbers", raw: `[1, 2]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSiteList(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

package services

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/semaphore"

	"siteoutage/internal/config"
	"siteoutage/internal/infrastructure"
	"siteoutage/internal/outage"
	"siteoutage/pkg/contracts/domain"
)

// Aggregation outcomes recorded on metrics and spans.
const (
	OutcomeSuccess   = "success"
	OutcomeNoMatch   = "no_match"
	OutcomeInvalid   = "invalid"
	OutcomeMalformed = "malformed"
	OutcomeTooLarge  = "too_large"
	OutcomeBusy      = "busy"
	OutcomeCancelled = "cancelled"
	OutcomeError     = "error"
)

// AggregateRequest is one uploaded workbook plus its filters.
type AggregateRequest struct {
	Document    []byte
	Filename    string
	Sites       []string
	StartDate   string
	EndDate     string
	PenaltyRate float64
}

// AggregateResult carries the records and what was learned producing them.
type AggregateResult struct {
	Records  []domain.SiteOutage
	Stats    outage.Stats
	Digest   string
	Duration time.Duration
}

// NoMatch reports whether the result is the "no matching data" sentinel.
func (r *AggregateResult) NoMatch() bool {
	return domain.IsNoMatch(r.Records)
}

// OutageService runs aggregations behind a concurrency gate.
type OutageService struct {
	cfg      config.UploadConfig
	sem      *semaphore.Weighted
	inFlight atomic.Int64
	metrics  *infrastructure.OutageMetrics
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewOutageService creates the service. metrics may be nil.
func NewOutageService(cfg config.UploadConfig, metrics *infrastructure.OutageMetrics, tracer trace.Tracer, logger *slog.Logger) *OutageService {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &OutageService{
		cfg:     cfg,
		sem:     semaphore.NewWeighted(cfg.MaxConcurrent),
		metrics: metrics,
		tracer:  tracer,
		logger:  infrastructure.WithComponent(logger, "outage_service"),
	}
}

// Capacity is the number of aggregations allowed to run at once.
func (s *OutageService) Capacity() int64 {
	return s.cfg.MaxConcurrent
}

// InFlight is the number of aggregations currently running.
func (s *OutageService) InFlight() int64 {
	return s.inFlight.Load()
}

// Aggregate checks the request, waits for a free slot and aggregates the
// workbook. A "no matching data" result is not an error.
func (s *OutageService) Aggregate(ctx context.Context, req AggregateRequest) (*AggregateResult, error) {
	start := time.Now()
	digest := DocumentDigest(req.Document)

	logger := s.logger.With(
		slog.String("filename", req.Filename),
		slog.String("digest", digest),
	)

	ctx, span := s.tracer.Start(ctx, "outage.aggregate", trace.WithAttributes(
		attribute.Int("outage.document_bytes", len(req.Document)),
		attribute.String("outage.document_digest", digest),
		attribute.Int("outage.sites_requested", len(req.Sites)),
		attribute.String("outage.start_date", req.StartDate),
		attribute.String("outage.end_date", req.EndDate),
	))
	defer span.End()

	res, err := s.aggregate(ctx, logger, req)

	outcome := outcomeOf(res, err)
	rec := infrastructure.AggregationRecord{
		Outcome:       outcome,
		Duration:      time.Since(start),
		DocumentBytes: len(req.Document),
	}
	if res != nil {
		res.Digest = digest
		res.Duration = rec.Duration
		rec.RowsScanned = res.Stats.RowsScanned
		rec.RowsMatched = res.Stats.RowsMatched
		if !res.NoMatch() {
			rec.SitesReported = len(res.Records)
		}
	}
	s.metrics.RecordAggregation(ctx, rec)
	span.SetAttributes(attribute.String("outage.outcome", outcome))

	if err != nil {
		infrastructure.RecordError(ctx, err)
		logger.ErrorContext(ctx, "aggregation failed",
			slog.String("outcome", outcome),
			slog.String("error", err.Error()),
			slog.Duration("duration", rec.Duration))
		return nil, err
	}

	logger.InfoContext(ctx, "aggregation completed",
		slog.String("outcome", outcome),
		slog.Int("sheets", res.Stats.Sheets),
		slog.Int("rows_scanned", res.Stats.RowsScanned),
		slog.Int("rows_matched", res.Stats.RowsMatched),
		slog.Int("site_misses", res.Stats.SiteMisses),
		slog.Int("date_misses", res.Stats.DateMisses),
		slog.Int("unknown_tech", res.Stats.UnknownTech),
		slog.Int("records", len(res.Records)),
		slog.Duration("duration", rec.Duration))

	return res, nil
}

func (s *OutageService) aggregate(ctx context.Context, logger *slog.Logger, req AggregateRequest) (*AggregateResult, error) {
	if len(req.Document) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidInput)
	}
	if s.cfg.MaxUploadBytes > 0 && int64(len(req.Document)) > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrDocumentTooLarge, len(req.Document), s.cfg.MaxUploadBytes)
	}
	if _, err := outage.ParseDateRange(req.StartDate, req.EndDate); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBusy, err)
	}
	defer s.sem.Release(1)

	s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	if s.metrics != nil {
		s.metrics.AggregationsInFlight.Add(ctx, 1)
		defer s.metrics.AggregationsInFlight.Add(ctx, -1)
	}

	logger.InfoContext(ctx, "aggregation started",
		slog.Int("document_bytes", len(req.Document)),
		slog.Int("sites", len(req.Sites)),
		slog.String("start_date", req.StartDate),
		slog.String("end_date", req.EndDate),
		slog.Float64("penalty_rate", req.PenaltyRate))

	report, err := outage.Aggregate(ctx, req.Document, outage.Query{
		Sites:       req.Sites,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		PenaltyRate: req.PenaltyRate,
	},
		outage.WithXLSXOptions(outage.XLSXOptions{
			UnzipSizeLimit:    s.cfg.UnzipSizeLimit,
			UnzipXMLSizeLimit: s.cfg.UnzipXMLSizeLimit,
		}),
		outage.WithRowBuffer(s.cfg.RowBuffer),
	)
	if err != nil {
		return nil, err
	}

	if len(report.Stats.MissingColumns) > 0 {
		logger.WarnContext(ctx, "header is missing columns",
			slog.Any("missing", report.Stats.MissingColumns))
	}

	return &AggregateResult{Records: report.Records, Stats: report.Stats}, nil
}

func outcomeOf(res *AggregateResult, err error) string {
	switch {
	case err == nil && res.NoMatch():
		return OutcomeNoMatch
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrBusy):
		return OutcomeBusy
	case errors.Is(err, ErrInvalidInput), errors.Is(err, outage.ErrInvalidDate):
		return OutcomeInvalid
	case errors.Is(err, ErrDocumentTooLarge):
		return OutcomeTooLarge
	case errors.Is(err, outage.ErrMalformedDocument):
		return OutcomeMalformed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCancelled
	default:
		return OutcomeError
	}
}

// DocumentDigest returns the hex BLAKE2b-256 digest of doc.
func DocumentDigest(doc []byte) string {
	sum := blake2b.Sum256(doc)
	return hex.EncodeToString(sum[:])
}

// ParseSiteList reads the siteList form field. The wire format is a JSON
// array of strings; a plain list separated by commas, semicolons or newlines
// is accepted as well. Blank entries are dropped.
func ParseSiteList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var sites []string
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &sites); err != nil {
			return nil, fmt.Errorf("%w: siteList is not a JSON array of strings: %v", ErrInvalidInput, err)
		}
	} else {
		sites = strings.FieldsFunc(raw, func(r rune) bool {
			return r == ',' || r == ';' || r == '\n' || r == '\r'
		})
	}

	out := sites[:0]
	for _, s := range sites {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

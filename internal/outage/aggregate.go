package outage

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"siteoutage/pkg/contracts/domain"
)

// Query carries the caller's filters and billing rate.
type Query struct {
	Sites       []string
	StartDate   string
	EndDate     string
	PenaltyRate float64
}

// Stats describes one pass over a document. It feeds logs and metrics and
// has no influence on the records.
type Stats struct {
	Sheets         int      `json:"sheets"`
	RowsScanned    int      `json:"rowsScanned"`
	RowsMatched    int      `json:"rowsMatched"`
	SiteMisses     int      `json:"siteMisses"`
	DateMisses     int      `json:"dateMisses"`
	UnknownTech    int      `json:"unknownTech"`
	MissingColumns []string `json:"missingColumns,omitempty"`
}

// Report is the outcome of an aggregation. Records is never empty: when
// nothing matched it holds the single sentinel record.
type Report struct {
	Records []domain.SiteOutage
	Stats   Stats
}

// NoMatch reports whether the report is the "no matching data" sentinel.
func (r *Report) NoMatch() bool {
	return domain.IsNoMatch(r.Records)
}

type options struct {
	xlsx      XLSXOptions
	rowBuffer int
}

// Option tunes an aggregation call.
type Option func(*options)

// WithXLSXOptions sets the decompression limits used to open workbooks.
func WithXLSXOptions(o XLSXOptions) Option {
	return func(opts *options) { opts.xlsx = o }
}

// WithRowBuffer sets how many parsed rows may wait between the parser and
// the aggregator.
func WithRowBuffer(n int) Option {
	return func(opts *options) {
		if n >= 0 {
			opts.rowBuffer = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{rowBuffer: 64}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Aggregate reads an xlsx document and returns per-site outage totals for
// the requested sites and date range.
func Aggregate(ctx context.Context, document []byte, q Query, opts ...Option) (*Report, error) {
	o := buildOptions(opts)
	return AggregateSource(ctx, NewXLSXSource(document, o.xlsx), q, opts...)
}

// AggregateSource runs the aggregation over any row source. The source is
// drained in a separate goroutine so parsing overlaps with accumulation;
// rows are still consumed strictly in document order.
func AggregateSource(ctx context.Context, src Source, q Query, opts ...Option) (*Report, error) {
	o := buildOptions(opts)

	dates, err := ParseDateRange(q.StartDate, q.EndDate)
	if err != nil {
		return nil, err
	}
	agg := newAggregator(NewSiteSet(q.Sites), dates)

	rows := make(chan Row, o.rowBuffer)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(rows)
		return src.Stream(gctx, rows)
	})
	g.Go(func() error {
		for row := range rows {
			agg.consume(row)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Report{
		Records: agg.records(q.PenaltyRate),
		Stats:   agg.stats,
	}, nil
}

// siteAggregate holds the running downtime minutes of one site.
type siteAggregate struct {
	downtime2G float64
	downtime4G float64
}

type aggregator struct {
	sites SiteSet
	dates DateRange

	header     HeaderMap
	headerSeen bool

	totals map[string]*siteAggregate
	order  []string

	lastSheet string
	stats     Stats
}

func newAggregator(sites SiteSet, dates DateRange) *aggregator {
	return &aggregator{
		sites:     sites,
		dates:     dates,
		totals:    make(map[string]*siteAggregate),
		lastSheet: "\x00",
	}
}

func (a *aggregator) consume(row Row) {
	if row.Sheet != a.lastSheet {
		a.lastSheet = row.Sheet
		a.stats.Sheets++
	}

	// The very first row of the document is the header, whatever sheet it
	// sits on; every later row is data.
	if !a.headerSeen {
		a.header = NewHeaderMap(row)
		a.headerSeen = true
		a.stats.MissingColumns = a.header.Missing()
		return
	}
	a.stats.RowsScanned++

	site := NormalizeSite(a.header.Cell(row, ColumnSite).String())
	if !a.sites.Contains(site) {
		a.stats.SiteMisses++
		return
	}

	when, ok := a.header.Cell(row, ColumnFragmentDate).Date()
	if !ok || !a.dates.Contains(when) {
		a.stats.DateMisses++
		return
	}

	tech := strings.TrimSpace(a.header.Cell(row, ColumnTech).String())
	dt := a.header.Cell(row, ColumnDowntime).Float()
	if dt < 0 {
		dt = 0
	}

	total, ok := a.totals[site]
	if !ok {
		total = &siteAggregate{}
		a.totals[site] = total
		a.order = append(a.order, site)
	}
	a.stats.RowsMatched++

	switch tech {
	case domain.Tech2G:
		total.downtime2G += dt
	case domain.Tech4G:
		total.downtime4G += dt
	default:
		a.stats.UnknownTech++
	}
}

// records derives the result list in first-seen site order.
func (a *aggregator) records(penaltyRate float64) []domain.SiteOutage {
	if len(a.order) == 0 {
		return []domain.SiteOutage{domain.NoMatchingData()}
	}
	out := make([]domain.SiteOutage, 0, len(a.order))
	for _, site := range a.order {
		t := a.totals[site]
		out = append(out, derive(site, t.downtime2G, t.downtime4G, penaltyRate))
	}
	return out
}

// Package outage aggregates per-site network outage records from a
// spreadsheet and derives the overlap-aware outage and penalty figures used
// for billing.
//
// # Pipeline
//
// One aggregation is a single pass over the document:
//
//	XLSXSource → first row → HeaderMap
//	           → every later row → site filter → date filter → accumulate
//	           → end of stream → derive → []domain.SiteOutage
//
// The source runs in its own goroutine and hands rows over a channel, so
// sheet XML is decoded while earlier rows are being accumulated. Rows keep
// document order. Cancelling the context stops the parser and releases the
// workbook.
//
// # Header
//
// Only the first row seen anywhere in the workbook is a header, even when
// the workbook has several sheets. Columns are found by exact trimmed name:
// Site, Fragment Date, TEC and DT. A missing column reads as an empty cell.
//
// # Cells
//
// Raw values are classified into a Cell variant (empty, text, number,
// time). Fragment Date accepts a time, a spreadsheet serial (days since
// 1899-12-30, 25569 being 1970-01-01) or a date string.
//
// # Derived metrics
//
//	common         = min(downtime2G, downtime4G)
//	only2G, only4G = downtime − common
//	totalOutageMin = only2G + only4G
//	totalOutageDay = totalOutageMin / 1440
//	category       = max(0, totalOutageDay − 4)
//	penalty        = round2(category × penaltyRate)
//
// Every output field is rounded to two decimals on its own.
//
// # Usage
//
//	report, err := outage.Aggregate(ctx, doc, outage.Query{
//	    Sites:       []string{"ABC01", "abc02 "},
//	    StartDate:   "2023-01-01",
//	    EndDate:     "2023-01-31",
//	    PenaltyRate: 100,
//	})
//	if err != nil {
//	    return err // malformed document or bad date bound
//	}
//	if report.NoMatch() {
//	    // report.Records is the one-element sentinel list
//	}
package outage

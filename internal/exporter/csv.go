package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"siteoutage/pkg/contracts/domain"
)

// Headers is the column order of tabular exports.
var Headers = []string{
	"site",
	"downtime2G",
	"downtime4G",
	"commonOutage",
	"only2G",
	"only4G",
	"totalOutageMin",
	"totalOutageDay",
	"category",
	"penalty",
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes records with a header row. The no-match sentinel is
// written as a single "error" column.
func WriteCSV(w io.Writer, records []domain.SiteOutage, opts WriteOptions) error {
	if opts.BOMPrefix {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)

	if domain.IsNoMatch(records) {
		if err := writer.WriteAll([][]string{{"error"}, {records[0].Error}}); err != nil {
			return fmt.Errorf("failed to write sentinel: %w", err)
		}
		return nil
	}

	if err := writer.Write(Headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, rec := range records {
		if err := writer.Write(row(rec)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func row(rec domain.SiteOutage) []string {
	return []string{
		rec.Site,
		formatFloat(rec.Downtime2G),
		formatFloat(rec.Downtime4G),
		formatFloat(rec.CommonOutage),
		formatFloat(rec.Only2G),
		formatFloat(rec.Only4G),
		formatFloat(rec.TotalOutageMin),
		formatFloat(rec.TotalOutageDay),
		formatFloat(rec.Category),
		formatFloat(rec.Penalty),
	}
}

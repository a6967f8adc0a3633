package exporter

import (
	"encoding/json"
	"fmt"
	"io"

	"siteoutage/pkg/contracts/domain"
)

// Write encodes records in format f.
func Write(w io.Writer, f Format, records []domain.SiteOutage) error {
	switch f {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case FormatCSV:
		return WriteCSV(w, records, WriteOptions{BOMPrefix: true})
	case FormatXLSX:
		return WriteXLSX(w, records)
	default:
		return fmt.Errorf("unsupported format %q", string(f))
	}
}

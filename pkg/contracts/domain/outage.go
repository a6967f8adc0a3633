package domain

import (
	"encoding/json"
)

// NoMatchingDataMessage is carried by the sentinel record returned when no
// site matched both the site filter and the date filter.
const NoMatchingDataMessage = "No matching data for sites or date range."

// Technology names recognised in the TEC column.
const (
	Tech2G = "2G"
	Tech4G = "4G"
)

// SiteOutage is the per-site result of an outage aggregation. All numeric
// fields are minutes (or days for TotalOutageDay) rounded to two decimals.
//
// A record with a non-empty Error is the "no matching data" sentinel and
// marshals as {"error": "..."} only.
type SiteOutage struct {
	Site           string  `json:"site"`
	Downtime2G     float64 `json:"downtime2G"`
	Downtime4G     float64 `json:"downtime4G"`
	CommonOutage   float64 `json:"commonOutage"`
	Only2G         float64 `json:"only2G"`
	Only4G         float64 `json:"only4G"`
	TotalOutageMin float64 `json:"totalOutageMin"`
	TotalOutageDay float64 `json:"totalOutageDay"`
	Category       float64 `json:"category"`
	Penalty        float64 `json:"penalty"`

	Error string `json:"error,omitempty"`
}

// NoMatchingData returns the sentinel record.
func NoMatchingData() SiteOutage {
	return SiteOutage{Error: NoMatchingDataMessage}
}

// IsSentinel reports whether the record signals "no matching data" rather
// than carrying real totals.
func (s SiteOutage) IsSentinel() bool {
	return s.Error != ""
}

// MarshalJSON emits the sentinel shape for error records and the full
// record otherwise.
func (s SiteOutage) MarshalJSON() ([]byte, error) {
	if s.IsSentinel() {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{Error: s.Error})
	}
	type plain SiteOutage
	return json.Marshal(plain(s))
}

// IsNoMatch reports whether records is exactly the one-element sentinel list.
func IsNoMatch(records []SiteOutage) bool {
	return len(records) == 1 && records[0].IsSentinel()
}

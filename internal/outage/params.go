package outage

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// SiteSet is the normalised set of site identifiers a caller asked for.
type SiteSet map[string]struct{}

// NormalizeSite canonicalises a site identifier: trimmed and upper-cased.
func NormalizeSite(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NewSiteSet normalises every identifier once. Blank entries are dropped.
func NewSiteSet(sites []string) SiteSet {
	set := make(SiteSet, len(sites))
	for _, s := range sites {
		if n := NormalizeSite(s); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// Contains reports whether the already-normalised site is in the set.
func (s SiteSet) Contains(site string) bool {
	_, ok := s[site]
	return ok
}

// DateRange is an inclusive [Start, End] interval.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDateRange parses both bounds once.
func ParseDateRange(start, end string) (DateRange, error) {
	s, ok := parseDate(start)
	if !ok {
		return DateRange{}, fmt.Errorf("start date %q: %w", start, ErrInvalidDate)
	}
	e, ok := parseDate(end)
	if !ok {
		return DateRange{}, fmt.Errorf("end date %q: %w", end, ErrInvalidDate)
	}
	return DateRange{Start: s, End: e}, nil
}

// Contains reports whether t lies inside the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// ParseDate parses a date string using the layouts accepted for both the
// request bounds and textual Fragment Date cells.
func ParseDate(s string) (time.Time, error) {
	t, ok := parseDate(s)
	if !ok {
		return time.Time{}, fmt.Errorf("%q: %w", s, ErrInvalidDate)
	}
	return t, nil
}

// Layouts without a zone are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04:05",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
	"01/02/2006",
	"1/2/2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"2-Jan-2006",
	"Jan 2, 2006 15:04",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	time.RFC1123,
	time.RFC1123Z,
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParsePenaltyRate reads the multiplier applied to billable outage days.
// Anything unparsable, negative or non-finite becomes 0.
func ParsePenaltyRate(s string) float64 {
	v := leadingFloat(s)
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

package outage

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which variant a Cell holds.
type Kind int

const (
	KindEmpty Kind = iota
	KindText
	KindNumber
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindTime:
		return "time"
	default:
		return "empty"
	}
}

// Cell is a single spreadsheet value. Only the field matching Kind is
// meaningful; raw keeps the source text for string coercion.
type Cell struct {
	Kind Kind
	raw  string
	num  float64
	t    time.Time
}

// Empty returns the empty cell.
func Empty() Cell { return Cell{} }

// Text returns a textual cell.
func Text(s string) Cell { return Cell{Kind: KindText, raw: s} }

// Number returns a numeric cell.
func Number(v float64) Cell {
	return Cell{Kind: KindNumber, raw: strconv.FormatFloat(v, 'f', -1, 64), num: v}
}

// Time returns a native date/time cell.
func Time(t time.Time) Cell {
	return Cell{Kind: KindTime, raw: t.UTC().Format(time.RFC3339Nano), t: t}
}

// isoDateTime matches the value format of date-typed cells (t="d"), which
// always carry a time part.
var isoDateTime = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}(:\d{2}(\.\d+)?)?(Z|[+-]\d{2}:\d{2})?$`)

// classify turns a raw value read from a worksheet into a Cell.
func classify(raw string) Cell {
	if raw == "" {
		return Empty()
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return Cell{Kind: KindNumber, raw: raw, num: v}
	}
	if isoDateTime.MatchString(raw) {
		if t, ok := parseDate(raw); ok {
			return Cell{Kind: KindTime, raw: raw, t: t}
		}
	}
	return Cell{Kind: KindText, raw: raw}
}

// IsText reports whether the cell holds text.
func (c Cell) IsText() bool { return c.Kind == KindText }

// String coerces the cell to a string. Empty cells become "".
func (c Cell) String() string {
	return c.raw
}

// Float parses the cell as a floating-point number. Text is parsed by its
// leading numeric prefix; anything unparsable yields 0.
func (c Cell) Float() float64 {
	switch c.Kind {
	case KindNumber:
		return c.num
	case KindText:
		return leadingFloat(c.raw)
	default:
		return 0
	}
}

// Date resolves the cell to an instant. Numbers are spreadsheet serial days,
// text is parsed as a date string. ok is false when no instant can be derived.
func (c Cell) Date() (time.Time, bool) {
	switch c.Kind {
	case KindTime:
		return c.t, true
	case KindNumber:
		return SerialToTime(c.num)
	case KindText:
		return parseDate(c.raw)
	default:
		return time.Time{}, false
	}
}

// SerialEpochDay is the spreadsheet serial of 1970-01-01.
const SerialEpochDay = 25569

// SerialToTime converts a spreadsheet serial day number to UTC time, rounded
// to the nearest second.
func SerialToTime(serial float64) (time.Time, bool) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) {
		return time.Time{}, false
	}
	secs := math.Round((serial - SerialEpochDay) * 86400)
	// Keep inside the range a time.Time can represent as Unix seconds.
	if math.Abs(secs) > 1<<62 {
		return time.Time{}, false
	}
	return time.Unix(int64(secs), 0).UTC(), true
}

var leadingFloatRE = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// leadingFloat parses the longest numeric prefix of s after trimming space.
func leadingFloat(s string) float64 {
	s = strings.TrimSpace(s)
	m := leadingFloatRE.FindString(s)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

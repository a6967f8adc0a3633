package outage

import "strings"

// Column names the aggregator looks up in the header row.
const (
	ColumnSite         = "Site"
	ColumnFragmentDate = "Fragment Date"
	ColumnTech         = "TEC"
	ColumnDowntime     = "DT"
)

// RequiredColumns lists the columns every data row is read through.
var RequiredColumns = []string{ColumnSite, ColumnFragmentDate, ColumnTech, ColumnDowntime}

// HeaderMap maps a trimmed header name to its zero-based column index.
// It is built once from the first row of the document and never mutated.
type HeaderMap struct {
	index map[string]int
}

// NewHeaderMap records every textual cell of row. Non-text cells are
// skipped; a repeated name keeps its right-most position.
func NewHeaderMap(row Row) HeaderMap {
	index := make(map[string]int, len(row.Cells))
	for i, c := range row.Cells {
		if !c.IsText() {
			continue
		}
		index[strings.TrimSpace(c.String())] = i
	}
	return HeaderMap{index: index}
}

// Index returns the position of name, if present.
func (h HeaderMap) Index(name string) (int, bool) {
	i, ok := h.index[name]
	return i, ok
}

// Cell returns the cell under the named column, or an empty cell when the
// column is missing or the row is shorter than the header.
func (h HeaderMap) Cell(row Row, name string) Cell {
	i, ok := h.index[name]
	if !ok {
		return Empty()
	}
	return row.At(i)
}

// Missing lists the required columns absent from the header.
func (h HeaderMap) Missing() []string {
	var missing []string
	for _, name := range RequiredColumns {
		if _, ok := h.index[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

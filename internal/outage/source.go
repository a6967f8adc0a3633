package outage

import (
	"context"
)

// Row is one worksheet row. Cells are indexed by zero-based column position.
type Row struct {
	Sheet  string
	Number int
	Cells  []Cell
}

// At returns the cell at column i, or an empty cell when the row is shorter.
func (r Row) At(i int) Cell {
	if i < 0 || i >= len(r.Cells) {
		return Empty()
	}
	return r.Cells[i]
}

// Source produces the rows of a document in order, one pass only.
//
// Stream sends every row to rows and returns when the document is exhausted,
// the context is cancelled, or the document turns out to be unreadable.
// Implementations must not close rows; the caller owns the channel.
type Source interface {
	Stream(ctx context.Context, rows chan<- Row) error
}

// SliceSource serves rows held in memory.
type SliceSource []Row

// Stream implements Source.
func (s SliceSource) Stream(ctx context.Context, rows chan<- Row) error {
	for _, r := range s {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case rows <- r:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// RowOf builds a row from plain Go values; handy for tests and tooling.
// Supported values are nil, string, float64, int and time.Time; other types
// are formatted as text.
func RowOf(values ...any) Row {
	cells := make([]Cell, len(values))
	for i, v := range values {
		cells[i] = cellOf(v)
	}
	return Row{Cells: cells}
}

package outage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXOptions bounds how much of a workbook is decompressed into memory.
// Zero values fall back to the excelize defaults.
type XLSXOptions struct {
	// UnzipSizeLimit caps the total decompressed size of the archive.
	UnzipSizeLimit int64
	// UnzipXMLSizeLimit is the per-part size above which worksheet XML is
	// spooled to a temp file instead of memory.
	UnzipXMLSizeLimit int64
}

// XLSXSource streams rows out of an xlsx document held in a byte buffer.
// Each worksheet is decoded row by row; the workbook is never loaded as a
// grid of values.
type XLSXSource struct {
	doc  []byte
	opts XLSXOptions
}

// NewXLSXSource wraps document bytes.
func NewXLSXSource(doc []byte, opts XLSXOptions) *XLSXSource {
	return &XLSXSource{doc: doc, opts: opts}
}

// Stream implements Source. Worksheets are visited in workbook order and
// rows without any cell are skipped.
func (s *XLSXSource) Stream(ctx context.Context, out chan<- Row) error {
	f, err := excelize.OpenReader(bytes.NewReader(s.doc), excelize.Options{
		UnzipSizeLimit:    s.opts.UnzipSizeLimit,
		UnzipXMLSizeLimit: s.opts.UnzipXMLSizeLimit,
	})
	if err != nil {
		return fmt.Errorf("%w: open workbook: %v", ErrMalformedDocument, err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.streamSheet(ctx, f, sheet, out); err != nil {
			return err
		}
	}
	return nil
}

func (s *XLSXSource) streamSheet(ctx context.Context, f *excelize.File, sheet string, out chan<- Row) error {
	rows, err := f.Rows(sheet)
	if err != nil {
		return fmt.Errorf("%w: sheet %q: %v", ErrMalformedDocument, sheet, err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		n++
		values, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return fmt.Errorf("%w: sheet %q row %d: %v", ErrMalformedDocument, sheet, n, err)
		}
		if len(values) == 0 {
			continue
		}

		cells := make([]Cell, len(values))
		for i, v := range values {
			cells[i] = classify(v)
		}

		select {
		case out <- Row{Sheet: sheet, Number: n, Cells: cells}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := rows.Error(); err != nil {
		return fmt.Errorf("%w: sheet %q: %v", ErrMalformedDocument, sheet, err)
	}
	return nil
}

package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"siteoutage/pkg/contracts/domain"
)

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "Outages"

// WriteXLSX streams records into a single-sheet workbook.
func WriteXLSX(w io.Writer, records []domain.SiteOutage) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if domain.IsNoMatch(records) {
		if err := sw.SetRow("A1", []interface{}{excelize.Cell{StyleID: bold, Value: "error"}}); err != nil {
			return err
		}
		if err := sw.SetRow("A2", []interface{}{records[0].Error}); err != nil {
			return err
		}
	} else if err := writeRecords(sw, bold, records); err != nil {
		return err
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRecords(sw *excelize.StreamWriter, headerStyle int, records []domain.SiteOutage) error {
	header := make([]interface{}, len(Headers))
	for i, h := range Headers {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: h}
	}
	if err := sw.SetRow("A1", header, excelize.RowOpts{Height: 18}); err != nil {
		return err
	}

	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			rec.Site,
			rec.Downtime2G,
			rec.Downtime4G,
			rec.CommonOutage,
			rec.Only2G,
			rec.Only4G,
			rec.TotalOutageMin,
			rec.TotalOutageDay,
			rec.Category,
			rec.Penalty,
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	return nil
}

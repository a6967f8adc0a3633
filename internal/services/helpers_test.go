package services

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func jan(day int) time.Time {
	return time.Date(2023, 1, day, 0, 0, 0, 0, time.UTC)
}

// outageWorkbook renders a single-sheet workbook with the standard header.
func outageWorkbook(t *testing.T, rows ...[]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	all := append([][]any{{"Site", "Fragment Date", "TEC", "DT"}}, rows...)
	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

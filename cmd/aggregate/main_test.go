package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"siteoutage/internal/services"
	"siteoutage/internal/validation"
	"siteoutage/pkg/contracts/domain"
)

func writeWorkbook(t *testing.T) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	rows := [][]any{
		{"Site", "Fragment Date", "TEC", "DT"},
		{"ABC01", time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC), "2G", 2000},
		{"ABC01", time.Date(2023, 1, 6, 0, 0, 0, 0, time.UTC), "4G", 2500},
		{"ABC02", time.Date(2023, 1, 7, 0, 0, 0, 0, time.UTC), "4G", 7000},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	path := filepath.Join(t.TempDir(), "outages.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestRun_JSON(t *testing.T) {
	file := writeWorkbook(t)

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"-file", file, "-sites", "abc01, ABC02", "-start", "2023-01-01", "-end", "2023-01-31", "-rate", "3",
	}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	assert.Contains(t, stdout.String(), `"site": "ABC01"`)
	assert.Contains(t, stdout.String(), `"penalty": 2.58`)
}

func TestRun_CSVToFile(t *testing.T) {
	file := writeWorkbook(t)
	out := filepath.Join(t.TempDir(), "report.csv")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"-file", file, "-sites", `["ABC02"]`, "-start", "2023-01-01", "-end", "2023-01-31", "-format", "csv", "-out", out,
	}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())
	assert.Empty(t, stdout.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF}))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ABC02", rows[1][0])
	assert.Equal(t, "7000.00", rows[1][2])
}

func TestRun_NoMatch(t *testing.T) {
	file := writeWorkbook(t)

	var stdout bytes.Buffer
	err := run(context.Background(), []string{
		"-file", file, "-sites", "ABC01", "-start", "2024-01-01", "-end", "2024-01-31",
	}, &stdout, &bytes.Buffer{})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"error":"`+domain.NoMatchingDataMessage+`"}]`, stdout.String())
}

func TestRun_Errors(t *testing.T) {
	file := writeWorkbook(t)
	csvFile := filepath.Join(t.TempDir(), "outages.csv")
	require.NoError(t, os.WriteFile(csvFile, []byte("Site,DT\n"), 0o644))

	tests := []struct {
		name      string
		args      []string
		wantUsage bool
		wantErr   error
	}{
		{name: "missing file flag", args: []string{"-sites", "A", "-start", "2023-01-01", "-end", "2023-01-31"}, wantUsage: true},
		{name: "unknown flag", args: []string{"-bogus"}, wantUsage: true},
		{name: "bad format", args: []string{"-file", file, "-sites", "A", "-start", "2023-01-01", "-end", "2023-01-31", "-format", "pdf"}, wantUsage: true},
		{name: "bad site json", args: []string{"-file", file, "-sites", `["A"`, "-start", "2023-01-01", "-end", "2023-01-31"}, wantUsage: true},
		{name: "bad date", args: []string{"-file", file, "-sites", "A", "-start", "soon", "-end", "2023-01-31"}, wantErr: services.ErrInvalidInput},
		{name: "not a workbook", args: []string{"-file", csvFile, "-sites", "A", "-start", "2023-01-01", "-end", "2023-01-31"}, wantErr: validation.ErrNotWorkbook},
		{name: "missing workbook", args: []string{"-file", filepath.Join(t.TempDir(), "nope.xlsx"), "-sites", "A", "-start", "2023-01-01", "-end", "2023-01-31"}, wantErr: os.ErrNotExist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), tt.args, &bytes.Buffer{}, &bytes.Buffer{})
			require.Error(t, err)
			if tt.wantUsage {
				assert.ErrorIs(t, err, errUsage)
			}
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

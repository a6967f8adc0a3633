package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/trace/noop"

	"siteoutage/internal/config"
	"siteoutage/internal/services"
	"siteoutage/pkg/contracts/domain"
)

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

func TestUploadHandler_EndToEnd(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2023, 1, d, 0, 0, 0, 0, time.UTC) }

	doc := outageWorkbook(t,
		[]any{"ABC01", day(5), "2G", 2000},
		[]any{"ABC01", day(6), "4G", 2500},
		[]any{"ABC02", day(7), "2G", 7000},
		[]any{"ZZZ99", day(7), "2G", 9999},
		[]any{"ABC02", day(28), "4G", 100},
	)

	svc := services.NewOutageService(config.Default().Upload, nil, noop.NewTracerProvider().Tracer("test"), testLogger())
	h := newUploadHandler(svc, config.Default().Upload.MaxUploadBytes)

	t.Run("records", func(t *testing.T) {
		fields := validFields()
		fields["endDate"] = "2023-01-20"
		fields["penaltyRate"] = "3"

		rec := httptest.NewRecorder()
		h.Aggregate(rec, upload{fields: fields, file: doc}.request(t, "/api/outages/aggregate"))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Len(t, rec.Header().Get("X-Document-Digest"), 64)

		var got []domain.SiteOutage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 2)

		bySite := map[string]domain.SiteOutage{}
		for _, r := range got {
			bySite[r.Site] = r
		}

		abc01 := bySite["ABC01"]
		assert.Equal(t, 2000.0, abc01.Downtime2G)
		assert.Equal(t, 2500.0, abc01.Downtime4G)
		assert.Equal(t, 0.35, abc01.TotalOutageDay)

		abc02 := bySite["ABC02"]
		assert.Equal(t, 7000.0, abc02.Downtime2G)
		assert.Equal(t, 0.0, abc02.Downtime4G, "the 28th is outside the range")
		assert.Equal(t, 4.86, abc02.TotalOutageDay)
		assert.Equal(t, 0.86, abc02.Category)
		assert.Equal(t, 2.58, abc02.Penalty)
	})

	t.Run("no match", func(t *testing.T) {
		fields := validFields()
		fields["siteList"] = `["NOPE"]`

		rec := httptest.NewRecorder()
		h.Aggregate(rec, upload{fields: fields, file: doc}.request(t, "/upload"))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[{"error":"No matching data for sites or date range."}]`, rec.Body.String())
	})

	t.Run("not a workbook", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Aggregate(rec, upload{fields: validFields(), file: []byte("site,dt\nABC01,1\n")}.request(t, "/upload"))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

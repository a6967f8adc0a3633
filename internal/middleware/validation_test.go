package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "siteoutage/internal/errors"
	api "siteoutage/pkg/contracts/api/v1"
)

func TestRequestValidator_AggregateForm(t *testing.T) {
	valid := api.AggregateForm{
		SiteList:  `["ABC01"]`,
		StartDate: "2023-01-01",
		EndDate:   "2023-01-31",
	}

	tests := []struct {
		name       string
		mutate     func(f *api.AggregateForm)
		wantFields []string
	}{
		{name: "valid", mutate: func(f *api.AggregateForm) {}},
		{name: "valid with format", mutate: func(f *api.AggregateForm) { f.Format = "xlsx" }},
		{name: "slash date", mutate: func(f *api.AggregateForm) { f.EndDate = "01/31/2023" }},
		{name: "missing site list", mutate: func(f *api.AggregateForm) { f.SiteList = "" }, wantFields: []string{"siteList"}},
		{name: "bad start date", mutate: func(f *api.AggregateForm) { f.StartDate = "yesterday" }, wantFields: []string{"startDate"}},
		{name: "missing end date", mutate: func(f *api.AggregateForm) { f.EndDate = "" }, wantFields: []string{"endDate"}},
		{name: "unknown format", mutate: func(f *api.AggregateForm) { f.Format = "pdf" }, wantFields: []string{"format"}},
		{
			name: "several",
			mutate: func(f *api.AggregateForm) {
				f.SiteList = ""
				f.StartDate = "nope"
			},
			wantFields: []string{"siteList", "startDate"},
		},
	}

	logger, _ := testLogger()
	v := NewRequestValidator(logger)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := valid
			tt.mutate(&form)

			err := v.ValidateStruct(form)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}

			var verrs validator.ValidationErrors
			require.True(t, errors.As(err, &verrs))

			var fields []string
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestContentTypeValidator(t *testing.T) {
	logger, _ := testLogger()
	h := ContentTypeValidator(apierrors.NewErrorHandler(logger, false), "multipart/form-data")(okHandler)

	tests := []struct {
		name        string
		method      string
		contentType string
		wantStatus  int
	}{
		{name: "multipart", method: http.MethodPost, contentType: "multipart/form-data; boundary=abc", wantStatus: http.StatusOK},
		{name: "json", method: http.MethodPost, contentType: "application/json", wantStatus: http.StatusUnsupportedMediaType},
		{name: "missing", method: http.MethodPost, contentType: "", wantStatus: http.StatusUnsupportedMediaType},
		{name: "get skips check", method: http.MethodGet, contentType: "", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/upload", strings.NewReader(""))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

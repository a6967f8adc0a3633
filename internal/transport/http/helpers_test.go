package http

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "siteoutage/internal/errors"
	"siteoutage/internal/middleware"
	"siteoutage/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockOutageService struct {
	mock.Mock
}

func (m *mockOutageService) Aggregate(ctx context.Context, req services.AggregateRequest) (*services.AggregateResult, error) {
	args := m.Called(ctx, req)
	if res := args.Get(0); res != nil {
		return res.(*services.AggregateResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func newUploadHandler(service OutageServiceInterface, maxUpload int64) *UploadHandler {
	logger := testLogger()
	return NewUploadHandler(
		service,
		middleware.NewRequestValidator(logger),
		apierrors.NewErrorHandler(logger, false),
		maxUpload,
		logger,
	)
}

// upload is one multipart request. A nil file omits the file part.
type upload struct {
	fields   map[string]string
	file     []byte
	filename string
}

func validFields() map[string]string {
	return map[string]string{
		"siteList":    `["abc01","ABC02"]`,
		"startDate":   "2023-01-01",
		"endDate":     "2023-01-31",
		"penaltyRate": "100",
	}
}

func (u upload) request(t *testing.T, target string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range u.fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if u.file != nil {
		name := u.filename
		if name == "" {
			name = "outages.xlsx"
		}
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write(u.file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

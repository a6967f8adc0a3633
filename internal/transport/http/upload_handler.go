package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "siteoutage/internal/errors"
	"siteoutage/internal/exporter"
	"siteoutage/internal/outage"
	"siteoutage/internal/services"
	api "siteoutage/pkg/contracts/api/v1"
)

// multipartOverhead is the allowance for form fields and part headers on
// top of the workbook itself.
const multipartOverhead = 1 << 20

// multipartMemory is how much of a multipart body is kept in memory before
// parts spill to temp files.
const multipartMemory = 32 << 20

// UploadHandler accepts a workbook upload and returns per-site outage totals.
type UploadHandler struct {
	service      OutageServiceInterface
	validator    FormValidator
	errorHandler *apierrors.ErrorHandler
	maxUpload    int64
	logger       *slog.Logger
}

// NewUploadHandler creates an upload handler. maxUpload bounds the workbook
// size in bytes.
func NewUploadHandler(service OutageServiceInterface, validator FormValidator, errorHandler *apierrors.ErrorHandler, maxUpload int64, logger *slog.Logger) *UploadHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &UploadHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		maxUpload:    maxUpload,
		logger:       logger.With(slog.String("handler", "upload")),
	}
}

// Routes returns the aggregation routes
func (h *UploadHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/aggregate", h.Aggregate)
	return r
}

// Aggregate handles POST /upload and POST /api/outages/aggregate
func (h *UploadHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.errorHandler.HandleError(w, r, apierrors.PayloadTooLarge(h.maxUpload))
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	form := api.AggregateForm{
		SiteList:    r.FormValue(api.FieldSiteList),
		StartDate:   r.FormValue(api.FieldStartDate),
		EndDate:     r.FormValue(api.FieldEndDate),
		PenaltyRate: r.FormValue(api.FieldPenaltyRate),
		Format:      r.FormValue(api.FieldFormat),
	}
	if q := r.URL.Query().Get(api.FieldFormat); q != "" {
		form.Format = q
	}

	if h.validator != nil {
		if err := h.validator.ValidateStruct(form); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
	}

	format, err := exporter.ParseFormat(form.Format)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(api.FieldFormat, err.Error()))
		return
	}

	sites, err := services.ParseSiteList(form.SiteList)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(api.FieldSiteList, err.Error()))
		return
	}

	doc, filename, err := h.readDocument(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.DebugContext(ctx, "aggregation requested",
		slog.String("filename", filename),
		slog.Int("document_bytes", len(doc)),
		slog.Int("sites", len(sites)),
		slog.String("format", string(format)))

	res, err := h.service.Aggregate(ctx, services.AggregateRequest{
		Document:    doc,
		Filename:    filename,
		Sites:       sites,
		StartDate:   form.StartDate,
		EndDate:     form.EndDate,
		PenaltyRate: outage.ParsePenaltyRate(form.PenaltyRate),
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set(api.HeaderDocumentDigest, res.Digest)

	if format == exporter.FormatJSON {
		render.Status(r, http.StatusOK)
		render.JSON(w, r, res.Records)
		return
	}

	var buf bytes.Buffer
	if err := exporter.Write(&buf, format, res.Records); err != nil {
		h.errorHandler.HandleError(w, r, fmt.Errorf("encode %s: %w", format, err))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename("outages")))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(ctx, "failed to write export", slog.String("error", err.Error()))
	}
}

// readDocument returns the uploaded workbook bytes and their filename.
func (h *UploadHandler) readDocument(r *http.Request) ([]byte, string, error) {
	file, header, err := r.FormFile(api.FieldFile)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, "", apierrors.ErrValidation(api.FieldFile, "is required")
		}
		return nil, "", apierrors.InvalidRequestWithError(err)
	}
	defer file.Close()

	if h.maxUpload > 0 && header.Size > h.maxUpload {
		return nil, "", apierrors.PayloadTooLarge(h.maxUpload)
	}

	var src io.Reader = file
	if h.maxUpload > 0 {
		src = io.LimitReader(file, h.maxUpload+1)
	}
	doc, err := io.ReadAll(src)
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	if h.maxUpload > 0 && int64(len(doc)) > h.maxUpload {
		return nil, "", apierrors.PayloadTooLarge(h.maxUpload)
	}

	return doc, header.Filename, nil
}

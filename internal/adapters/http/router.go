package httpadapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kirillkom/docket-compliance/internal/config"
	"github.com/kirillkom/docket-compliance/internal/core/domain"
	"github.com/kirillkom/docket-compliance/internal/core/ports"
	"github.com/kirillkom/docket-compliance/internal/observability/metrics"
)

const (
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	multipartOverhead = 1 << 20
)

type Router struct {
	cfg       config.Config
	ingestUC  ports.DocketIngestor
	readerUC  ports.DocketReader
	extractor ports.DocumentExtractor
	reporter  ports.ComplianceReporter

	metrics *metrics.HTTPServerMetrics
	service string
	logger  *slog.Logger
}

type RouterOption func(*Router)

// WithLogger sets the logger for access and error logs.
func WithLogger(logger *slog.Logger) RouterOption {
	return func(rt *Router) {
		rt.logger = logger
	}
}

// WithMetrics records request, upload and report metrics and serves /metrics.
func WithMetrics(m *metrics.HTTPServerMetrics, service string) RouterOption {
	return func(rt *Router) {
		rt.metrics = m
		rt.service = service
	}
}

func NewRouter(
	cfg config.Config,
	ingestUC ports.DocketIngestor,
	readerUC ports.DocketReader,
	extractor ports.DocumentExtractor,
	reporter ports.ComplianceReporter,
	opts ...RouterOption,
) *Router {
	rt := &Router{
		cfg:       cfg,
		ingestUC:  ingestUC,
		readerUC:  readerUC,
		extractor: extractor,
		reporter:  reporter,
		service:   "api",
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.logger == nil {
		rt.logger = slog.Default()
	}
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("POST /v1/dockets", rt.uploadDocket)
	mux.HandleFunc("GET /v1/dockets/{docket_id}", rt.getDocket)
	mux.HandleFunc("GET /v1/dockets/{docket_id}/extraction", rt.getExtraction)
	mux.HandleFunc("POST /v1/extract", rt.extractDocument)
	mux.HandleFunc("GET /v1/reports/compliance.xlsx", rt.complianceReport)

	var handler http.Handler = mux
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, rt.cfg.APIOverloadWait)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	handler = accessLogMiddleware(handler, rt.logger)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocket(w http.ResponseWriter, r *http.Request) {
	if rt.ingestUC == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "ingest is not configured"})
		return
	}

	file, fileHeader, ok := rt.formFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	mimeType := detectMimeType(file, fileHeader)
	docket, err := rt.ingestUC.Upload(r.Context(), fileHeader.Filename, mimeType, file)
	if rt.metrics != nil {
		rt.metrics.RecordUpload(rt.service, mimeType, fileHeader.Size, err)
	}
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	annotateRequest(r, "docket_id", docket.ID, "mime_type", mimeType, "upload_bytes", fileHeader.Size)
	writeJSON(w, http.StatusAccepted, docket)
}

func (rt *Router) getDocket(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("docket_id"))
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "docket id is required"})
		return
	}

	annotateRequest(r, "docket_id", id)
	docket, err := rt.readerUC.GetByID(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, docket)
}

func (rt *Router) getExtraction(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("docket_id"))
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "docket id is required"})
		return
	}

	annotateRequest(r, "docket_id", id)
	extraction, err := rt.readerUC.GetExtraction(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, extraction)
}

// extractDocument runs the pipeline inline without persisting anything.
func (rt *Router) extractDocument(w http.ResponseWriter, r *http.Request) {
	if rt.extractor == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "extraction is not configured"})
		return
	}

	file, fileHeader, ok := rt.formFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	mimeType := detectMimeType(file, fileHeader)
	content, err := io.ReadAll(file)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if len(content) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file is empty"})
		return
	}

	result := rt.extractor.Process(r.Context(), domain.DocumentInput{
		Content:  content,
		MimeType: mimeType,
		Filename: fileHeader.Filename,
	})
	annotateRequest(r,
		"mime_type", mimeType,
		"compliance", result.TemperatureData.OverallCompliance,
		"fallback_mode", result.ProcessingMetadata.FallbackMode,
	)
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) complianceReport(w http.ResponseWriter, r *http.Request) {
	if rt.reporter == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "reporting is not configured"})
		return
	}

	limit := rt.cfg.ReportDefaultRows
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	var buf bytes.Buffer
	rows, err := rt.reporter.WriteComplianceReport(r.Context(), &buf, limit)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordReportRows(rt.service, rows)
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="compliance.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// formFile reads the "file" multipart field under the configured upload limit.
// On failure the response has already been written.
func (rt *Router) formFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, bool) {
	if limit := rt.cfg.MaxUploadBytes; limit > 0 {
		if r.ContentLength > limit+multipartOverhead {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "file is too large"})
			return nil, nil, false
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	}
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "file is too large"})
			return nil, nil, false
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return nil, nil, false
	}
	return file, fileHeader, true
}

// detectMimeType trusts an explicit part content type, then the file
// extension, then content sniffing.
func detectMimeType(file multipart.File, header *multipart.FileHeader) string {
	mt := strings.TrimSpace(header.Header.Get("Content-Type"))
	if mt != "" && mt != "application/octet-stream" {
		return mt
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(header.Filename))); byExt != "" {
		return byExt
	}

	head := make([]byte, 512)
	n, _ := io.ReadFull(file, head)
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return mt
	}
	if n == 0 {
		return mt
	}
	return http.DetectContentType(head[:n])
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		rt.logger.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/docsearch-summarizer/internal/config"
	"github.com/kirillkom/docsearch-summarizer/internal/core/domain"
	"github.com/kirillkom/docsearch-summarizer/internal/core/ports"
)

const (
	serviceName       = "api"
	backpressureWait  = 250 * time.Millisecond
	multipartMemory   = 8 << 20
	spreadsheetMIME   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	catalogExportFile = "catalog.xlsx"
)

// MetricsRecorder is implemented by metrics.HTTPServerMetrics.
type MetricsRecorder interface {
	Handler() http.Handler
	Middleware(service string, next http.Handler) http.Handler
	RecordAnswerObservation(service, endpoint string, sourceCount int, duration time.Duration)
	RecordUpload(service string, err error)
	RecordReportExport(service string, err error)
	RecordTriggerConflict(service, endpoint string)
	SetCatalogSize(service string, total, malformed int)
}

type Services struct {
	Catalog  ports.CatalogService
	Query    ports.QueryService
	Upload   ports.UploadService
	Reports  ports.ReportService
	Sessions ports.SessionService
}

type Router struct {
	cfg      config.Config
	services Services
	metrics  MetricsRecorder
}

func NewRouter(cfg config.Config, services Services) *Router {
	return &Router{cfg: cfg, services: services}
}

func (rt *Router) WithMetrics(m MetricsRecorder) *Router {
	rt.metrics = m
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/openapi.yaml", serveAPISpec)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}
	mux.HandleFunc("/v1/catalog", rt.listCatalog)
	mux.HandleFunc("/v1/catalog/", rt.catalogItem)
	mux.HandleFunc("/v1/query", rt.query)
	mux.HandleFunc("/v1/queries/examples", rt.sampleQueries)
	mux.HandleFunc("/v1/uploads", rt.uploads)
	mux.HandleFunc("/v1/uploads/", rt.uploadItem)
	mux.HandleFunc("/v1/reports", rt.exportReport)
	mux.HandleFunc("/v1/sessions/", rt.viewSession)

	var handler http.Handler = mux
	if specRouter, err := loadAPISpec(context.Background()); err != nil {
		slog.Error("openapi_spec_unavailable", "error", err)
	} else {
		handler = requestValidationMiddleware(handler, specRouter)
	}
	handler = backpressureMiddleware(handler, rt.cfg.MaxInFlight, backpressureWait)
	handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) listCatalog(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	entries, err := rt.services.Catalog.List(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if rt.metrics != nil {
		malformed := 0
		for _, e := range entries {
			if e.Malformed() {
				malformed++
			}
		}
		rt.metrics.SetCatalogSize(serviceName, len(entries), malformed)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": entries,
		"total":     len(entries),
	})
}

func (rt *Router) catalogItem(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/catalog/")
	if id == "export.xlsx" {
		rt.exportCatalog(w, r)
		return
	}
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	entry, err := rt.services.Catalog.Get(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (rt *Router) exportCatalog(w http.ResponseWriter, r *http.Request) {
	raw, err := rt.services.Catalog.ExportSpreadsheet(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeAttachment(w, spreadsheetMIME, catalogExportFile, raw)
}

func (rt *Router) query(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	sid := sessionID(w, r)

	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	start := time.Now()
	result, err := rt.services.Query.Answer(r.Context(), sid, req.Question)
	if err != nil {
		rt.recordConflict(err, "query")
		rt.writeError(w, r, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordAnswerObservation(serviceName, "query", len(result.Sources), time.Since(start))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sid,
		"query":      strings.TrimSpace(req.Question),
		"answer":     result.Answer,
		"sources":    result.Sources,
	})
}

func (rt *Router) sampleQueries(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"queries": rt.services.Query.SampleQueries()})
}

func (rt *Router) uploads(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rt.recentUploads(w, r)
	case http.MethodPost:
		rt.upload(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) recentUploads(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	uploads, err := rt.services.Upload.Recent(r.Context(), limit)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"uploads": uploads, "total": len(uploads)})
}

func (rt *Router) uploadItem(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	upload, err := rt.services.Upload.Get(r.Context(), strings.TrimPrefix(r.URL.Path, "/v1/uploads/"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, upload)
}

func (rt *Router) upload(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(w, r)

	if rt.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "file is too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	result, err := rt.services.Upload.Upload(r.Context(), ports.UploadRequest{
		SessionID: sid,
		Bucket:    strings.TrimSpace(r.FormValue("bucket")),
		Filename:  fileHeader.Filename,
		MimeType:  fileHeader.Header.Get("Content-Type"),
		Body:      file,
	})
	if rt.metrics != nil {
		rt.metrics.RecordUpload(serviceName, err)
	}
	if err != nil {
		rt.recordConflict(err, "upload")
		rt.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sid,
		"upload":     result.Upload,
		"message":    result.Message,
		"notice":     domain.UploadCompletedNotice,
		"summary":    result.Summary,
	})
}

type reportRequest struct {
	Title        string          `json:"title"`
	Query        string          `json:"query"`
	DocumentName string          `json:"document_name"`
	Answer       string          `json:"answer"`
	Sources      []domain.Source `json:"sources"`
	MaxSources   int             `json:"max_sources"`
}

func (rt *Router) exportReport(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	sid := sessionID(w, r)

	// An empty body exports the settled summary of the session.
	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	artifact, err := rt.services.Reports.Export(r.Context(), ports.ExportRequest{
		SessionID:    sid,
		Title:        req.Title,
		Query:        req.Query,
		DocumentName: req.DocumentName,
		Answer:       req.Answer,
		Sources:      req.Sources,
		MaxSources:   req.MaxSources,
	})
	if rt.metrics != nil {
		rt.metrics.RecordReportExport(serviceName, err)
	}
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	w.Header().Set("X-Report-Title", artifact.Title)
	writeAttachment(w, artifact.ContentType, artifact.Filename, artifact.Content)
}

func (rt *Router) viewSession(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/sessions/")
	view, err := rt.services.Sessions.View(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (rt *Router) recordConflict(err error, endpoint string) {
	if rt.metrics != nil && domain.IsKind(err, domain.ErrTriggerConflict) {
		rt.metrics.RecordTriggerConflict(serviceName, endpoint)
	}
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}
	writeJSON(w, status, map[string]string{"error": errorMessage(err)})
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	return false
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, content []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

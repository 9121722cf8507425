package httpadapter

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/dstepanov-dev/pdf-digest/internal/core/ports"
	"github.com/dstepanov-dev/pdf-digest/internal/observability/metrics"
)

type Router struct {
	service string

	submitter  ports.BatchSubmitter
	summarizer ports.Summarizer
	repo       ports.FileRepository
	blob       ports.BlobStore

	metrics *metrics.HTTPServerMetrics

	rateLimitRPS   int
	rateLimitBurst int
	maxInFlight    int
	maxUploadBytes int64
}

type RouterOptions struct {
	Service        string
	RateLimitRPS   int
	RateLimitBurst int
	MaxInFlight    int
	MaxUploadBytes int64
}

func NewRouter(
	submitter ports.BatchSubmitter,
	summarizer ports.Summarizer,
	repo ports.FileRepository,
	blob ports.BlobStore,
	m *metrics.HTTPServerMetrics,
	opts RouterOptions,
) *Router {
	service := opts.Service
	if service == "" {
		service = "pdf-digest"
	}
	return &Router{
		service:        service,
		submitter:      submitter,
		summarizer:     summarizer,
		repo:           repo,
		blob:           blob,
		metrics:        m,
		rateLimitRPS:   opts.RateLimitRPS,
		rateLimitBurst: opts.RateLimitBurst,
		maxInFlight:    opts.MaxInFlight,
		maxUploadBytes: opts.MaxUploadBytes,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/files", rt.submitBatch)
	mux.HandleFunc("/v1/files/", rt.getFileByID)
	mux.HandleFunc("/v1/batches/", rt.batchSubtree)
	mux.HandleFunc("/generate-summary", rt.generateSummary)
	mux.HandleFunc("/files/", rt.serveStoredFile)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.maxInFlight > 0 {
		handler = backpressureMiddleware(handler, rt.maxInFlight, 50*time.Millisecond)
	}
	if rt.rateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// submitBatch accepts a multipart batch under the repeated "files" field and
// responds 202 with per-file records in submission order.
func (rt *Router) submitBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	// One batch may carry several files up to the per-file limit each;
	// leave parsing headroom beyond the sum before spilling to disk.
	if err := r.ParseMultipartForm(rt.maxUploadBytes + 1<<20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart request"})
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'files' is required"})
		return
	}

	candidates := make([]ports.Candidate, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable multipart part"})
			return
		}
		opened = append(opened, f)
		candidates = append(candidates, ports.Candidate{
			Name:     fh.Filename,
			MimeType: fh.Header.Get("Content-Type"),
			Size:     fh.Size,
			Body:     f,
		})
	}

	result, err := rt.submitter.Submit(r.Context(), candidates)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err)
		return
	}

	if rt.metrics != nil {
		rejectedAt := make(map[int]bool, len(result.Rejected))
		for _, rej := range result.Rejected {
			rejectedAt[rej.Position] = true
		}
		for i, fh := range headers {
			outcome := "accepted"
			if rejectedAt[i] {
				outcome = "rejected"
			}
			rt.metrics.RecordBatchFile(rt.service, outcome, fh.Size)
		}
	}

	writeJSON(w, http.StatusAccepted, result)
}

func (rt *Router) getFileByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/files/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file id is required"})
		return
	}

	rec, err := rt.repo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// batchSubtree routes /v1/batches/{batchID} and
// /v1/batches/{batchID}/files/{fileID}.
func (rt *Router) batchSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/batches/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		rt.listBatch(w, r, parts[0])
	case len(parts) == 3 && parts[1] == "files" && parts[2] != "":
		rt.removeBatchFile(w, r, parts[0], parts[2])
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	}
}

func (rt *Router) listBatch(w http.ResponseWriter, r *http.Request, batchID string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	records, err := rt.repo.ListByBatch(r.Context(), batchID)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"batch_id": batchID,
		"files":    records,
	})
}

// removeBatchFile hides a file from batch listings. The record and the stored
// document survive so processing history stays auditable.
func (rt *Router) removeBatchFile(w http.ResponseWriter, r *http.Request, batchID, fileID string) {
	if r.Method != http.MethodDelete {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	if err := rt.repo.SetHidden(r.Context(), batchID, fileID, true); err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) generateSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		DocumentURL string `json:"documentUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.DocumentURL) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "documentUrl is required"})
		return
	}

	start := time.Now()
	result, err := rt.summarizer.Summarize(r.Context(), req.DocumentURL)
	if rt.metrics != nil {
		pages, textLength := 0, 0
		if result != nil {
			pages = result.Metadata.Pages
			textLength = result.Metadata.TextLength
		}
		rt.metrics.RecordSummary(rt.service, pages, textLength, time.Since(start), err)
	}
	if err != nil {
		writeSummaryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"summary":     result.Summary,
		"textContent": result.TextContent,
		"metadata":    result.Metadata,
	})
}

// serveStoredFile exposes locally stored documents at the /files/{key} URLs
// the local blob store hands out.
func (rt *Router) serveStoredFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	key := strings.TrimPrefix(r.URL.Path, "/files/")
	if key == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file key is required"})
		return
	}

	reader, err := rt.blob.Open(r.Context(), key)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, reader)
}

package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dstepanov-dev/pdf-digest/internal/core/domain"
	"github.com/dstepanov-dev/pdf-digest/internal/core/ports"
	"github.com/dstepanov-dev/pdf-digest/internal/observability/metrics"
)

type submitFake struct {
	result *ports.SubmitResult
	err    error
}

func (f submitFake) Submit(_ context.Context, candidates []ports.Candidate) (*ports.SubmitResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}

	now := time.Now().UTC()
	result := &ports.SubmitResult{BatchID: "batch-1"}
	for i, c := range candidates {
		result.Files = append(result.Files, domain.FileRecord{
			ID:        "file-" + c.Name,
			BatchID:   "batch-1",
			Position:  i,
			Filename:  c.Name,
			Status:    domain.StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return result, nil
}

type summarizerFake struct {
	result *domain.SummaryResult
	err    error
}

func (f summarizerFake) Summarize(context.Context, string) (*domain.SummaryResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type repoFake struct {
	record *domain.FileRecord
	list   []domain.FileRecord
	err    error

	hiddenBatch string
	hiddenID    string
}

func (f *repoFake) CreateBatch(context.Context, *domain.Batch) error { return f.err }
func (f *repoFake) Create(context.Context, *domain.FileRecord) error { return f.err }
func (f *repoFake) GetByID(context.Context, string) (*domain.FileRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.record, nil
}
func (f *repoFake) ListByBatch(context.Context, string) ([]domain.FileRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.list, nil
}
func (f *repoFake) UpdateStatus(context.Context, string, domain.FileStatus, string) error {
	return f.err
}
func (f *repoFake) SaveSummary(context.Context, string, domain.SummaryResult) error { return f.err }
func (f *repoFake) SetHidden(_ context.Context, batchID, id string, _ bool) error {
	if f.err != nil {
		return f.err
	}
	f.hiddenBatch = batchID
	f.hiddenID = id
	return nil
}

type blobFake struct {
	content string
	err     error
}

func (f blobFake) Save(context.Context, string, io.Reader) (string, error) { return "", f.err }
func (f blobFake) Open(context.Context, string) (io.ReadCloser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.content)), nil
}

func newTestHandler(submitter ports.BatchSubmitter, summarizer ports.Summarizer, repo ports.FileRepository, blob ports.BlobStore, opts RouterOptions) http.Handler {
	if opts.MaxUploadBytes == 0 {
		opts.MaxUploadBytes = 5 << 20
	}
	return NewRouter(submitter, summarizer, repo, blob, nil, opts).Handler()
}

func multipartBody(t *testing.T, names ...string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, name := range names {
		part, err := writer.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		if _, err := part.Write([]byte("%PDF-1.4 test")); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return &body, writer.FormDataContentType()
}

func TestHealthzEndpoint(t *testing.T) {
	handler := newTestHandler(submitFake{}, summarizerFake{}, &repoFake{}, blobFake{}, RouterOptions{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}

func TestSubmitBatchReturns202WithOrderedFiles(t *testing.T) {
	handler := newTestHandler(submitFake{}, summarizerFake{}, &repoFake{}, blobFake{}, RouterOptions{})

	body, contentType := multipartBody(t, "a.pdf", "b.pdf", "c.pdf")
	req := httptest.NewRequest(http.MethodPost, "/v1/files", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", res.Code, res.Body.String())
	}

	var resp ports.SubmitResult
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.BatchID != "batch-1" {
		t.Fatalf("unexpected batch id: %q", resp.BatchID)
	}
	if len(resp.Files) != 3 {
		t.Fatalf("expected 3 files, got %d", len(resp.Files))
	}
	for i, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		if resp.Files[i].Filename != name {
			t.Fatalf("position %d: expected %q, got %q", i, name, resp.Files[i].Filename)
		}
	}
}

func TestSubmitBatchCountsDuplicateNamesByPosition(t *testing.T) {
	// Two files share a name; only the first is rejected. Outcomes are
	// attributed per position, not per name.
	submitter := submitFake{result: &ports.SubmitResult{
		BatchID: "batch-1",
		Files: []domain.FileRecord{
			{ID: "file-1", BatchID: "batch-1", Filename: "doc.pdf", Status: domain.StatusPending},
		},
		Rejected: []ports.RejectedFile{
			{Position: 0, Name: "doc.pdf", Reason: "File is too large or not a PDF"},
		},
	}}
	m := metrics.NewHTTPServerMetrics("test-api")
	handler := NewRouter(submitter, summarizerFake{}, &repoFake{}, blobFake{}, m, RouterOptions{
		Service:        "test-api",
		MaxUploadBytes: 5 << 20,
	}).Handler()

	body, contentType := multipartBody(t, "doc.pdf", "doc.pdf")
	req := httptest.NewRequest(http.MethodPost, "/v1/files", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", res.Code, res.Body.String())
	}

	scrape := httptest.NewRecorder()
	handler.ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	exposition := scrape.Body.String()
	for _, want := range []string{
		`digest_upload_batch_files_total{outcome="accepted",service="test-api"} 1`,
		`digest_upload_batch_files_total{outcome="rejected",service="test-api"} 1`,
	} {
		if !strings.Contains(exposition, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestSubmitBatchWithoutFilesReturns400(t *testing.T) {
	handler := newTestHandler(submitFake{}, summarizerFake{}, &repoFake{}, blobFake{}, RouterOptions{})

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("note", "no files here"); err != nil {
		t.Fatalf("WriteField() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/files", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestGetFileByIDReturns404ForNotFound(t *testing.T) {
	handler := newTestHandler(submitFake{}, summarizerFake{}, &repoFake{
		err: domain.WrapError(domain.ErrFileNotFound, "get file", errors.New("id=missing")),
	}, blobFake{}, RouterOptions{})

	req := httptest.NewRequest(http.MethodGet, "/v1/files/missing", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestListBatchReturnsFiles(t *testing.T) {
	now := time.Now().UTC()
	handler := newTestHandler(submitFake{}, summarizerFake{}, &repoFake{
		list: []domain.FileRecord{
			{ID: "f-1", BatchID: "b-1", Position: 0, Filename: "a.pdf", Status: domain.StatusCompleted, CreatedAt: now, UpdatedAt: now},
			{ID: "f-2", BatchID: "b-1", Position: 1, Filename: "b.pdf", Status: domain.StatusError, ErrorMessage: domain.UserFacingError, CreatedAt: now, UpdatedAt: now},
		},
	}, blobFake{}, RouterOptions{})

	req := httptest.NewRequest(http.MethodGet, "/v1/batches/b-1", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	var resp struct {
		BatchID string              `json:"batch_id"`
		Files   []domain.FileRecord `json:"files"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.BatchID != "b-1" || len(resp.Files) != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Files[1].ErrorMessage != domain.UserFacingError {
		t.Fatalf("unexpected error message: %q", resp.Files[1].ErrorMessage)
	}
}

func TestRemoveBatchFileReturns204AndScopesToBatch(t *testing.T) {
	repo := &repoFake{}
	handler := newTestHandler(submitFake{}, summarizerFake{}, repo, blobFake{}, RouterOptions{})

	req := httptest.NewRequest(http.MethodDelete, "/v1/batches/b-1/files/f-2", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
	if repo.hiddenBatch != "b-1" || repo.hiddenID != "f-2" {
		t.Fatalf("unexpected hide call: batch=%q id=%q", repo.hiddenBatch, repo.hiddenID)
	}
}

func TestServeStoredFileStreamsContent(t *testing.T) {
	handler := newTestHandler(submitFake{}, summarizerFake{}, &repoFake{}, blobFake{content: "%PDF-1.4 data"}, RouterOptions{})

	req := httptest.NewRequest(http.MethodGet, "/files/f-1_a.pdf", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("unexpected content type: %q", res.Header().Get("Content-Type"))
	}
	if res.Body.String() != "%PDF-1.4 data" {
		t.Fatalf("unexpected body: %q", res.Body.String())
	}
}

func TestRequestIDHeaderIsSet(t *testing.T) {
	handler := newTestHandler(submitFake{}, summarizerFake{}, &repoFake{}, blobFake{}, RouterOptions{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected X-Request-Id header")
	}
}

package httpadapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dstepanov-dev/pdf-digest/internal/core/domain"
)

func postSummary(t *testing.T, handler http.Handler, payload any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/generate-summary", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func TestGenerateSummarySuccess(t *testing.T) {
	handler := newTestHandler(submitFake{}, summarizerFake{
		result: &domain.SummaryResult{
			Summary:     "Key findings: ...",
			TextContent: "full extracted text",
			Metadata:    domain.SummaryMetadata{Pages: 4, TextLength: 19},
		},
	}, &repoFake{}, blobFake{}, RouterOptions{})

	res := postSummary(t, handler, map[string]string{"documentUrl": "http://example.com/doc.pdf"})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	var resp struct {
		Summary     string `json:"summary"`
		TextContent string `json:"textContent"`
		Metadata    struct {
			Pages      int `json:"pages"`
			TextLength int `json:"textLength"`
		} `json:"metadata"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Summary != "Key findings: ..." {
		t.Fatalf("unexpected summary: %q", resp.Summary)
	}
	if resp.TextContent != "full extracted text" {
		t.Fatalf("unexpected text content: %q", resp.TextContent)
	}
	if resp.Metadata.Pages != 4 || resp.Metadata.TextLength != 19 {
		t.Fatalf("unexpected metadata: %+v", resp.Metadata)
	}
}

func TestGenerateSummaryMissingURLReturns400(t *testing.T) {
	handler := newTestHandler(submitFake{}, summarizerFake{}, &repoFake{}, blobFake{}, RouterOptions{})

	res := postSummary(t, handler, map[string]string{"documentUrl": "   "})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestGenerateSummaryFetchFailureReturns500WithoutInternals(t *testing.T) {
	handler := newTestHandler(submitFake{}, summarizerFake{
		err: domain.WrapError(domain.ErrFetch, "fetch document", errors.New("dial tcp 10.0.0.1:443: connect: connection refused")),
	}, &repoFake{}, blobFake{}, RouterOptions{})

	res := postSummary(t, handler, map[string]string{"documentUrl": "http://example.com/doc.pdf"})
	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}

	var resp struct {
		Error   string `json:"error"`
		Details struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			Stack   string `json:"stack"`
		} `json:"details"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.HasPrefix(resp.Error, "Failed to process PDF: ") {
		t.Fatalf("unexpected error text: %q", resp.Error)
	}
	if resp.Details.Code != "fetch_error" {
		t.Fatalf("unexpected code: %q", resp.Details.Code)
	}
	if resp.Details.Stack != "" {
		t.Fatalf("stack traces must not leak to clients")
	}
	if strings.Contains(res.Body.String(), "10.0.0.1") {
		t.Fatalf("internal addresses must not leak to clients: %s", res.Body.String())
	}
}

func TestGenerateSummaryModelFailureMapsToModelError(t *testing.T) {
	handler := newTestHandler(submitFake{}, summarizerFake{
		err: domain.WrapError(domain.ErrModel, "openai completion", errors.New("status 429")),
	}, &repoFake{}, blobFake{}, RouterOptions{})

	res := postSummary(t, handler, map[string]string{"documentUrl": "http://example.com/doc.pdf"})
	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "model_error") {
		t.Fatalf("expected model_error code, got %s", res.Body.String())
	}
}

package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dstepanov-dev/pdf-digest/internal/core/domain"
)

func completionFixture(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
		"usage": map[string]int{"prompt_tokens": 100, "completion_tokens": 50},
	}
}

func TestGenerateSummarySendsFixedPrompt(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key-1" {
			t.Fatalf("unexpected auth header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(completionFixture("## Summary\n\nKey findings."))
	}))
	defer srv.Close()

	client := New(srv.URL, "key-1", Options{})
	summary, err := client.GenerateSummary(context.Background(), "document text")
	if err != nil {
		t.Fatalf("GenerateSummary() error = %v", err)
	}
	if summary != "## Summary\n\nKey findings." {
		t.Fatalf("unexpected summary %q", summary)
	}

	if captured.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected model %q", captured.Model)
	}
	if captured.MaxTokens != 1000 {
		t.Fatalf("unexpected max_tokens %d", captured.MaxTokens)
	}
	if captured.Temperature != 0.7 {
		t.Fatalf("unexpected temperature %v", captured.Temperature)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Fatalf("unexpected messages %+v", captured.Messages)
	}
}

func TestGenerateSummaryReportsTokenUsage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(completionFixture("summary"))
	}))
	defer srv.Close()

	var gotModel string
	var gotPrompt, gotCompletion int
	client := New(srv.URL, "key", Options{
		UsageFunc: func(model string, promptTokens, completionTokens int) {
			gotModel = model
			gotPrompt = promptTokens
			gotCompletion = completionTokens
		},
	})
	if _, err := client.GenerateSummary(context.Background(), "text"); err != nil {
		t.Fatalf("GenerateSummary() error = %v", err)
	}
	if gotModel != "gpt-4o-mini" {
		t.Fatalf("unexpected model %q", gotModel)
	}
	if gotPrompt != 100 || gotCompletion != 50 {
		t.Fatalf("unexpected usage %d/%d", gotPrompt, gotCompletion)
	}
}

func TestGenerateSummaryMapsEmptyChoicesToModelError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	_, err := New(srv.URL, "key", Options{}).GenerateSummary(context.Background(), "text")
	if !domain.IsKind(err, domain.ErrModel) {
		t.Fatalf("expected ErrModel kind, got %v", err)
	}
}

func TestGenerateSummaryMapsAPIFailureToModelError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"insufficient_quota"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "key", Options{}).GenerateSummary(context.Background(), "text")
	if !domain.IsKind(err, domain.ErrModel) {
		t.Fatalf("expected ErrModel kind, got %v", err)
	}
}

func TestClassifyCompletionErrorRetryableStatuses(t *testing.T) {
	retryable := classifyCompletionError(&HTTPStatusError{StatusCode: http.StatusTooManyRequests})
	if !retryable.Retryable {
		t.Fatalf("expected 429 to be retryable")
	}
	permanent := classifyCompletionError(&HTTPStatusError{StatusCode: http.StatusUnauthorized})
	if permanent.Retryable {
		t.Fatalf("expected 401 to be permanent")
	}
}

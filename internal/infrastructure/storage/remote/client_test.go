package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dstepanov-dev/pdf-digest/internal/core/domain"
)

func TestSaveReturnsProviderURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
			t.Fatalf("unexpected auth header %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("temporary"); got != "false" {
			t.Fatalf("unexpected temporary option %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "abc_report.pdf" {
			t.Fatalf("unexpected filename %q", header.Filename)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"url": "https://store.example/abc_report.pdf"})
	}))
	defer srv.Close()

	client := New(srv.URL, "token-1")
	url, err := client.Save(context.Background(), "abc_report.pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if url != "https://store.example/abc_report.pdf" {
		t.Fatalf("unexpected url %q", url)
	}
}

func TestSaveMapsProviderRejectionToUploadError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer srv.Close()

	client := New(srv.URL, "")
	_, err := client.Save(context.Background(), "a.pdf", strings.NewReader("x"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrUpload) {
		t.Fatalf("expected ErrUpload kind, got %v", err)
	}
}

func TestSaveMapsMissingURLToUploadError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	client := New(srv.URL, "")
	_, err := client.Save(context.Background(), "a.pdf", strings.NewReader("x"))
	if !domain.IsKind(err, domain.ErrUpload) {
		t.Fatalf("expected ErrUpload kind, got %v", err)
	}
}

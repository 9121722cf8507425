// Package localfs is the default blob store: uploaded PDFs land on disk and
// are served back by the API under /files/{key}, which keeps the stored URL
// fetchable by the summarization pipeline without extra auth.
package localfs

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

type Storage struct {
	basePath string
	baseURL  string
}

func New(basePath, publicBaseURL string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/storage"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Storage{
		basePath: basePath,
		baseURL:  strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

func (s *Storage) Save(_ context.Context, key string, data io.Reader) (string, error) {
	path := filepath.Join(s.basePath, key)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return s.baseURL + "/files/" + url.PathEscape(key), nil
}

func (s *Storage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	// Keys are generated server-side, but never trust them as paths.
	if key != filepath.Base(key) {
		return nil, fmt.Errorf("invalid storage key: %s", key)
	}
	f, err := os.Open(filepath.Join(s.basePath, key))
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

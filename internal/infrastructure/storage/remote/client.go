// Package remote uploads documents to an external object-storage provider
// over HTTP. The provider accepts a multipart POST with a bearer token and
// answers with the publicly resolvable URL of the stored object.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/dstepanov-dev/pdf-digest/internal/core/domain"
)

type Client struct {
	endpoint    string
	accessToken string
	temporary   bool
	httpClient  *http.Client
}

type Option func(*Client)

// WithTemporary marks uploads as provider-side temporary objects.
func WithTemporary(temporary bool) Option {
	return func(c *Client) { c.temporary = temporary }
}

func New(endpoint, accessToken string, opts ...Option) *Client {
	c := &Client{
		endpoint:    strings.TrimRight(endpoint, "/"),
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Save(ctx context.Context, key string, data io.Reader) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", key)
	if err != nil {
		return "", fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := io.Copy(part, data); err != nil {
		return "", fmt.Errorf("copy upload body: %w", err)
	}
	if err := writer.WriteField("temporary", fmt.Sprintf("%t", c.temporary)); err != nil {
		return "", fmt.Errorf("write upload options: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/upload", &buf)
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", domain.WrapError(domain.ErrUpload, "provider upload", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", domain.WrapError(domain.ErrUpload, "provider upload",
			fmt.Errorf("status %s: %s", resp.Status, strings.TrimSpace(string(body))))
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", domain.WrapError(domain.ErrUpload, "provider upload", fmt.Errorf("decode response: %w", err))
	}
	if out.URL == "" {
		return "", domain.WrapError(domain.ErrUpload, "provider upload", fmt.Errorf("provider returned no url"))
	}
	return out.URL, nil
}

// Open reads a previously stored object back through its provider URL. The
// local key is not resolvable here, so callers pass the full URL as key.
func (c *Client) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, key, nil)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrFetch, "provider download", err)
	}
	if resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, domain.WrapError(domain.ErrFetch, "provider download", fmt.Errorf("status %s", resp.Status))
	}
	return resp.Body, nil
}

package apiclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// defaultMaxResultSize caps backend response bodies when no limit is configured.
const defaultMaxResultSize = 20 << 20

// APIClient handles all communication with the conversion backend.
type APIClient struct {
	BaseURL       string
	HttpClient    *http.Client
	MaxResultSize int64

	sanitizer *bluemonday.Policy
}

// New creates a client for the backend at baseURL. A zero timeout leaves the transport defaults.
func New(baseURL string, timeout time.Duration, maxResultSize int64) *APIClient {
	if maxResultSize <= 0 {
		maxResultSize = defaultMaxResultSize
	}
	return &APIClient{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		HttpClient:    &http.Client{Timeout: timeout},
		MaxResultSize: maxResultSize,
		sanitizer:     bluemonday.StrictPolicy(),
	}
}

// do is the single helper for body-less requests.
func (c *APIClient) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create API request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend unavailable: %w", err)
	}
	return resp, nil
}

// readLimited reads at most limit bytes and fails if the body is longer.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("response exceeds %d bytes", limit)
	}
	return data, nil
}

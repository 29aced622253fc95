// Package httputil provides the upstream HTTP client and JSON response helpers.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// MaxResponseBytes bounds any upstream payload read into memory.
	MaxResponseBytes = 8 << 20
	// MaxErrorBodyBytes bounds upstream error bodies kept for messages.
	MaxErrorBodyBytes = 64 << 10

	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "appstore-gateway/1.0"
)

// =============================================================================
// Upstream Client
// =============================================================================

// Client performs GET requests against one upstream JSON service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// ClientConfig configures the upstream client.
type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
}

// StatusError is returned for upstream responses with status >= 400.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	msg := strings.TrimSpace(string(e.Body))
	if msg == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, msg)
}

// NewClient creates a new upstream client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  userAgent,
	}
}

// BaseURL returns the upstream base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get requests baseURL/path?query and returns the response body.
// Responses with status >= 400 yield a *StatusError holding the body.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("upstream request timed out: %w", err)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _, readErr := ReadAllWithLimit(resp.Body, MaxErrorBodyBytes)
		if readErr != nil {
			return nil, fmt.Errorf("read error response body: %w", readErr)
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: body}
	}

	body, err := ReadAllStrict(resp.Body, MaxResponseBytes)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}

// =============================================================================
// Body Readers
// =============================================================================

// ReadAllWithLimit reads up to limit bytes and reports whether more remained.
func ReadAllWithLimit(r io.Reader, limit int64) ([]byte, bool, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(body)) > limit {
		return body[:limit], true, nil
	}
	return body, false, nil
}

// ReadAllStrict reads the whole body and fails when it exceeds limit.
func ReadAllStrict(r io.Reader, limit int64) ([]byte, error) {
	body, truncated, err := ReadAllWithLimit(r, limit)
	if err != nil {
		return nil, err
	}
	if truncated {
		return nil, fmt.Errorf("response body exceeds %d bytes", limit)
	}
	return body, nil
}

// Package httpclient is the shared HTTP transport for remote vocabulary
// backends. A call is exactly one request; callers own retrying.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout = 30 * time.Second
	defaultMaxBody = 32 << 20
	userAgent      = "vocabhub/1"
	errorBodyLimit = 512
)

// Client wraps http.Client with a body cap and status handling.
type Client struct {
	httpClient *http.Client
	maxBody    int64
}

// APIError represents a non-2xx HTTP response.
type APIError struct {
	URL        string
	StatusCode int
	Body       string // first 512 bytes
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.URL, e.StatusCode, e.Body)
}

// Option configures Client behavior.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithMaxBody caps the number of response bytes read.
func WithMaxBody(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithHTTPClient replaces the underlying client, keeping the configured timeout
// when the replacement has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc.Timeout == 0 {
			hc.Timeout = c.httpClient.Timeout
		}
		c.httpClient = hc
	}
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		maxBody:    defaultMaxBody,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches rawURL with the given Accept header and returns the body and
// its Content-Type.
func (c *Client) Get(ctx context.Context, rawURL, accept string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Accept", accept)
	return c.do(req)
}

// PostForm posts form values and returns the body and its Content-Type.
func (c *Client) PostForm(ctx context.Context, rawURL, accept string, form url.Values) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", accept)
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, string, error) {
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", req.URL, err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, "", fmt.Errorf("read %s: response exceeds %d bytes", req.URL, c.maxBody)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyStr := string(body)
		if len(bodyStr) > errorBodyLimit {
			bodyStr = bodyStr[:errorBodyLimit]
		}
		return nil, "", &APIError{URL: req.URL.String(), StatusCode: resp.StatusCode, Body: bodyStr}
	}

	return body, resp.Header.Get("Content-Type"), nil
}

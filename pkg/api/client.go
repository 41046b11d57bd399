// Package api is the HTTP client for the storefront REST backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/NicolasHaas/goshop/pkg/version"
)

const (
	HeaderAuthToken = "x-auth-token"
	HeaderRequestID = "X-Request-ID"

	maxErrorBody = 512
)

var (
	ErrUnauthorized = errors.New("api: unauthorized")
	ErrNotFound     = errors.New("api: not found")
)

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource supplies the bearer token for authenticated calls.
type TokenSource interface {
	Token() string
}

// Error is returned for any non-2xx response.
type Error struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("api: %s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

// Is maps status codes onto the package sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// Client talks to the storefront backend rooted at serverURL.
type Client struct {
	client    httpClient
	serverURL url.URL
	requestID func() string
	metrics   *Metrics
}

// NewClient creates a client. serverURL is the API root, e.g. https://shop.example/api.
func NewClient(client httpClient, serverURL url.URL) *Client {
	return &Client{
		client:    client,
		serverURL: serverURL,
		requestID: func() string { return uuid.NewString() },
		metrics:   NewMetrics(),
	}
}

// Metrics returns the request counters of this client.
func (c *Client) Metrics() *Metrics {
	return c.metrics
}

// request describes one call.
type request struct {
	op     string
	method string
	path   []string
	token  string
	body   any
	out    any
}

func (c *Client) do(ctx context.Context, r request) (http.Header, error) {
	target := c.serverURL.JoinPath(r.path...)

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("api: %s: encode: %w", r.op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("api: %s: %w", r.op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	reqID := c.requestID()
	req.Header.Set(HeaderRequestID, reqID)

	slog.Debug("api request", "op", r.op, "method", r.method, "url", target.String(), "request_id", reqID)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.observe(0, time.Since(start), err)
		return nil, fmt.Errorf("api: %s: %w", r.op, err)
	}
	c.metrics.observe(resp.StatusCode, time.Since(start), nil)
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &Error{Op: r.op, StatusCode: resp.StatusCode, Message: errorMessage(raw)}
		slog.Debug("api error response", "op", r.op, "status", resp.StatusCode, "request_id", reqID)
		return resp.Header, apiErr
	}

	if r.out != nil {
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return resp.Header, fmt.Errorf("api: %s: read body: %w", r.op, err)
		}
		if len(bytes.TrimSpace(raw)) > 0 {
			if err := json.Unmarshal(raw, r.out); err != nil {
				return resp.Header, fmt.Errorf("api: %s: decode: %w", r.op, err)
			}
		}
		c.metrics.BytesIn.Add(int64(len(raw)))
	}
	return resp.Header, nil
}

// errorMessage pulls {"message": "..."} out of an error body, falling back to the raw text.
func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return strings.TrimSpace(string(raw))
}

// Package api talks to the analysis backend's REST interface.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ritzau/binview/pkg/logging"
)

var log = logging.New("api")

// StatusError is a non-2xx backend response.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %s: %s", e.Status, strings.TrimSpace(e.Body))
}

// Options configure a Client. Zero values pick defaults.
type Options struct {
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
	HTTPClient *http.Client
}

// Client is a backend client. It is safe for concurrent use.
type Client struct {
	base       string
	http       *http.Client
	attempts   int
	retryDelay time.Duration
}

// NewClient creates a client for the backend rooted at base, e.g.
// http://localhost:8000/api.
func NewClient(base string, opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	return &Client{
		base:       strings.TrimRight(base, "/"),
		http:       hc,
		attempts:   opts.Retries + 1,
		retryDelay: delay,
	}
}

// Modules lists module names with duplicates removed, first occurrence kept.
func (c *Client) Modules(ctx context.Context) (*ModulesResponse, error) {
	var resp ModulesResponse
	if err := c.do(ctx, http.MethodGet, "/modules/", nil, &resp); err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	seen := make(map[string]bool, len(resp.Modules))
	unique := make([]string, 0, len(resp.Modules))
	for _, m := range resp.Modules {
		if !seen[m] {
			seen[m] = true
			unique = append(unique, m)
		}
	}
	resp.Modules = unique
	return &resp, nil
}

// Collections lists stored collections.
func (c *Client) Collections(ctx context.Context) (*CollectionsResponse, error) {
	var resp CollectionsResponse
	if err := c.do(ctx, http.MethodGet, "/collections/", nil, &resp); err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return &resp, nil
}

// CollectionFiles lists the samples of a collection.
func (c *Client) CollectionFiles(ctx context.Context, collection string) (*CollectionFilesResponse, error) {
	var resp CollectionFilesResponse
	path := "/collections/" + url.PathEscape(collection) + "/files"
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("list files of %s: %w", collection, err)
	}
	return &resp, nil
}

// ChartCapabilities reports which chart modules have results.
func (c *Client) ChartCapabilities(ctx context.Context) (*ChartCapabilitiesResponse, error) {
	var resp ChartCapabilitiesResponse
	if err := c.do(ctx, http.MethodGet, "/modules/chart-capabilities", nil, &resp); err != nil {
		return nil, fmt.Errorf("chart capabilities: %w", err)
	}
	return &resp, nil
}

// Retrieve fetches module results.
func (c *Client) Retrieve(ctx context.Context, req RetrieveRequest) (*RetrieveResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode retrieve request: %w", err)
	}
	var resp RetrieveResponse
	if err := c.do(ctx, http.MethodPost, "/analysis/retrieve", body, &resp); err != nil {
		return nil, fmt.Errorf("retrieve %s: %w", req.Module, err)
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, v any) error {
	start := time.Now()
	err := Retry(ctx, c.attempts, c.retryDelay, func() error {
		return c.attempt(ctx, method, path, body, v)
	})
	log.DebugContext(ctx, "backend call", "method", method, "path", path,
		"durationMs", time.Since(start).Milliseconds(), "ok", err == nil)
	return err
}

func (c *Client) attempt(ctx context.Context, method, path string, body []byte, v any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	if id := logging.GetRequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &RetryableError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		serr := &StatusError{Code: resp.StatusCode, Status: resp.Status, Body: string(text)}
		if resp.StatusCode >= 500 {
			return &RetryableError{Err: serr}
		}
		return serr
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

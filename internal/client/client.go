// Package client talks to the formulas REST resource and maps its responses
// onto the formula domain types and error taxonomy.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"formulaplace/internal/formula"
	applog "formulaplace/internal/log"
)

const (
	// DefaultTimeout bounds every request. Calls are never retried.
	DefaultTimeout = 3 * time.Second

	defaultBaseURL = "http://localhost:8080/api"
	maxErrorBody   = 4 << 10
)

// Config describes how the client should be initialised.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client is a thin wrapper around the formulas resource.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient validates cfg and builds a Client.
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("client: base url %q must use http or https", baseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		httpClient: httpClient,
	}, nil
}

// BaseURL returns the normalised resource root.
func (c *Client) BaseURL() string { return c.baseURL }

// Create validates draft locally and persists it. No request is sent when
// validation fails.
func (c *Client) Create(ctx context.Context, draft formula.Draft) (formula.Formula, error) {
	if err := formula.ValidateDraft(draft); err != nil {
		observe("create", resultInvalid, 0)
		return formula.Formula{}, err
	}
	var out formula.Formula
	if err := c.do(ctx, "create", http.MethodPost, "/formulas", uuid.Nil, draft, &out); err != nil {
		return formula.Formula{}, err
	}
	return out, nil
}

// Get fetches a single formula.
func (c *Client) Get(ctx context.Context, id uuid.UUID) (formula.Formula, error) {
	var out formula.Formula
	if err := c.do(ctx, "get", http.MethodGet, "/formulas/"+id.String(), id, nil, &out); err != nil {
		return formula.Formula{}, err
	}
	return out, nil
}

// Update sends only the fields present in patch.
func (c *Client) Update(ctx context.Context, id uuid.UUID, patch formula.Patch) (formula.Formula, error) {
	if err := formula.ValidatePatch(patch); err != nil {
		observe("update", resultInvalid, 0)
		return formula.Formula{}, err
	}
	var out formula.Formula
	if err := c.do(ctx, "update", http.MethodPatch, "/formulas/"+id.String(), id, patch, &out); err != nil {
		return formula.Formula{}, err
	}
	return out, nil
}

// Delete removes a formula.
func (c *Client) Delete(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, "delete", http.MethodDelete, "/formulas/"+id.String(), id, nil, nil)
}

// List returns every formula, optionally filtered by title on the server. The
// result is never nil.
func (c *Client) List(ctx context.Context, title string) ([]formula.Formula, error) {
	path := "/formulas"
	if title = strings.TrimSpace(title); title != "" {
		path += "?" + url.Values{"title": {title}}.Encode()
	}
	var out []formula.Formula
	if err := c.do(ctx, "list", http.MethodGet, path, uuid.Nil, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []formula.Formula{}
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, id uuid.UUID, payload, out any) (err error) {
	start := time.Now()
	status := 0
	defer func() {
		observe(op, resultOf(err), time.Since(start))
		if err != nil {
			applog.Debug(ctx, "formula request failed", "operation", op, "status", status, "error", err)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		encoded, encErr := json.Marshal(payload)
		if encErr != nil {
			return &formula.RemoteError{Op: op, Err: fmt.Errorf("encode request: %w", encErr)}
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &formula.RemoteError{Op: op, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &formula.RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	if resp.StatusCode == http.StatusNotFound && id != uuid.Nil {
		return &formula.NotFoundError{ID: id}
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return &formula.RemoteError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(errorMessage(resp))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &formula.RemoteError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func errorMessage(resp *http.Response) string {
	var payload struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err := json.Unmarshal(raw, &payload); err == nil && strings.TrimSpace(payload.Error) != "" {
		return payload.Error
	}
	return resp.Status
}

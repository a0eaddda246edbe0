package apiclient

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
	log "github.com/sirupsen/logrus"
)

// ErrNetwork is matched by every failed backend call.
var ErrNetwork = errors.New("backend request failed")

// Error describes a failed backend call. StatusCode is 0 when no response arrived.
type Error struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
	if e.Detail == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Detail)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNetwork}
	}
	return []error{ErrNetwork, e.Err}
}

func statusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func IsUnauthorized(err error) bool { return statusOf(err) == http.StatusUnauthorized }
func IsForbidden(err error) bool    { return statusOf(err) == http.StatusForbidden }
func IsNotFound(err error) bool     { return statusOf(err) == http.StatusNotFound }

// TokenSource supplies the bearer credential; an empty token sends no header.
type TokenSource interface {
	Token() string
}

// Client talks to the storefront REST backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	log        log.FieldLogger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func WithLogger(logger log.FieldLogger) Option {
	return func(c *Client) { c.log = logger }
}

// NewClient creates a client for baseURL, e.g. http://localhost:8000/api.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithField("component", "apiclient")
	return c
}

// SetTokenSource wires the session holder after construction.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Method: method, Path: path, Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &Error{Method: method, Path: path, Err: err}
	}
	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	entry := c.log.WithFields(log.Fields{"method": method, "path": path, "request_id": requestID})
	started := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		entry.WithError(err).Debug("Request failed")
		return &Error{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	entry.WithFields(log.Fields{
		"status":  resp.StatusCode,
		"elapsed": time.Since(started),
	}).Debug("Request completed")

	if resp.StatusCode >= http.StatusBadRequest {
		return &Error{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Detail:     readDetail(resp.Body),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to decode response: %w", err),
		}
	}
	return nil
}

// readDetail extracts the message from {"detail": ...} or {"error": ...} bodies.
func readDetail(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Detail any    `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return strings.TrimSpace(string(data))
	}
	if s, ok := payload.Detail.(string); ok && s != "" {
		return s
	}
	if payload.Error != "" {
		return payload.Error
	}
	if payload.Detail != nil {
		// Validation errors carry a structured detail list.
		raw, _ := json.Marshal(payload.Detail)
		return string(raw)
	}
	return strings.TrimSpace(string(data))
}

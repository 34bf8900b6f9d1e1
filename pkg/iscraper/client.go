// Package iscraper is a client for the iScraper LinkedIn data API.
package iscraper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iscraper-project/iscraper-go/pkg/httpclient"
)

const (
	// DefaultBaseURL is the API endpoint every operation path is appended to.
	DefaultBaseURL = "https://api.iscraper.io/v2"

	apiKeyHeader    = "X-API-KEY"
	maxErrorSnippet = 512
)

// Client issues authenticated calls to the iScraper API. It is immutable
// after New and safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    httpclient.Client
	closer  func()
	log     Logger
}

type options struct {
	baseURL    string
	httpClient httpclient.Client
	timeout    time.Duration
	log        Logger
}

// Option customizes a Client.
type Option func(*options)

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithHTTPClient injects the transport. The caller keeps ownership of it;
// Close will not release it.
func WithHTTPClient(c httpclient.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithTimeout bounds each call on the default transport. Ignored when a
// transport is injected with WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithLogger attaches a structured logger for request diagnostics.
func WithLogger(l Logger) Option {
	return func(o *options) { o.log = l }
}

// New builds a client for apiKey. The key is not validated and no request is
// made; New fails only when the transport cannot be set up.
func New(apiKey string, opts ...Option) (*Client, error) {
	o := options{baseURL: DefaultBaseURL}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	base := strings.TrimRight(strings.TrimSpace(o.baseURL), "/")
	if _, ok := parseAbsoluteURL(base); !ok {
		return nil, invalidInput("new", fmt.Errorf("invalid base url %q", o.baseURL))
	}

	c := &Client{
		baseURL: base,
		apiKey:  apiKey,
		http:    o.httpClient,
		log:     o.log,
	}
	if c.log == nil {
		c.log = noopLogger{}
	}
	if c.http == nil {
		rc := httpclient.NewRestyClient(o.timeout)
		c.http = rc
		c.closer = rc.CloseIdleConnections
	}
	return c, nil
}

// BaseURL returns the endpoint prefix in use.
func (c *Client) BaseURL() string { return c.baseURL }

// Close releases idle connections held by a transport the client created.
func (c *Client) Close() {
	if c == nil || c.closer == nil {
		return
	}
	c.closer()
}

// SendRequest dispatches a call to baseURL+path. POST carries body as JSON,
// GET carries no body; an empty method means POST. Only a 200 response
// succeeds, and its body is returned as decoded JSON with numbers kept as
// json.Number.
func (c *Client) SendRequest(ctx context.Context, path, method string, body any) (any, error) {
	op := strings.TrimPrefix(path, "/")

	method = strings.ToUpper(strings.TrimSpace(method))
	switch method {
	case "":
		method = http.MethodPost
	case http.MethodPost:
	case http.MethodGet:
		body = nil
	default:
		return nil, invalidInput(op, fmt.Errorf("unsupported method %q", method))
	}

	start := time.Now()
	resp, err := c.http.Do(ctx, httpclient.Request{
		Method: method,
		URL:    c.baseURL + path,
		Headers: map[string]string{
			apiKeyHeader: c.apiKey,
			"Accept":     "application/json",
		},
		Body: body,
	})
	if err != nil {
		c.log.WarnObj("iscraper request failed", "iscraper_request", map[string]any{
			"method": method,
			"path":   path,
			"error":  err.Error(),
		})
		return nil, requestFailed(op, 0, err)
	}

	status := resp.StatusCode()
	c.log.DebugObj("iscraper request completed", "iscraper_request", map[string]any{
		"method":     method,
		"path":       path,
		"status":     status,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})

	if status != http.StatusOK {
		var cause error
		if s := bodySnippet(resp.Body()); s != "" {
			cause = errors.New(s)
		}
		return nil, requestFailed(op, status, cause)
	}

	out, err := decodeJSON(resp.Body())
	if err != nil {
		return nil, requestFailed(op, status, fmt.Errorf("decode response: %w", err))
	}
	return out, nil
}

// decodeJSON decodes exactly one JSON value. Numbers stay json.Number so
// integer ids beyond float64 precision come back unchanged.
func decodeJSON(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var out any
	if err := dec.Decode(&out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}
	return out, nil
}

func bodySnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorSnippet {
		s = s[:maxErrorSnippet] + "..."
	}
	return s
}

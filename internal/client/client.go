// Package client speaks the backend HTTP contract. It is the only package
// that builds requests or reads response bodies; every failure leaves it
// as a domain error carrying one of the transport, remote or malformed
// response codes.
package client

import (
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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"

	"credguard/internal/errnorm"
	"credguard/internal/platform/logger"
	"credguard/internal/platform/metrics"
	dErrors "credguard/pkg/domain-errors"
	"credguard/pkg/validation"
)

// Backend endpoints, relative to the base URL.
const (
	PathVerify          = "/api/credentials/verify"
	PathUpload          = "/api/credentials/upload"
	PathIssue           = "/api/credentials/issuance/issue-from-document"
	PathIssueAsync      = "/api/credentials/issuance/issue-from-document/async"
	PathStatusPrefix    = "/api/credentials/issuance/status/"
	PathRevokePrefix    = "/api/credentials/issuance/revoke/"
	PathConnectionIDFmt = "/api/credentials/issuance/connection/%s/status"
	PathHealth          = "/health"
)

// DefaultTimeout bounds a whole request when no HTTP client is injected.
const DefaultTimeout = 60 * time.Second

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient HTTPDoer
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

// Client calls the credential backend.
type Client struct {
	baseURL string
	timeout time.Duration
	http    HTTPDoer
	logger  *slog.Logger
	metrics *metrics.Metrics

	statusCalls singleflight.Group
}

// StatusError records the HTTP status of a non-2xx response. It sits
// underneath the remote_error domain error.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// StatusCode extracts the HTTP status from a remote error, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// New creates a backend client. The base URL must be absolute.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("invalid backend url %q", cfg.BaseURL))
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}

	return &Client{
		baseURL: base,
		timeout: cfg.Timeout,
		http:    selectHTTPClient(cfg),
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}, nil
}

func selectHTTPClient(cfg Config) HTTPDoer {
	if cfg.HTTPClient != nil {
		return cfg.HTTPClient
	}
	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// BaseURL returns the normalized backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request describes one backend call.
type request struct {
	endpoint    string // metrics label
	method      string
	path        string
	body        io.Reader
	contentType string
	size        int64
}

// send performs the request. A nil error guarantees a 2xx response whose
// body the caller must close. Non-2xx responses are consumed, normalized
// and returned as remote_error.
func (c *Client) send(ctx context.Context, r request) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, r.body)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.size > 0 {
		req.ContentLength = r.size
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.ObserveRequestLatency(r.endpoint, time.Since(start))
	if err != nil {
		return nil, classifyTransport(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		msg := errnorm.FromResponse(resp)
		c.logger.WarnContext(ctx, "backend returned error status",
			"endpoint", r.endpoint,
			"status", resp.StatusCode,
			"message", msg,
		)
		return nil, dErrors.Wrap(&StatusError{StatusCode: resp.StatusCode}, dErrors.CodeRemote, msg)
	}
	return resp, nil
}

func classifyTransport(ctx context.Context, err error) error {
	msg := errnorm.FromTransportError(err)
	if errors.Is(ctx.Err(), context.Canceled) {
		return dErrors.Wrap(err, dErrors.CodeCancelled, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeTransport, msg)
}

// readBody reads a 2xx body up to the response size limit.
func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, validation.MaxResponseBodySize+1))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTransport, errnorm.FromTransportError(err))
	}
	if int64(len(body)) > validation.MaxResponseBodySize {
		return nil, dErrors.New(dErrors.CodeMalformedResponse, "response body exceeds size limit")
	}
	return body, nil
}

// decode checks body against s and unmarshals it into T.
func decode[T any](resp *http.Response, s shape) (*T, error) {
	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	if err := s.check(body); err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeMalformedResponse,
			fmt.Sprintf("malformed %s response: %v", s.name, err))
	}
	return &out, nil
}

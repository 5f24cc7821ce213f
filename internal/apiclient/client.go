// Package apiclient is the tenant-aware HTTP client for the accounts, invoices
// and ledger API. Every call is signed with tenant, correlation and
// anti-forgery headers, and every failure is returned as a *ClientError.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/fareledger/internal/tenant"
)

// Wire names shared with the backend.
const (
	HeaderTenantID      = "X-Tenant-ID"
	HeaderCorrelationID = "X-Correlation-ID"
	HeaderXSRFToken     = "X-XSRF-TOKEN"
	CookieXSRFToken     = "XSRF-TOKEN"
)

const defaultMaxResponseBytes = 32 << 20

var (
	ErrInvalidOptions    = errors.New("apiclient: invalid options")
	ErrMalformedResponse = errors.New("apiclient: malformed response")
)

// RetryPolicy applies to idempotent GET requests only.
type RetryPolicy struct {
	Attempts int           // additional attempts after the first
	Delay    time.Duration // fixed wait between attempts
}

// DefaultRetryPolicy retries a GET twice, one second apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 2, Delay: time.Second}
}

// Options configures a Client.
type Options struct {
	BaseURL          string
	HTTPClient       *http.Client    // a cookie jar is attached when missing
	Tenants          *tenant.Store   // required
	Retry            *RetryPolicy    // nil means DefaultRetryPolicy
	Logger           *zerolog.Logger // nil means the global logger
	MaxResponseBytes int64
}

// Client talks to the backend on behalf of the active tenant.
type Client struct {
	baseURL          *url.URL
	httpClient       *http.Client
	tenants          *tenant.Store
	retry            RetryPolicy
	logger           zerolog.Logger
	maxResponseBytes int64
	newID            func() string
}

// New validates opts and returns a Client.
func New(opts Options) (*Client, error) {
	if opts.Tenants == nil {
		return nil, fmt.Errorf("apiclient.New: tenant store required: %w", ErrInvalidOptions)
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("apiclient.New: base url: %w", err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("apiclient.New: base url %q must be absolute http(s): %w", opts.BaseURL, ErrInvalidOptions)
	}
	// Joined request paths must stay rooted.
	if base.Path == "" {
		base.Path = "/"
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	if hc.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("apiclient.New: cookie jar: %w", err)
		}
		cp := *hc
		cp.Jar = jar
		hc = &cp
	}

	retry := DefaultRetryPolicy()
	if opts.Retry != nil {
		retry = *opts.Retry
	}
	if retry.Attempts < 0 || retry.Delay < 0 {
		return nil, fmt.Errorf("apiclient.New: negative retry policy: %w", ErrInvalidOptions)
	}

	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	maxBytes := opts.MaxResponseBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxResponseBytes
	}

	return &Client{
		baseURL:          base,
		httpClient:       hc,
		tenants:          opts.Tenants,
		retry:            retry,
		logger:           logger,
		maxResponseBytes: maxBytes,
		newID:            uuid.NewString,
	}, nil
}

// Tenants returns the store the client reads the active tenant from.
func (c *Client) Tenants() *tenant.Store { return c.tenants }

type request struct {
	method string
	path   []string // unescaped segments, after the tenant prefix when scoped
	query  url.Values
	body   any
	scoped bool
	accept string
}

type response struct {
	status int
	header http.Header
	body   []byte
}

// do sends req, retrying idempotent GETs on retryable failures.
func (c *Client) do(ctx context.Context, req request) (*response, error) {
	var tenantID string
	if req.scoped {
		id, err := c.tenants.RequireID()
		if err != nil {
			return nil, &ClientError{
				Kind:    KindUnauthorized,
				Message: "no active tenant",
				Err:     err,
			}
		}
		tenantID = id
	}

	var payload []byte
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("apiclient: encode %s body: %w", req.method, err)
		}
		payload = b
	}

	target := c.resolve(tenantID, req)

	attempts := 1
	if req.method == http.MethodGet {
		attempts += c.retry.Attempts
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := c.send(ctx, req, target, tenantID, payload, attempt)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil || !IsRetryable(err) || attempt == attempts {
			break
		}
		if err := sleepCtx(ctx, c.retry.Delay); err != nil {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) send(ctx context.Context, req request, target *url.URL, tenantID string, payload []byte, attempt int) (*response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target.String(), body)
	if err != nil {
		return nil, Classify(0, "invalid request", err)
	}

	accept := req.accept
	if accept == "" {
		accept = "application/json"
	}
	httpReq.Header.Set("Accept", accept)
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	correlationID := ""
	if req.scoped {
		correlationID = c.newID()
		httpReq.Header.Set(HeaderTenantID, tenantID)
		httpReq.Header.Set(HeaderCorrelationID, correlationID)
		if isMutating(req.method) {
			if token := c.xsrfToken(httpReq.URL); token != "" {
				httpReq.Header.Set(HeaderXSRFToken, token)
			}
		}
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug().Err(err).
			Str("method", req.method).
			Str("path", target.Path).
			Str("correlation_id", correlationID).
			Int("attempt", attempt).
			Msg("apiclient: transport failure")
		return nil, Classify(0, "network unavailable", err)
	}
	defer httpResp.Body.Close()

	data, readErr := c.readBody(httpResp.Body)

	c.logger.Debug().
		Str("method", req.method).
		Str("path", target.Path).
		Str("correlation_id", correlationID).
		Int("status", httpResp.StatusCode).
		Int("attempt", attempt).
		Dur("elapsed", time.Since(start)).
		Msg("apiclient: request")

	if readErr != nil {
		return nil, Classify(0, "reading response", readErr)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, Classify(httpResp.StatusCode, problemMessage(data), nil)
	}

	return &response{status: httpResp.StatusCode, header: httpResp.Header, body: data}, nil
}

func (c *Client) resolve(tenantID string, req request) *url.URL {
	segments := make([]string, 0, len(req.path)+1)
	if req.scoped {
		segments = append(segments, url.PathEscape(tenantID))
	}
	for _, s := range req.path {
		segments = append(segments, url.PathEscape(s))
	}
	u := c.baseURL.JoinPath(segments...)
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}
	return u
}

func (c *Client) xsrfToken(u *url.URL) string {
	if c.httpClient.Jar == nil {
		return ""
	}
	for _, ck := range c.httpClient.Jar.Cookies(u) {
		if ck.Name == CookieXSRFToken {
			return ck.Value
		}
	}
	return ""
}

func (c *Client) readBody(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, c.maxResponseBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > c.maxResponseBytes {
		return nil, fmt.Errorf("response exceeds %d bytes", c.maxResponseBytes)
	}
	return data, nil
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

// problemMessage extracts a human message from an error body. Problem
// documents, {"message"} and {"error"} shapes are understood.
func problemMessage(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"detail", "message", "error", "title"} {
			if s, ok := payload[key].(string); ok && s != "" {
				return s
			}
		}
		return ""
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

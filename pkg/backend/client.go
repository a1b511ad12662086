package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/simple-bff/pkg/apierror"
	"github.com/tendant/simple-bff/pkg/credentials"
)

// LoginPath is the endpoint whose failures bypass the automatic error
// classifier (the login flow owns its status-code semantics).
const LoginPath = "/auth/login"

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client wraps outbound calls to the upstream API. The zero value is not
// usable; construct with NewClient.
type Client struct {
	httpClient httpDoer
	baseURL    string
	source     credentials.Source
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(doer httpDoer) Option {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithBaseURL overrides the base URL resolved from the config. Intended
// for tests pointing the client at an httptest server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// NewClient creates a Client from config.
func NewClient(config Config, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		baseURL:    config.BaseURL(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithSource returns a copy of the client bound to the given credential
// source. The copy shares the underlying HTTP client, so binding is cheap
// enough to do per inbound request.
func (c *Client) WithSource(source credentials.Source) *Client {
	scoped := *c
	scoped.source = source
	return &scoped
}

// RequestOption adjusts a single outbound call
type RequestOption func(*requestOptions)

type requestOptions struct {
	skipAuth    bool
	query       url.Values
	messageKey  string
	contentType string
}

// SkipAuth suppresses the Authorization header for this call.
func SkipAuth() RequestOption {
	return func(o *requestOptions) {
		o.skipAuth = true
	}
}

// WithQuery attaches query parameters to the call.
func WithQuery(query url.Values) RequestOption {
	return func(o *requestOptions) {
		o.query = query
	}
}

// WithMessageKey sets the default localization key used when the failure
// classifies to a status without a dedicated mapping.
func WithMessageKey(key string) RequestOption {
	return func(o *requestOptions) {
		o.messageKey = key
	}
}

// Get issues a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.call(ctx, http.MethodGet, path, nil, out, opts...)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.call(ctx, http.MethodPost, path, body, out, opts...)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.call(ctx, http.MethodPut, path, body, out, opts...)
}

// Patch issues a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.call(ctx, http.MethodPatch, path, body, out, opts...)
}

// Delete issues a DELETE request. The upstream API accepts JSON bodies on
// DELETE (2FA disable), so body is allowed here too.
func (c *Client) Delete(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.call(ctx, http.MethodDelete, path, body, out, opts...)
}

// PostRaw issues a POST with a caller-supplied body and content type,
// used for multipart and binary payloads. No JSON content-type header is
// attached.
func (c *Client) PostRaw(ctx context.Context, path string, body io.Reader, contentType string, out any, opts ...RequestOption) error {
	opts = append(opts, func(o *requestOptions) { o.contentType = contentType })
	return c.do(ctx, http.MethodPost, path, body, out, opts...)
}

func (c *Client) call(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
		opts = append(opts, func(o *requestOptions) { o.contentType = "application/json" })
	}
	return c.do(ctx, method, path, reader, out, opts...)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any, opts ...RequestOption) error {
	options := requestOptions{messageKey: apierror.KeyUnknown}
	for _, opt := range opts {
		opt(&options)
	}

	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("backend path must be root-relative: %q", path)
	}

	requestURL := c.baseURL + path
	if len(options.query) > 0 {
		requestURL += "?" + encodeQuery(options.query)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return c.finishError(path, fmt.Errorf("build request: %w", err), options)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if options.contentType != "" {
		req.Header.Set("Content-Type", options.contentType)
	}

	if c.source != nil {
		c.source.Resolve(options.skipAuth).Apply(req)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("upstream call failed", "method", method, "path", path, "err", err)
		return c.finishError(path, err, options)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.finishError(path, fmt.Errorf("read response body: %w", err), options)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Warn("upstream call rejected",
			"method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))
		return c.finishError(path, apierror.NewResponseError(resp.StatusCode, rawBody), options)
	}

	if out == nil || len(rawBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(rawBody, out); err != nil {
		return c.finishError(path, fmt.Errorf("decode response body: %w", err), options)
	}
	return nil
}

// finishError applies the classification policy: login keeps its raw
// error, everything else rejects with an ApiError.
func (c *Client) finishError(path string, err error, options requestOptions) error {
	if path == LoginPath {
		return err
	}
	return apierror.Classify(err, options.messageKey)
}

// encodeQuery serializes query parameters. Keys with a bracket suffix
// ("roles[]") repeat per value; plain keys with several values collapse
// to one comma-separated parameter.
func encodeQuery(query url.Values) string {
	var b strings.Builder
	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		values := query[key]
		if strings.HasSuffix(key, "[]") {
			for _, value := range values {
				appendParam(&b, key, value)
			}
			continue
		}
		appendParam(&b, key, strings.Join(values, ","))
	}
	return b.String()
}

func appendParam(b *strings.Builder, key, value string) {
	if b.Len() > 0 {
		b.WriteByte('&')
	}
	b.WriteString(url.QueryEscape(key))
	b.WriteByte('=')
	b.WriteString(url.QueryEscape(value))
}

// Package api is the single choke point for every network call the SeqAssist
// client makes. It builds and dispatches HTTP requests against the backend,
// attaches the bearer token, keeps it fresh (see refresh.go), runs the
// registered interceptor chains, and converts every failure into exactly one
// typed error from the taxonomy in errors.go.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/seqassist/seqassist/internal/client/session"
	"github.com/seqassist/seqassist/internal/logging"
)

// DefaultTimeout bounds every request the shared http.Client dispatches.
const DefaultTimeout = 30 * time.Second

// maxResponseSize limits response body reads.
const maxResponseSize = 10 * 1024 * 1024

// Client is the access-layer contract consumed by the domain services.
// All calls require auth unless NoAuth is passed.
type Client interface {
	Get(ctx context.Context, path string, out any, opts ...RequestOption) error
	Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error
	Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error
	Delete(ctx context.Context, path string, out any, opts ...RequestOption) error
	PostMultipart(ctx context.Context, path string, form *Form, out any, opts ...RequestOption) error
	Download(ctx context.Context, rawURL string, w io.Writer) error
	OnSessionExpired(fn func())
}

// RequestInterceptor may mutate an outgoing request before dispatch.
// Interceptors run in registration order.
type RequestInterceptor func(*http.Request) error

// ResponseInterceptor observes a response before the pipeline consumes it.
type ResponseInterceptor func(*http.Response) error

// HTTPClient is the concrete access layer over the SeqAssist REST API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	store   *session.Store
	log     logging.Logger
	now     func() time.Time

	reqInterceptors  []RequestInterceptor
	respInterceptors []ResponseInterceptor

	refreshGroup singleflight.Group

	mu             sync.Mutex
	expiredHooks   []func()
	expiryNotified bool
}

type Option func(*HTTPClient)

// WithLogger routes access-layer diagnostics to log.
func WithLogger(log logging.Logger) Option {
	return func(c *HTTPClient) { c.log = log }
}

// WithHTTPClient substitutes the underlying transport, e.g. for custom TLS
// settings or a different timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.http = hc }
}

// New builds an HTTPClient rooted at baseURL, reading and persisting tokens
// through store.
func New(baseURL string, store *session.Store, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		store:   store,
		log:     logging.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.UseRequest(requestID)

	// A saved session (login in this or any other consumer of the store)
	// rearms the session-expired notification.
	store.Subscribe(func() {
		token, err := store.AccessToken(context.Background())
		if err == nil && token != "" {
			c.mu.Lock()
			c.expiryNotified = false
			c.mu.Unlock()
		}
	})

	return c
}

// UseRequest appends a request interceptor.
func (c *HTTPClient) UseRequest(fn RequestInterceptor) {
	c.reqInterceptors = append(c.reqInterceptors, fn)
}

// UseResponse appends a response interceptor.
func (c *HTTPClient) UseResponse(fn ResponseInterceptor) {
	c.respInterceptors = append(c.respInterceptors, fn)
}

// requestID tags every outgoing request for backend-side correlation.
func requestID(req *http.Request) error {
	req.Header.Set("X-Request-ID", uuid.NewString())
	return nil
}

type callOptions struct {
	requiresAuth bool
	headers      http.Header
}

// RequestOption tunes a single call.
type RequestOption func(*callOptions)

// NoAuth marks a call as unauthenticated: no bearer header, no refresh.
func NoAuth() RequestOption {
	return func(o *callOptions) { o.requiresAuth = false }
}

// WithHeader adds a header to this call only.
func WithHeader(key, value string) RequestOption {
	return func(o *callOptions) {
		o.headers.Set(key, value)
	}
}

func (c *HTTPClient) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.call(ctx, http.MethodGet, path, nil, "", out, opts)
}

func (c *HTTPClient) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	encoded, err := encodeJSON(body)
	if err != nil {
		return err
	}
	return c.call(ctx, http.MethodPost, path, encoded, "application/json", out, opts)
}

func (c *HTTPClient) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	encoded, err := encodeJSON(body)
	if err != nil {
		return err
	}
	return c.call(ctx, http.MethodPut, path, encoded, "application/json", out, opts)
}

func (c *HTTPClient) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.call(ctx, http.MethodDelete, path, nil, "", out, opts)
}

// PostMultipart submits a multipart/form-data request, used for code
// generation with file attachments.
func (c *HTTPClient) PostMultipart(ctx context.Context, path string, form *Form, out any, opts ...RequestOption) error {
	contentType, body, err := form.Encode()
	if err != nil {
		return err
	}
	return c.call(ctx, http.MethodPost, path, body, contentType, out, opts)
}

func encodeJSON(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return encoded, nil
}

// call runs the full request pipeline: proactive refresh, dispatch, the
// single reactive refresh-and-retry on 401, error mapping, body decoding.
func (c *HTTPClient) call(ctx context.Context, method, path string, body []byte, contentType string, out any, opts []RequestOption) error {
	o := callOptions{requiresAuth: true, headers: http.Header{}}
	for _, opt := range opts {
		opt(&o)
	}

	if o.requiresAuth {
		if err := c.ensureFresh(ctx); err != nil {
			return err
		}
	}

	resp, err := c.dispatch(ctx, method, path, body, contentType, o)
	if err != nil {
		return networkError(err)
	}

	if resp.StatusCode == http.StatusUnauthorized && o.requiresAuth {
		drain(resp)
		c.log.Debug(ctx, "got 401, refreshing and retrying once", "method", method, "path", path)
		if _, err := c.refresh(ctx); err != nil {
			return err
		}
		resp, err = c.dispatch(ctx, method, path, body, contentType, o)
		if err != nil {
			return networkError(err)
		}
	}
	defer drain(resp)

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return networkError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newStatusError(resp.StatusCode, payload)
		c.log.Debug(ctx, "request failed", "method", method, "path", path, "status", resp.StatusCode)
		return apiErr
	}

	return decodeBody(payload, out)
}

// dispatch builds and sends one HTTP request. Transport errors come back
// raw; the caller wraps them.
func (c *HTTPClient) dispatch(ctx context.Context, method, path string, body []byte, contentType string, o callOptions) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for key, values := range o.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	if o.requiresAuth {
		token, err := c.store.AccessToken(ctx)
		if err != nil {
			return nil, err
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	for _, fn := range c.reqInterceptors {
		if err := fn(req); err != nil {
			return nil, fmt.Errorf("request interceptor: %w", err)
		}
	}

	c.log.Debug(ctx, "dispatching request", "method", method, "path", path)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	for _, fn := range c.respInterceptors {
		if err := fn(resp); err != nil {
			drain(resp)
			return nil, fmt.Errorf("response interceptor: %w", err)
		}
	}
	return resp, nil
}

// decodeBody fills out from a JSON payload. An empty or undecodable body is
// treated as an empty result, which keeps 204-style endpoints painless.
func decodeBody(payload []byte, out any) error {
	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	// an undecodable success body behaves like an empty one
	_ = json.Unmarshal(payload, out)
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
	_ = resp.Body.Close()
}

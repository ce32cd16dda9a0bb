// Package solidpod implements ports.DocumentClient over the Solid protocol:
// LDP POST to create documents, PATCH with SPARQL Update or N3 to modify them
// and conditional GETs to read them.
//
// Reads are revalidated against a document cache with If-None-Match. When a
// pod keeps failing, its circuit opens and fetches fall back to the cached
// copy until the pod recovers.
package solidpod

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"typeindex/internal/platform/config"
	"typeindex/internal/rdf/graph"
	"typeindex/internal/rdf/vocab"
	"typeindex/internal/typeindex/adapters/solidpod/cache"
	"typeindex/internal/typeindex/ports"
	"typeindex/pkg/platform/circuit"
	"typeindex/pkg/platform/sentinel"
)

const (
	defaultAccept = graph.MediaTurtle + ", " + graph.MediaNTriples + ";q=0.9"
	// defaultMaxBody applies when config.Pod.MaxDocumentBytes is unset.
	defaultMaxBody = 10 << 20
	maxErrorBody   = 512
)

var _ ports.DocumentClient = (*Client)(nil)

type Client struct {
	cfg     config.Pod
	http    *http.Client
	cache   cache.Cache
	tokens  TokenSource
	limiter *rate.Limiter
	metrics *Metrics
	logger  *slog.Logger
	tracer  trace.Tracer

	mu       sync.Mutex
	breakers map[string]*circuit.Breaker
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithCache enables conditional requests and the stale fallback.
func WithCache(dc cache.Cache) Option {
	return func(c *Client) {
		c.cache = dc
	}
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = tracer
	}
}

// New builds a pod client from cfg.
func New(cfg config.Pod, opts ...Option) (*Client, error) {
	if cfg.Timeout <= 0 {
		return nil, errors.New("pod timeout must be positive")
	}
	switch cfg.PatchFormat {
	case "", PatchSPARQL, PatchN3:
	default:
		return nil, fmt.Errorf("unknown patch format %q", cfg.PatchFormat)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(cfg.Burst, 1))
	}
	if cfg.MaxDocumentBytes <= 0 {
		cfg.MaxDocumentBytes = defaultMaxBody
	}
	c := &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		limiter:  limiter,
		logger:   slog.Default(),
		tracer:   otel.Tracer("typeindex/solidpod"),
		breakers: make(map[string]*circuit.Breaker),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Create POSTs body as a Turtle resource into containerURI, suggesting
// suggestedName through the Slug header, and returns the absolute URI the
// pod assigned.
func (c *Client) Create(ctx context.Context, containerURI string, body []byte, suggestedName string, opts ports.RequestOptions) (string, error) {
	ctx, span := c.startSpan(ctx, "create", containerURI)
	uri, err := c.create(ctx, containerURI, body, suggestedName, opts)
	endSpan(span, err)
	return uri, err
}

func (c *Client) create(ctx context.Context, containerURI string, body []byte, suggestedName string, opts ports.RequestOptions) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, containerURI, body, opts)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", graph.MediaTurtle)
	req.Header.Set("Link", "<"+vocab.LDPResource+`>; rel="type"`)
	if suggestedName != "" {
		req.Header.Set("Slug", suggestedName)
	}

	resp, err := c.do(req, "create")
	if err != nil {
		return "", err
	}
	defer closeBody(resp)
	if !success(resp.StatusCode) {
		return "", statusError(req, resp)
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", fmt.Errorf("POST %s: response has no Location header", containerURI)
	}
	return resolveReference(containerURI, location)
}

// Patch applies deletes and inserts to documentURI in one PATCH request.
func (c *Client) Patch(ctx context.Context, documentURI string, deletes, inserts []string, opts ports.RequestOptions) error {
	ctx, span := c.startSpan(ctx, "patch", documentURI)
	err := c.patch(ctx, documentURI, deletes, inserts, opts)
	endSpan(span, err)
	return err
}

func (c *Client) patch(ctx context.Context, documentURI string, deletes, inserts []string, opts ports.RequestOptions) error {
	contentType, body, err := EncodePatch(c.cfg.PatchFormat, deletes, inserts)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPatch, documentURI, body, opts)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.do(req, "patch")
	if err != nil {
		return err
	}
	defer closeBody(resp)
	if !success(resp.StatusCode) {
		return statusError(req, resp)
	}
	c.forget(ctx, documentURI)
	return nil
}

// FetchGraphs reads uris concurrently, at most MaxConcurrentFetches at a
// time. Results keep the order of uris. The call as a whole fails only when
// ctx is done.
func (c *Client) FetchGraphs(ctx context.Context, uris []string, opts ports.RequestOptions) ([]ports.FetchedGraph, error) {
	out := make([]ports.FetchedGraph, len(uris))
	var g errgroup.Group
	if c.cfg.MaxConcurrentFetches > 0 {
		g.SetLimit(c.cfg.MaxConcurrentFetches)
	}
	for i, uri := range uris {
		g.Go(func() error {
			gr, err := c.Fetch(ctx, uri, opts)
			out[i] = ports.FetchedGraph{URI: uri, Graph: gr, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch documents: %w", err)
	}
	return out, nil
}

// Fetch reads one document and parses it. Relative IRIs resolve against uri.
func (c *Client) Fetch(ctx context.Context, uri string, opts ports.RequestOptions) (*graph.Graph, error) {
	ctx, span := c.startSpan(ctx, "fetch", uri)
	g, err := c.fetch(ctx, uri, opts)
	endSpan(span, err)
	return g, err
}

func (c *Client) fetch(ctx context.Context, uri string, opts ports.RequestOptions) (*graph.Graph, error) {
	cached, hit := c.lookup(ctx, uri)

	req, err := c.newRequest(ctx, http.MethodGet, uri, nil, opts)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", opts.WithAccept(defaultAccept).Accept)
	if hit && cached.ETag != "" {
		req.Header.Set("If-None-Match", cached.ETag)
	}

	resp, err := c.do(req, "fetch")
	if err != nil {
		return c.fallback(ctx, uri, cached, hit, err)
	}
	defer closeBody(resp)

	switch {
	case resp.StatusCode == http.StatusNotModified && hit:
		c.metrics.observeCache(cacheHit)
		return parseDocument(uri, cached.ContentType, cached.Body)
	case success(resp.StatusCode):
		c.metrics.observeCache(cacheMiss)
		body, err := readLimited(resp.Body, c.cfg.MaxDocumentBytes)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", uri, err)
		}
		contentType := resp.Header.Get("Content-Type")
		g, err := parseDocument(uri, contentType, body)
		if err != nil {
			return nil, err
		}
		if etag := resp.Header.Get("ETag"); etag != "" {
			c.remember(ctx, uri, cache.Entry{ETag: etag, ContentType: contentType, Body: body})
		}
		return g, nil
	default:
		err := statusError(req, resp)
		if resp.StatusCode >= 500 {
			return c.fallback(ctx, uri, cached, hit, err)
		}
		return nil, err
	}
}

// fallback serves the cached copy of uri while the pod's circuit is open.
func (c *Client) fallback(ctx context.Context, uri string, cached cache.Entry, hit bool, cause error) (*graph.Graph, error) {
	if !hit || !c.breakerFor(uri).IsOpen() {
		return nil, cause
	}
	g, err := parseDocument(uri, cached.ContentType, cached.Body)
	if err != nil {
		return nil, cause
	}
	c.metrics.observeCache(cacheStale)
	c.logger.WarnContext(ctx, "serving cached document while pod is unavailable",
		"uri", uri,
		"error", cause,
	)
	return g, nil
}

func (c *Client) newRequest(ctx context.Context, method, uri string, body []byte, opts ports.RequestOptions) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, uri, r)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, uri, err)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	if c.tokens != nil && req.Header.Get("Authorization") == "" {
		tok, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("obtain pod token: %w", err)
		}
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	return req, nil
}

// do sends req after waiting for the rate limiter and feeds the outcome to
// the host's circuit breaker. Transport failures wrap sentinel.ErrUnavailable.
func (c *Client) do(req *http.Request, op string) (*http.Response, error) {
	ctx := req.Context()
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s %s: rate limit: %w", req.Method, req.URL, err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	status := 0
	if err == nil {
		status = resp.StatusCode
	}
	c.metrics.observeRequest(op, status, start)

	breaker := c.breakerFor(req.URL.String())
	if err != nil || status >= 500 {
		if _, change := breaker.RecordFailure(); change.Opened {
			c.logger.WarnContext(ctx, "pod circuit opened", "host", req.URL.Host)
			c.metrics.setCircuit(req.URL.Host, true)
		}
	} else if _, change := breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "pod circuit closed", "host", req.URL.Host)
		c.metrics.setCircuit(req.URL.Host, false)
	}

	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %w", req.Method, req.URL, sentinel.ErrUnavailable, err)
	}
	return resp, nil
}

func (c *Client) breakerFor(uri string) *circuit.Breaker {
	host := uri
	if u, err := url.Parse(uri); err == nil && u.Host != "" {
		host = u.Host
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.breakers[host]
	if !ok {
		b = circuit.New(host,
			circuit.WithFailureThreshold(c.cfg.FailureThreshold),
			circuit.WithSuccessThreshold(c.cfg.SuccessThreshold),
		)
		c.breakers[host] = b
	}
	return b
}

func (c *Client) lookup(ctx context.Context, uri string) (cache.Entry, bool) {
	if c.cache == nil {
		return cache.Entry{}, false
	}
	e, found, err := c.cache.Get(ctx, uri)
	if err != nil {
		c.logger.WarnContext(ctx, "document cache read failed", "uri", uri, "error", err)
		return cache.Entry{}, false
	}
	return e, found
}

func (c *Client) remember(ctx context.Context, uri string, e cache.Entry) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, uri, e); err != nil {
		c.logger.WarnContext(ctx, "document cache write failed", "uri", uri, "error", err)
	}
}

func (c *Client) forget(ctx context.Context, uri string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Delete(ctx, uri); err != nil {
		c.logger.WarnContext(ctx, "document cache delete failed", "uri", uri, "error", err)
	}
}

func (c *Client) startSpan(ctx context.Context, op, uri string) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, "solidpod."+op, trace.WithAttributes(
		attribute.String("solidpod.uri", uri),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func parseDocument(uri, contentType string, body []byte) (*graph.Graph, error) {
	if !graph.SupportsMediaType(contentType) {
		return nil, fmt.Errorf("%s is %s: %w", uri, contentType, sentinel.ErrUnsupported)
	}
	g, err := graph.Parse(bytes.NewReader(body), uri, contentType)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", uri, err)
	}
	return g, nil
}

func statusError(req *http.Request, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		Method:     req.Method,
		URI:        req.URL.String(),
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(snippet)),
	}
}

func success(status int) bool {
	return status >= 200 && status < 300
}

// readLimited reads r whole, failing rather than truncating past limit bytes.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("document exceeds %d bytes: %w", limit, sentinel.ErrUnsupported)
	}
	return body, nil
}

func closeBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, defaultMaxBody))
	_ = resp.Body.Close()
}

func resolveReference(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base %q: %w", base, err)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse location %q: %w", ref, err)
	}
	return b.ResolveReference(r).String(), nil
}

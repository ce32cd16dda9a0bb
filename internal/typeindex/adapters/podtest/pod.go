// Package podtest runs an in-memory Solid pod for tests. It stores documents
// as graphs and understands the subset of the protocol the registry uses:
// conditional GET, POST into a container with Slug, and PATCH with SPARQL
// Update or N3 patches.
package podtest

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"typeindex/internal/rdf/graph"
)

// Request is one request the pod received.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   string
}

type document struct {
	graph *graph.Graph
	// raw documents are served verbatim and cannot be patched.
	raw         []byte
	contentType string
	version     int
}

func (d *document) etag() string {
	return `"` + strconv.Itoa(d.version) + `"`
}

type Pod struct {
	server *httptest.Server

	mu       sync.Mutex
	docs     map[string]*document
	failures map[string]int
	requests []Request
	token    string
}

// New starts a pod and closes it when the test ends.
func New(t testing.TB) *Pod {
	t.Helper()
	p := &Pod{
		docs:     make(map[string]*document),
		failures: make(map[string]int),
	}
	r := chi.NewRouter()
	r.Use(p.record, p.authorize, p.inject)
	r.Get("/*", p.handleGet)
	r.Post("/*", p.handlePost)
	r.Patch("/*", p.handlePatch)
	p.server = httptest.NewServer(r)
	t.Cleanup(p.server.Close)
	return p
}

// URL returns the absolute URL of path on this pod.
func (p *Pod) URL(path string) string {
	return p.server.URL + path
}

// Client returns an HTTP client for the pod.
func (p *Pod) Client() *http.Client {
	return p.server.Client()
}

// Put stores a Turtle document at path, resolving relative IRIs against its URL.
func (p *Pod) Put(t testing.TB, path, turtle string) {
	t.Helper()
	g, err := graph.ParseString(turtle, p.URL(path), graph.MediaTurtle)
	if err != nil {
		t.Fatalf("podtest: parse %s: %v", path, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bump(path, &document{graph: g})
}

// PutRaw stores a document that is served as-is with contentType.
func (p *Pod) PutRaw(path, contentType, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bump(path, &document{raw: []byte(body), contentType: contentType})
}

// Graph returns a copy of the document at path, or nil.
func (p *Pod) Graph(path string) *graph.Graph {
	p.mu.Lock()
	defer p.mu.Unlock()
	d, ok := p.docs[path]
	if !ok {
		return nil
	}
	return d.graph.Clone()
}

// Fail makes every method request to path answer with status until Recover.
func (p *Pod) Fail(method, path string, status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[method+" "+path] = status
}

func (p *Pod) Recover(method, path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.failures, method+" "+path)
}

// RequireToken rejects requests without "Authorization: Bearer token".
func (p *Pod) RequireToken(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = token
}

func (p *Pod) Requests() []Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Request(nil), p.requests...)
}

// CountRequests returns how many method requests hit path. An empty method
// counts every method.
func (p *Pod) CountRequests(method, path string) int {
	n := 0
	for _, r := range p.Requests() {
		if (method == "" || r.Method == method) && r.Path == path {
			n++
		}
	}
	return n
}

func (p *Pod) ResetRequests() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = nil
}

// bump stores d at path with the next version. Callers hold mu.
func (p *Pod) bump(path string, d *document) {
	if prev, ok := p.docs[path]; ok {
		d.version = prev.version
	}
	d.version++
	p.docs[path] = d
}

// ===== middleware =====

func (p *Pod) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		p.mu.Lock()
		p.requests = append(p.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Body:   string(body),
		})
		p.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (p *Pod) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		token := p.token
		p.mu.Unlock()
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "missing or invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (p *Pod) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		status, ok := p.failures[r.Method+" "+r.URL.Path]
		p.mu.Unlock()
		if ok {
			http.Error(w, "injected failure", status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ===== handlers =====

func (p *Pod) handleGet(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	d, ok := p.docs[r.URL.Path]
	var body, contentType, etag string
	if ok {
		etag = d.etag()
		if d.graph != nil {
			// N-Triples is valid Turtle.
			body, contentType = d.graph.String(), graph.MediaTurtle
		} else {
			body, contentType = string(d.raw), d.contentType
		}
	}
	p.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = io.WriteString(w, body)
}

func (p *Pod) handlePost(w http.ResponseWriter, r *http.Request) {
	container := r.URL.Path
	if !strings.HasSuffix(container, "/") {
		http.Error(w, "POST target must be a container", http.StatusMethodNotAllowed)
		return
	}
	body, _ := io.ReadAll(r.Body)

	p.mu.Lock()
	defer p.mu.Unlock()

	name := r.Header.Get("Slug")
	if name == "" {
		name = uuid.NewString()
	}
	path := container + name
	if _, exists := p.docs[path]; exists {
		path = container + uuid.NewString()[:8] + "-" + name
	}

	g, err := graph.ParseString(string(body), p.URL(path), r.Header.Get("Content-Type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p.bump(path, &document{graph: g})
	w.Header().Set("Location", path)
	w.WriteHeader(http.StatusCreated)
}

func (p *Pod) handlePatch(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	deletes, inserts, err := decodePatch(r.Header.Get("Content-Type"), string(body))
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	path := r.URL.Path
	d, exists := p.docs[path]
	if exists && d.graph == nil {
		http.Error(w, "document cannot be patched", http.StatusConflict)
		return
	}
	g := graph.New()
	if exists {
		g = d.graph.Clone()
	}
	for _, t := range deletes.Triples() {
		if !g.Has(t) {
			http.Error(w, "cannot delete "+graph.Statement(t), http.StatusConflict)
			return
		}
	}
	g.Remove(deletes.Triples()...)
	g.Add(inserts.Triples()...)
	p.bump(path, &document{graph: g})
	if !exists {
		w.WriteHeader(http.StatusCreated)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodePatch extracts the delete and insert sets of a SPARQL Update
// DELETE DATA / INSERT DATA request or an N3 solid:InsertDeletePatch.
// Both sets must be written as N-Triples.
func decodePatch(contentType, body string) (deletes, inserts *graph.Graph, err error) {
	var delKey, insKey string
	switch {
	case strings.HasPrefix(contentType, graph.MediaSPARQL):
		delKey, insKey = "DELETE DATA", "INSERT DATA"
	case strings.HasPrefix(contentType, graph.MediaN3):
		delKey, insKey = "solid:deletes", "solid:inserts"
	default:
		return nil, nil, fmt.Errorf("unsupported patch type %q", contentType)
	}
	if deletes, err = patchBlock(body, delKey); err != nil {
		return nil, nil, err
	}
	if inserts, err = patchBlock(body, insKey); err != nil {
		return nil, nil, err
	}
	return deletes, inserts, nil
}

func patchBlock(body, keyword string) (*graph.Graph, error) {
	i := strings.Index(body, keyword)
	if i < 0 {
		return graph.New(), nil
	}
	rest := body[i+len(keyword):]
	open := strings.IndexByte(rest, '{')
	if open < 0 {
		return nil, fmt.Errorf("%s: missing {", keyword)
	}
	closing := closingBrace(rest[open+1:])
	if closing < 0 {
		return nil, fmt.Errorf("%s: missing }", keyword)
	}
	inner := rest[open+1 : open+1+closing]
	return graph.ParseString(inner, "", graph.MediaNTriples)
}

// closingBrace returns the index of the first '}' outside a string literal.
func closingBrace(s string) int {
	inString, escaped := false, false
	for i, r := range s {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && inString:
			escaped = true
		case r == '"':
			inString = !inString
		case r == '}' && !inString:
			return i
		}
	}
	return -1
}

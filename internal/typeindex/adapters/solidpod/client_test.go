package solidpod_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"typeindex/internal/platform/config"
	"typeindex/internal/platform/token"
	"typeindex/internal/rdf/graph"
	"typeindex/internal/rdf/vocab"
	"typeindex/internal/typeindex/adapters/podtest"
	"typeindex/internal/typeindex/adapters/solidpod"
	"typeindex/internal/typeindex/adapters/solidpod/cache"
	"typeindex/internal/typeindex/ports"
	"typeindex/pkg/platform/sentinel"
	"typeindex/pkg/requestcontext"
)

// =============================================================================
// Solid Pod Client Test Suite
// =============================================================================
// Justification for unit tests: the client translates document operations
// into Solid HTTP requests. Tests run it against an in-memory pod to verify
// request shapes, status mapping, conditional fetches and the cached
// fallback while a pod is failing.

type ClientSuite struct {
	suite.Suite
	pod     *podtest.Pod
	cache   *cache.Memory
	reg     *prometheus.Registry
	metrics *solidpod.Metrics
	client  *solidpod.Client
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.pod = podtest.New(s.T())
	s.cache = solidpodCache()
	s.reg = prometheus.NewRegistry()
	s.metrics = solidpod.NewMetrics(s.reg)
	s.client = s.newClient(testPodConfig())
}

func solidpodCache() *cache.Memory {
	return cache.NewMemory(time.Minute)
}

func testPodConfig() config.Pod {
	return config.Pod{
		Timeout:              5 * time.Second,
		PatchFormat:          solidpod.PatchSPARQL,
		MaxConcurrentFetches: 2,
		FailureThreshold:     1,
		SuccessThreshold:     1,
		UserAgent:            "typeindex-test",
	}
}

func (s *ClientSuite) newClient(cfg config.Pod, opts ...solidpod.Option) *solidpod.Client {
	base := []solidpod.Option{
		solidpod.WithHTTPClient(s.pod.Client()),
		solidpod.WithCache(s.cache),
		solidpod.WithMetrics(s.metrics),
		solidpod.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	c, err := solidpod.New(cfg, append(base, opts...)...)
	s.Require().NoError(err)
	return c
}

const (
	indexPath = "/settings/publicTypeIndex.ttl"
	indexDoc  = `@prefix solid: <http://www.w3.org/ns/solid/terms#> .
<> a solid:TypeIndex, solid:ListedDocument .
`
)

func (s *ClientSuite) statement(subj, pred, obj string) string {
	t, err := graph.IRITriple(subj, pred, obj)
	s.Require().NoError(err)
	return graph.Statement(t)
}

// =============================================================================
// Constructor Tests
// =============================================================================

func (s *ClientSuite) TestNew() {
	s.Run("non-positive timeout returns error", func() {
		_, err := solidpod.New(config.Pod{})
		s.Require().Error(err)
		s.Contains(err.Error(), "pod timeout must be positive")
	})

	s.Run("unknown patch format returns error", func() {
		_, err := solidpod.New(config.Pod{Timeout: time.Second, PatchFormat: "json-patch"})
		s.Require().Error(err)
		s.Contains(err.Error(), "unknown patch format")
	})
}

// =============================================================================
// Create Tests
// =============================================================================

func (s *ClientSuite) TestCreate() {
	ctx := context.Background()

	s.Run("posts turtle with slug and returns absolute location", func() {
		uri, err := s.client.Create(ctx, s.pod.URL("/settings/"), []byte(indexDoc), "publicTypeIndex.ttl", ports.RequestOptions{})
		s.Require().NoError(err)
		s.Equal(s.pod.URL(indexPath), uri)

		reqs := s.pod.Requests()
		s.Require().NotEmpty(reqs)
		last := reqs[len(reqs)-1]
		s.Equal(http.MethodPost, last.Method)
		s.Equal("publicTypeIndex.ttl", last.Header.Get("Slug"))
		s.Equal(graph.MediaTurtle, last.Header.Get("Content-Type"))
		s.Equal(`<`+vocab.LDPResource+`>; rel="type"`, last.Header.Get("Link"))
		s.Equal("typeindex-test", last.Header.Get("User-Agent"))

		stored := s.pod.Graph(indexPath)
		s.Require().NotNil(stored)
		s.Contains(stored.Statements(), s.statement(uri, vocab.RDFType, vocab.TypeIndex))
	})

	s.Run("taken slug gets another name", func() {
		uri, err := s.client.Create(ctx, s.pod.URL("/settings/"), []byte(indexDoc), "publicTypeIndex.ttl", ports.RequestOptions{})
		s.Require().NoError(err)
		s.NotEqual(s.pod.URL(indexPath), uri)
	})

	s.Run("non-container target returns status error", func() {
		_, err := s.client.Create(ctx, s.pod.URL(indexPath), []byte(indexDoc), "x.ttl", ports.RequestOptions{})
		s.Require().Error(err)
		var statusErr *solidpod.StatusError
		s.Require().True(errors.As(err, &statusErr))
		s.Equal(http.StatusMethodNotAllowed, statusErr.StatusCode)
		s.Equal(http.MethodPost, statusErr.Method)
	})
}

// =============================================================================
// Patch Tests
// =============================================================================

func (s *ClientSuite) TestPatch() {
	ctx := context.Background()
	uri := s.pod.URL(indexPath)
	reg := uri + "#reg-1"
	insert := []string{
		s.statement(reg, vocab.RDFType, vocab.TypeRegistration),
		s.statement(reg, vocab.ForClass, "http://schema.org/Note"),
	}

	s.Run("sparql insert then delete", func() {
		s.pod.Put(s.T(), indexPath, indexDoc)

		s.Require().NoError(s.client.Patch(ctx, uri, nil, insert, ports.RequestOptions{}))
		stored := s.pod.Graph(indexPath)
		s.Contains(stored.Statements(), insert[0])
		s.Contains(stored.Statements(), insert[1])

		reqs := s.pod.Requests()
		s.Equal(graph.MediaSPARQL, reqs[len(reqs)-1].Header.Get("Content-Type"))
		s.Contains(reqs[len(reqs)-1].Body, "INSERT DATA")
		s.NotContains(reqs[len(reqs)-1].Body, "DELETE DATA")

		s.Require().NoError(s.client.Patch(ctx, uri, insert, nil, ports.RequestOptions{}))
		s.Equal(2, s.pod.Graph(indexPath).Len())
	})

	s.Run("n3 patch format", func() {
		s.pod.Put(s.T(), indexPath, indexDoc)
		cfg := testPodConfig()
		cfg.PatchFormat = solidpod.PatchN3
		client := s.newClient(cfg)

		s.Require().NoError(client.Patch(ctx, uri, nil, insert, ports.RequestOptions{}))
		s.Contains(s.pod.Graph(indexPath).Statements(), insert[1])

		reqs := s.pod.Requests()
		s.Equal(graph.MediaN3, reqs[len(reqs)-1].Header.Get("Content-Type"))
		s.Contains(reqs[len(reqs)-1].Body, "solid:InsertDeletePatch")
	})

	s.Run("deleting an absent triple maps to conflict", func() {
		s.pod.Put(s.T(), indexPath, indexDoc)
		err := s.client.Patch(ctx, uri, insert, nil, ports.RequestOptions{})
		s.Require().Error(err)
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("empty patch is rejected before sending", func() {
		s.pod.ResetRequests()
		err := s.client.Patch(ctx, uri, nil, nil, ports.RequestOptions{})
		s.Require().Error(err)
		s.Empty(s.pod.Requests())
	})

	s.Run("patch invalidates the cached copy", func() {
		s.pod.Put(s.T(), indexPath, indexDoc)
		_, err := s.client.Fetch(ctx, uri, ports.RequestOptions{})
		s.Require().NoError(err)
		_, found, _ := s.cache.Get(ctx, uri)
		s.True(found)

		s.Require().NoError(s.client.Patch(ctx, uri, nil, insert, ports.RequestOptions{}))
		_, found, _ = s.cache.Get(ctx, uri)
		s.False(found)
	})
}

// =============================================================================
// Fetch Tests
// =============================================================================

func (s *ClientSuite) TestFetchGraphs() {
	ctx := context.Background()
	s.pod.Put(s.T(), indexPath, indexDoc)
	s.pod.Put(s.T(), "/settings/privateTypeIndex.ttl", `<> a <http://www.w3.org/ns/solid/terms#UnlistedDocument> .`)

	s.Run("results keep request order and report per-document failures", func() {
		uris := []string{
			s.pod.URL("/settings/privateTypeIndex.ttl"),
			s.pod.URL("/missing.ttl"),
			s.pod.URL(indexPath),
		}
		results, err := s.client.FetchGraphs(ctx, uris, ports.RequestOptions{})
		s.Require().NoError(err)
		s.Require().Len(results, 3)

		for i, r := range results {
			s.Equal(uris[i], r.URI)
		}
		s.Require().NoError(results[0].Err)
		s.Contains(results[0].Graph.Statements(), s.statement(uris[0], vocab.RDFType, vocab.UnlistedDocument))
		s.ErrorIs(results[1].Err, sentinel.ErrNotFound)
		s.Nil(results[1].Graph)
		s.Require().NoError(results[2].Err)
		s.Equal(2, results[2].Graph.Len())
	})

	s.Run("cancelled context fails the whole call", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.client.FetchGraphs(cctx, []string{s.pod.URL(indexPath)}, ports.RequestOptions{})
		s.ErrorIs(err, context.Canceled)
	})
}

func (s *ClientSuite) TestFetch() {
	ctx := context.Background()
	uri := s.pod.URL(indexPath)

	s.Run("second fetch revalidates with If-None-Match", func() {
		s.cache.Flush()
		s.pod.Put(s.T(), indexPath, indexDoc)
		s.pod.ResetRequests()

		_, err := s.client.Fetch(ctx, uri, ports.RequestOptions{})
		s.Require().NoError(err)
		g, err := s.client.Fetch(ctx, uri, ports.RequestOptions{})
		s.Require().NoError(err)
		s.Equal(2, g.Len())

		reqs := s.pod.Requests()
		s.Require().Len(reqs, 2)
		s.Empty(reqs[0].Header.Get("If-None-Match"))
		s.NotEmpty(reqs[1].Header.Get("If-None-Match"))
		s.Equal(1.0, promtest.ToFloat64(s.metrics.CacheResults.WithLabelValues("hit")))
		s.Equal(1.0, promtest.ToFloat64(s.metrics.Requests.WithLabelValues("fetch", "304")))
	})

	s.Run("accept defaults to turtle and can be overridden", func() {
		s.pod.ResetRequests()
		_, err := s.client.Fetch(ctx, uri, ports.RequestOptions{Accept: graph.MediaNTriples})
		s.Require().NoError(err)
		reqs := s.pod.Requests()
		s.Equal(graph.MediaNTriples, reqs[len(reqs)-1].Header.Get("Accept"))
	})

	s.Run("unsupported content type", func() {
		s.pod.PutRaw("/profile/card.jsonld", "application/ld+json", `{"@id": "#me"}`)
		_, err := s.client.Fetch(ctx, s.pod.URL("/profile/card.jsonld"), ports.RequestOptions{})
		s.ErrorIs(err, sentinel.ErrUnsupported)
	})

	s.Run("oversized document is rejected and not cached", func() {
		const path = "/settings/large.nt"
		var sb strings.Builder
		for i := 0; sb.Len() <= 512; i++ {
			fmt.Fprintf(&sb, "<%s#r%d> <%s> <%s> .\n", s.pod.URL(path), i, vocab.RDFType, vocab.TypeRegistration)
		}
		last := s.statement(s.pod.URL(path)+"#last", vocab.ForClass, "http://schema.org/Note")
		sb.WriteString(last + "\n")
		s.pod.PutRaw(path, graph.MediaNTriples, sb.String())

		cfg := testPodConfig()
		cfg.MaxDocumentBytes = 512
		small := s.newClient(cfg)

		_, err := small.Fetch(ctx, s.pod.URL(path), ports.RequestOptions{})
		s.Require().ErrorIs(err, sentinel.ErrUnsupported)
		s.Contains(err.Error(), "exceeds 512 bytes")
		_, found, err := s.cache.Get(ctx, s.pod.URL(path))
		s.Require().NoError(err)
		s.False(found)

		g, err := s.client.Fetch(ctx, s.pod.URL(path), ports.RequestOptions{})
		s.Require().NoError(err)
		t, err := graph.IRITriple(s.pod.URL(path)+"#last", vocab.ForClass, "http://schema.org/Note")
		s.Require().NoError(err)
		s.True(g.Has(t), "default limit reads the whole document")
	})

	s.Run("open circuit serves the cached copy", func() {
		s.pod.Put(s.T(), indexPath, indexDoc)
		_, err := s.client.Fetch(ctx, uri, ports.RequestOptions{})
		s.Require().NoError(err)

		s.pod.Fail(http.MethodGet, indexPath, http.StatusServiceUnavailable)
		defer s.pod.Recover(http.MethodGet, indexPath)

		g, err := s.client.Fetch(ctx, uri, ports.RequestOptions{})
		s.Require().NoError(err)
		s.Equal(2, g.Len())
		s.Equal(1.0, promtest.ToFloat64(s.metrics.CacheResults.WithLabelValues("stale")))
	})

	s.Run("failing pod without cached copy returns unavailable", func() {
		s.pod.Fail(http.MethodGet, "/settings/other.ttl", http.StatusBadGateway)
		defer s.pod.Recover(http.MethodGet, "/settings/other.ttl")

		_, err := s.client.Fetch(ctx, s.pod.URL("/settings/other.ttl"), ports.RequestOptions{})
		s.ErrorIs(err, sentinel.ErrUnavailable)
	})
}

// =============================================================================
// Authentication Tests
// =============================================================================

func (s *ClientSuite) TestAuthentication() {
	ctx := context.Background()
	s.pod.Put(s.T(), indexPath, indexDoc)
	uri := s.pod.URL(indexPath)

	s.Run("missing token maps to unauthorized", func() {
		s.pod.RequireToken("secret")
		defer s.pod.RequireToken("")
		_, err := s.client.Fetch(ctx, uri, ports.RequestOptions{})
		s.ErrorIs(err, sentinel.ErrUnauthorized)
	})

	s.Run("static token is sent as bearer", func() {
		s.pod.RequireToken("secret")
		defer s.pod.RequireToken("")
		client := s.newClient(testPodConfig(), solidpod.WithTokenSource(solidpod.StaticToken("secret")))
		_, err := client.Fetch(ctx, uri, ports.RequestOptions{})
		s.NoError(err)
	})

	s.Run("explicit authorization header wins", func() {
		client := s.newClient(testPodConfig(), solidpod.WithTokenSource(solidpod.StaticToken("ignored")))
		_, err := client.Fetch(ctx, uri, ports.RequestOptions{Headers: map[string]string{"Authorization": "Bearer caller"}})
		s.Require().NoError(err)
		reqs := s.pod.Requests()
		s.Equal("Bearer caller", reqs[len(reqs)-1].Header.Get("Authorization"))
	})
}

func TestSignerTokenSource(t *testing.T) {
	cfg := config.TokenConfig{SigningKey: "k", Issuer: "typeindex", TTL: time.Minute}
	signer, err := token.NewSigner(cfg)
	if err != nil {
		t.Fatal(err)
	}
	validator, err := token.NewValidator(cfg)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("uses the request webid", func(t *testing.T) {
		src := solidpod.NewSignerTokenSource(signer, "https://fallback.example/profile/card#me")
		ctx := requestcontext.WithWebID(context.Background(), "https://alice.example/profile/card#me")
		tok, err := src.Token(ctx)
		if err != nil {
			t.Fatal(err)
		}
		claims, err := validator.Validate(tok)
		if err != nil {
			t.Fatal(err)
		}
		if claims.WebID != "https://alice.example/profile/card#me" {
			t.Errorf("webid = %q", claims.WebID)
		}
	})

	t.Run("falls back to the fixed webid", func(t *testing.T) {
		src := solidpod.NewSignerTokenSource(signer, "https://fallback.example/profile/card#me")
		tok, err := src.Token(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		claims, err := validator.Validate(tok)
		if err != nil {
			t.Fatal(err)
		}
		if claims.WebID != "https://fallback.example/profile/card#me" {
			t.Errorf("webid = %q", claims.WebID)
		}
	})

	t.Run("no webid sends no token", func(t *testing.T) {
		tok, err := solidpod.NewSignerTokenSource(signer, "").Token(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if tok != "" {
			t.Errorf("expected empty token, got %q", tok)
		}
	})
}

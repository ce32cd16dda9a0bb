package handler_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"typeindex/internal/platform/config"
	"typeindex/internal/platform/middleware"
	"typeindex/internal/platform/token"
	"typeindex/internal/rdf/graph"
	"typeindex/internal/rdf/vocab"
	"typeindex/internal/typeindex/adapters/podtest"
	"typeindex/internal/typeindex/adapters/solidpod"
	"typeindex/internal/typeindex/handler"
	"typeindex/internal/typeindex/service"
	"typeindex/internal/webid"
	"typeindex/pkg/platform/httputil"
)

// =============================================================================
// Registry Handler Test Suite
// =============================================================================
// Justification for unit tests: the handler composes the profile loader and
// the registry service. These tests drive the full stack against an
// in-memory pod to verify request decoding, status mapping and that the
// documented register/query/unregister flow holds over HTTP.

const (
	classPost = "http://schema.org/BlogPosting"
	signKey   = "handler-test-key"
)

type HandlerSuite struct {
	suite.Suite
	pod    *podtest.Pod
	server *httptest.Server
	signer *token.Signer
	webID  string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.pod = podtest.New(s.T())
	s.webID = s.pod.URL("/profile/card#me")
	s.pod.Put(s.T(), "/profile/card", `@prefix pim: <http://www.w3.org/ns/pim/space#> .
<#me> pim:preferencesFile <`+s.pod.URL("/settings/prefs.ttl")+`> .
`)
	s.pod.Put(s.T(), "/settings/prefs.ttl", "")

	client, err := solidpod.New(
		config.Pod{Timeout: 5 * time.Second, PatchFormat: solidpod.PatchSPARQL},
		solidpod.WithHTTPClient(s.pod.Client()),
		solidpod.WithLogger(logger),
	)
	s.Require().NoError(err)
	svc, err := service.New(client, service.WithLogger(logger))
	s.Require().NoError(err)
	loader, err := webid.New(client, webid.WithLogger(logger))
	s.Require().NoError(err)

	tokenCfg := config.TokenConfig{SigningKey: signKey, Issuer: "typeindex", TTL: time.Minute}
	s.signer, err = token.NewSigner(tokenCfg)
	s.Require().NoError(err)
	validator, err := token.NewValidator(tokenCfg)
	s.Require().NoError(err)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequireWebID(validator, logger))
	handler.New(svc, loader, logger).Register(r)
	s.server = httptest.NewServer(r)
	s.T().Cleanup(s.server.Close)
}

func (s *HandlerSuite) do(method, path, body string) (*http.Response, []byte) {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.server.URL+path, r)
	s.Require().NoError(err)
	tok, err := s.signer.Sign(s.webID)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+tok)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp, raw
}

func (s *HandlerSuite) decode(raw []byte, v any) {
	s.Require().NoError(json.Unmarshal(raw, v), string(raw))
}

func (s *HandlerSuite) initialize() handler.RegistryResponse {
	resp, raw := s.do(http.MethodPost, "/registry/init", "{}")
	s.Require().Equal(http.StatusCreated, resp.StatusCode, string(raw))
	var out handler.RegistryResponse
	s.decode(raw, &out)
	return out
}

func registrationsQuery(class string) string {
	return "/registrations?" + url.Values{"class": {class}}.Encode()
}

// =============================================================================
// Authentication
// =============================================================================

func (s *HandlerSuite) TestRequiresToken() {
	resp, err := s.server.Client().Get(s.server.URL + "/registry")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

// =============================================================================
// Initialize
// =============================================================================

func (s *HandlerSuite) TestInitialize() {
	out := s.initialize()

	s.Equal(s.webID, out.WebID)
	s.Equal(s.pod.URL("/profile/publicTypeIndex.ttl"), out.Listed.URI)
	s.Equal(s.pod.URL("/profile/privateTypeIndex.ttl"), out.Unlisted.URI)
	s.True(out.Listed.Loaded)
	s.Equal(2, out.Unlisted.Triples)

	link, err := graph.IRITriple(s.webID, vocab.PublicTypeIndex, out.Listed.URI)
	s.Require().NoError(err)
	s.True(s.pod.Graph("/profile/card").Has(link))

	privLink, err := graph.IRITriple(s.webID, vocab.PrivateTypeIndex, out.Unlisted.URI)
	s.Require().NoError(err)
	s.True(s.pod.Graph("/settings/prefs.ttl").Has(privLink))

	s.Run("relative container is rejected", func() {
		resp, raw := s.do(http.MethodPost, "/registry/init", `{"container": "settings/"}`)
		s.Equal(http.StatusBadRequest, resp.StatusCode)
		s.Contains(string(raw), "container must be an absolute URL")
	})

	s.Run("failing pod maps to bad gateway", func() {
		s.pod.Fail(http.MethodPost, "/profile/", http.StatusInternalServerError)
		defer s.pod.Recover(http.MethodPost, "/profile/")
		resp, raw := s.do(http.MethodPost, "/registry/init", "{}")
		s.Equal(http.StatusBadGateway, resp.StatusCode)
		var errResp httputil.ErrorResponse
		s.decode(raw, &errResp)
		s.Equal("could not create public index document", errResp.Description)
	})
}

// =============================================================================
// Register / Query / Unregister
// =============================================================================

func (s *HandlerSuite) TestRegistrationLifecycle() {
	s.initialize()
	posts := s.pod.URL("/posts")

	s.Run("register container in unlisted index", func() {
		body := `{"class": "` + classPost + `", "location": "` + posts + `", "location_type": "container"}`
		resp, raw := s.do(http.MethodPost, "/registrations", body)
		s.Require().Equal(http.StatusCreated, resp.StatusCode, string(raw))

		var out handler.RegistrationsResponse
		s.decode(raw, &out)
		s.Require().Len(out.Registrations, 1)
		reg := out.Registrations[0]
		s.Equal(posts+"/", reg.Location)
		s.Equal("container", reg.LocationType)
		s.Equal("unlisted", reg.Visibility)
		s.True(strings.HasPrefix(reg.Registration, s.pod.URL("/profile/privateTypeIndex.ttl#reg-")))
	})

	s.Run("register instance in listed index", func() {
		body := `{"class": "` + classPost + `", "location": "` + s.pod.URL("/about.ttl") + `", "location_type": "instance", "visibility": "listed"}`
		resp, raw := s.do(http.MethodPost, "/registrations", body)
		s.Require().Equal(http.StatusCreated, resp.StatusCode, string(raw))
	})

	s.Run("query lists listed before unlisted", func() {
		resp, raw := s.do(http.MethodGet, registrationsQuery(classPost), "")
		s.Require().Equal(http.StatusOK, resp.StatusCode, string(raw))
		var out handler.RegistrationsResponse
		s.decode(raw, &out)
		s.Require().Len(out.Registrations, 2)
		s.Equal("listed", out.Registrations[0].Visibility)
		s.Equal("instance", out.Registrations[0].LocationType)
		s.Equal("unlisted", out.Registrations[1].Visibility)
	})

	s.Run("unregister by location removes only that entry", func() {
		q := url.Values{"class": {classPost}, "location": {posts}, "visibility": {"unlisted"}}
		resp, raw := s.do(http.MethodDelete, "/registrations?"+q.Encode(), "")
		s.Require().Equal(http.StatusOK, resp.StatusCode, string(raw))
		var out handler.RegistrationsResponse
		s.decode(raw, &out)
		s.Require().Len(out.Registrations, 1)
		s.Equal("listed", out.Registrations[0].Visibility)

		var after handler.RegistrationsResponse
		_, raw = s.do(http.MethodGet, registrationsQuery(classPost), "")
		s.decode(raw, &after)
		s.Equal(out, after)
	})

	s.Run("registry view counts loaded triples", func() {
		resp, raw := s.do(http.MethodGet, "/registry", "")
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		var out handler.RegistryResponse
		s.decode(raw, &out)
		s.True(out.Listed.Loaded)
		s.Equal(5, out.Listed.Triples)
		s.Equal(2, out.Unlisted.Triples)
	})
}

func (s *HandlerSuite) TestRegisterErrors() {
	s.Run("register before initialize is a precondition failure", func() {
		body := `{"class": "` + classPost + `", "location": "` + s.pod.URL("/posts/") + `"}`
		resp, raw := s.do(http.MethodPost, "/registrations", body)
		s.Equal(http.StatusPreconditionFailed, resp.StatusCode)
		s.Contains(string(raw), "no Unlisted type index")
	})

	s.Run("unknown location type", func() {
		resp, raw := s.do(http.MethodPost, "/registrations", `{"class": "`+classPost+`", "location": "x", "location_type": "folder"}`)
		s.Equal(http.StatusBadRequest, resp.StatusCode)
		s.Contains(string(raw), "invalid location type")
	})

	s.Run("unknown visibility", func() {
		resp, _ := s.do(http.MethodPost, "/registrations", `{"class": "`+classPost+`", "location": "x", "visibility": "secret"}`)
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})

	s.Run("missing class", func() {
		resp, raw := s.do(http.MethodPost, "/registrations", `{"location": "x"}`)
		s.Equal(http.StatusBadRequest, resp.StatusCode)
		s.Contains(string(raw), "class is required")
	})

	s.Run("unknown field", func() {
		resp, _ := s.do(http.MethodPost, "/registrations", `{"klass": "x"}`)
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})

	s.Run("query without class", func() {
		resp, _ := s.do(http.MethodGet, "/registrations", "")
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})
}

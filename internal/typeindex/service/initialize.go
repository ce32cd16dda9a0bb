package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/knakk/rdf"

	"typeindex/internal/audit"
	"typeindex/internal/rdf/graph"
	"typeindex/internal/rdf/vocab"
	"typeindex/internal/typeindex/metrics"
	"typeindex/internal/typeindex/models"
	"typeindex/internal/typeindex/ports"
	dErrors "typeindex/pkg/domain-errors"
)

// Suggested document names for newly created indexes.
const (
	PublicIndexName  = "publicTypeIndex.ttl"
	PrivateIndexName = "privateTypeIndex.ttl"
)

// InitializeRegistry creates the listed index and links it from the profile
// document. When the profile has a preferences document it also creates the
// unlisted index and links it from there. Steps run in order and are not
// rolled back: a failure after the first step leaves the documents created
// so far in place.
//
// An empty containerURI places the indexes next to the profile document.
func (s *Service) InitializeRegistry(ctx context.Context, profile models.Profile, containerURI string, opts ports.RequestOptions) (result models.Profile, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "InitializeRegistry", profile)
	defer func() { s.finish(span, metrics.OpInitialize, start, err) }()

	if strings.TrimSpace(profile.WebID) == "" {
		return profile, dErrors.New(dErrors.CodeValidation, "profile is required")
	}
	if containerURI == "" {
		containerURI, err = ParentContainer(profile.WebID)
		if err != nil {
			return profile, err
		}
	}

	listed, err := s.createIndex(ctx, containerURI, vocab.ListedDocument, PublicIndexName, opts)
	if err != nil {
		s.stepFailed(ctx, stepCreatePublicIndex, profile, err)
		return profile, dErrors.Wrap(err, dErrors.CodeUpstream, "could not create public index document")
	}
	if err := s.link(ctx, profile.DocumentURI(), profile.WebID, vocab.PublicTypeIndex, listed.URI, opts); err != nil {
		s.stepFailed(ctx, stepPatchProfile, profile, err)
		return profile, dErrors.Wrap(err, dErrors.CodeUpstream, "could not update profile")
	}
	result = profile.WithListed(listed)

	if profile.Preferences != "" {
		unlisted, err := s.createIndex(ctx, containerURI, vocab.UnlistedDocument, PrivateIndexName, opts)
		if err != nil {
			s.stepFailed(ctx, stepCreatePrivateIndex, profile, err)
			return profile, dErrors.Wrap(err, dErrors.CodeUpstream, "could not create private index document")
		}
		if err := s.link(ctx, profile.Preferences, profile.WebID, vocab.PrivateTypeIndex, unlisted.URI, opts); err != nil {
			s.stepFailed(ctx, stepPatchPreferences, profile, err)
			return profile, dErrors.Wrap(err, dErrors.CodeUpstream, "could not update preferences")
		}
		result = result.WithUnlisted(unlisted)
	}

	s.logger.InfoContext(ctx, "type index registry initialized",
		"webid", profile.WebID,
		"listed_uri", result.Listed.URI,
		"unlisted_uri", result.Unlisted.URI,
	)
	s.emitAudit(ctx, audit.EventRegistryInitialized, audit.Event{
		WebID:    profile.WebID,
		IndexURI: result.Listed.URI,
		Detail:   result.Unlisted.URI,
	})
	return result, nil
}

// createIndex posts a new index document typed with kind and returns its
// state built from the triples that were written.
func (s *Service) createIndex(ctx context.Context, containerURI, kind, name string, opts ports.RequestOptions) (models.IndexState, error) {
	uri, err := s.client.Create(ctx, containerURI, indexBody(kind), name, opts)
	if err != nil {
		return models.IndexState{}, err
	}
	subj, err := graph.NewIRI(uri)
	if err != nil {
		return models.IndexState{}, fmt.Errorf("created document URI %q: %w", uri, err)
	}
	g := graph.New(
		rdf.Triple{Subj: subj, Pred: graph.MustIRI(vocab.RDFType), Obj: graph.MustIRI(vocab.TypeIndex)},
		rdf.Triple{Subj: subj, Pred: graph.MustIRI(vocab.RDFType), Obj: graph.MustIRI(kind)},
	)
	return models.IndexState{URI: uri, Graph: g}, nil
}

// link inserts <webID> <predicate> <target> into document.
func (s *Service) link(ctx context.Context, document, webID, predicate, target string, opts ports.RequestOptions) error {
	t, err := graph.IRITriple(webID, predicate, target)
	if err != nil {
		return err
	}
	return s.client.Patch(ctx, document, nil, []string{graph.Statement(t)}, opts)
}

// indexBody is the Turtle body of a new index. The empty IRI refers to the
// document itself once the server has assigned its URI.
func indexBody(kind string) []byte {
	return []byte("@prefix solid: <" + vocab.SolidNamespace + "> .\n\n" +
		"<> a solid:TypeIndex, <" + kind + "> .\n")
}

// ParentContainer returns the container holding the document of webID:
// https://a.example/profile/card#me yields https://a.example/profile/.
func ParentContainer(webID string) (string, error) {
	u, err := url.Parse(webID)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", dErrors.New(dErrors.CodeConfiguration, "cannot derive container from profile")
	}
	u.Fragment = ""
	u.RawQuery = ""
	path := strings.TrimSuffix(u.Path, "/")
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		u.Path = "/"
	} else {
		u.Path = path[:i+1]
	}
	u.RawPath = ""
	return u.String(), nil
}

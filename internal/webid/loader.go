// Package webid reads a WebID profile and the preferences document it links
// to, producing the models.Profile the registry operates on.
package webid

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/knakk/rdf"

	"typeindex/internal/rdf/graph"
	"typeindex/internal/rdf/vocab"
	"typeindex/internal/typeindex/models"
	"typeindex/internal/typeindex/ports"
	dErrors "typeindex/pkg/domain-errors"
	"typeindex/pkg/platform/sentinel"
)

// GraphFetcher is the read half of ports.DocumentClient.
type GraphFetcher interface {
	FetchGraphs(ctx context.Context, uris []string, opts ports.RequestOptions) ([]ports.FetchedGraph, error)
}

type Loader struct {
	fetcher GraphFetcher
	logger  *slog.Logger
}

type Option func(*Loader)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

func New(fetcher GraphFetcher, opts ...Option) (*Loader, error) {
	if fetcher == nil {
		return nil, errors.New("graph fetcher is required")
	}
	l := &Loader{fetcher: fetcher, logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

var (
	preferencesFileIRI  = graph.MustIRI(vocab.PreferencesFile)
	publicTypeIndexIRI  = graph.MustIRI(vocab.PublicTypeIndex)
	privateTypeIndexIRI = graph.MustIRI(vocab.PrivateTypeIndex)
)

// Load fetches the profile document of webID and, when linked, its
// preferences document. The returned profile has its index URIs set and no
// graphs. A preferences document that cannot be read leaves the unlisted
// slot empty.
func (l *Loader) Load(ctx context.Context, webID string, opts ports.RequestOptions) (models.Profile, error) {
	webID = strings.TrimSpace(webID)
	if webID == "" {
		return models.Profile{}, dErrors.New(dErrors.CodeValidation, "webid is required")
	}
	subject, err := graph.NewIRI(webID)
	if err != nil {
		return models.Profile{}, dErrors.Wrap(err, dErrors.CodeValidation, "webid must be an IRI")
	}

	opts = opts.WithAccept(graph.MediaTurtle)
	doc := models.DocumentOf(webID)
	card, err := l.fetchOne(ctx, doc, opts)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Profile{}, dErrors.Wrap(err, dErrors.CodeNotFound, "profile document not found")
		}
		return models.Profile{}, dErrors.Wrap(err, dErrors.CodeUpstream, "could not load profile")
	}

	prefs := firstIRI(card, subject, preferencesFileIRI)
	profile := models.NewProfile(webID, prefs)
	if public := firstIRI(card, subject, publicTypeIndexIRI); public != "" {
		profile = profile.WithListed(models.IndexState{URI: public})
	}
	if prefs == "" {
		return profile, nil
	}

	prefsGraph, err := l.fetchOne(ctx, models.DocumentOf(prefs), opts)
	if err != nil {
		l.logger.WarnContext(ctx, "preferences document unavailable",
			"webid", webID,
			"preferences_uri", prefs,
			"error", err,
		)
		return profile, nil
	}
	if private := firstIRI(prefsGraph, subject, privateTypeIndexIRI); private != "" {
		profile = profile.WithUnlisted(models.IndexState{URI: private})
	}
	return profile, nil
}

func (l *Loader) fetchOne(ctx context.Context, uri string, opts ports.RequestOptions) (*graph.Graph, error) {
	fetched, err := l.fetcher.FetchGraphs(ctx, []string{uri}, opts)
	if err != nil {
		return nil, err
	}
	if len(fetched) != 1 {
		return nil, errors.New("unexpected fetch result count")
	}
	if fetched[0].Err != nil {
		return nil, fetched[0].Err
	}
	if fetched[0].Graph == nil {
		return nil, errors.New("empty fetch result")
	}
	return fetched[0].Graph, nil
}

// firstIRI returns the first IRI object of (s, p, ?).
func firstIRI(g *graph.Graph, s, p rdf.Term) string {
	for _, o := range g.Objects(s, p) {
		if graph.IsIRI(o) {
			return o.String()
		}
	}
	return ""
}

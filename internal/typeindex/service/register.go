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

// RegisterType adds a registration mapping req.Class to req.Location in the
// selected index. The registry is reloaded first; on success the new
// triples are added to a copy of the slot graph, so the returned profile
// reflects the change without another fetch.
//
// Container locations get exactly one trailing slash. Relative locations
// are resolved against the index document.
func (s *Service) RegisterType(ctx context.Context, profile models.Profile, req models.RegisterRequest, opts ports.RequestOptions) (result models.Profile, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "RegisterType", profile)
	defer func() { s.finish(span, metrics.OpRegister, start, err) }()

	if err := validateMutation(profile, req.Class); err != nil {
		return profile, err
	}
	if strings.TrimSpace(req.Location) == "" {
		return profile, dErrors.New(dErrors.CodeValidation, "location is required")
	}
	if !req.LocationType.Valid() {
		return profile, dErrors.New(dErrors.CodeValidation, "invalid location type")
	}

	loaded, err := s.load(ctx, profile, opts)
	if err != nil {
		return profile, err
	}
	slot := loaded.State(req.Visibility)
	if slot.Graph == nil {
		return profile, missingIndex(req.Visibility)
	}

	location, err := resolveLocation(slot.URI, req.Location)
	if err != nil {
		return profile, err
	}
	location = models.NormalizeLocation(req.LocationType, location)

	triples, err := s.registrationTriples(slot.URI, req.Class, location, req.LocationType)
	if err != nil {
		return profile, err
	}

	if err := s.client.Patch(ctx, slot.URI, nil, graph.Statements(triples), opts); err != nil {
		s.stepFailed(ctx, stepPatchIndex, profile, err)
		return profile, dErrors.Wrap(err, dErrors.CodeUpstream, "could not update type index")
	}

	updated := slot.Graph.Clone()
	updated.Add(triples...)
	result = loaded.WithState(req.Visibility, models.IndexState{URI: slot.URI, Graph: updated})

	s.logger.InfoContext(ctx, "type registered",
		"webid", profile.WebID,
		"class", req.Class,
		"location", location,
		"location_type", req.LocationType.String(),
		"index_uri", slot.URI,
	)
	s.emitAudit(ctx, audit.EventTypeRegistered, audit.Event{
		WebID:      profile.WebID,
		IndexURI:   slot.URI,
		Class:      req.Class,
		Location:   location,
		Visibility: req.Visibility.String(),
	})
	return result, nil
}

// registrationTriples builds the three statements describing one
// registration subject inside indexURI.
func (s *Service) registrationTriples(indexURI, class, location string, lt models.LocationType) ([]rdf.Triple, error) {
	subject := models.DocumentOf(indexURI) + "#" + s.fragment(class, location)

	typed, err := graph.IRITriple(subject, vocab.RDFType, vocab.TypeRegistration)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid registration subject")
	}
	forClass, err := graph.IRITriple(subject, vocab.ForClass, class)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "class must be an IRI")
	}
	at, err := graph.IRITriple(subject, lt.Predicate(), location)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "location must be an IRI")
	}
	return []rdf.Triple{typed, forClass, at}, nil
}

// validateMutation holds the checks shared by register and unregister. They
// run before any remote call.
func validateMutation(profile models.Profile, class string) error {
	if strings.TrimSpace(profile.WebID) == "" {
		return dErrors.New(dErrors.CodeValidation, "profile is required")
	}
	if !profile.Loaded {
		return dErrors.New(dErrors.CodePrecondition, "profile is not loaded")
	}
	if strings.TrimSpace(class) == "" {
		return dErrors.New(dErrors.CodeValidation, "class is required")
	}
	if _, err := graph.NewIRI(class); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "class must be an IRI")
	}
	return nil
}

func missingIndex(v models.Visibility) error {
	return dErrors.New(dErrors.CodePrecondition, fmt.Sprintf("no %s type index", v))
}

// resolveLocation resolves location against the index document URI.
// Absolute locations are returned unchanged.
func resolveLocation(indexURI, location string) (string, error) {
	location = strings.TrimSpace(location)
	ref, err := url.Parse(location)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeValidation, "location must be an IRI")
	}
	if ref.IsAbs() {
		return location, nil
	}
	base, err := url.Parse(indexURI)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeValidation, "invalid type index URI")
	}
	return base.ResolveReference(ref).String(), nil
}

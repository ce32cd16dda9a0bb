package service

import (
	"context"
	"time"

	"github.com/knakk/rdf"

	"typeindex/internal/rdf/graph"
	"typeindex/internal/rdf/vocab"
	"typeindex/internal/typeindex/metrics"
	"typeindex/internal/typeindex/models"
)

var (
	instanceIRI          = graph.MustIRI(vocab.Instance)
	instanceContainerIRI = graph.MustIRI(vocab.InstanceContainer)
)

// RegistrationsForClass returns the registrations of class in profile's
// loaded graphs, listed index first. Within a graph results follow the
// order the graph reports its triples. It performs no I/O.
func RegistrationsForClass(profile models.Profile, class string) []models.Registration {
	classIRI, err := graph.NewIRI(class)
	if err != nil {
		return []models.Registration{}
	}
	out := make([]models.Registration, 0)
	out = appendRegistrations(out, profile.Listed.Graph, classIRI, true)
	out = appendRegistrations(out, profile.Unlisted.Graph, classIRI, false)
	return out
}

// RegistrationsForClass is the package function with metrics and tracing.
func (s *Service) RegistrationsForClass(ctx context.Context, profile models.Profile, class string) []models.Registration {
	start := time.Now()
	_, span := s.startSpan(ctx, "RegistrationsForClass", profile)
	regs := RegistrationsForClass(profile, class)
	s.finish(span, metrics.OpQuery, start, nil)
	if s.metrics != nil {
		s.metrics.ObserveRegistrationsFound(len(regs))
	}
	return regs
}

// appendRegistrations scans g for subjects that mention class as an object
// and emits one registration per instance or container location.
func appendRegistrations(out []models.Registration, g *graph.Graph, class rdf.IRI, listed bool) []models.Registration {
	if g == nil {
		return out
	}
	seen := make(map[string]struct{})
	for _, t := range g.Match(nil, nil, class) {
		key := t.Subj.Serialize(rdf.NTriples)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		for _, obj := range g.Objects(t.Subj, instanceIRI) {
			out = append(out, models.Registration{
				RegistrationURI: t.Subj.String(),
				Class:           class.String(),
				LocationType:    models.LocationInstance,
				LocationURI:     obj.String(),
				Listed:          listed,
			})
		}
		for _, obj := range g.Objects(t.Subj, instanceContainerIRI) {
			out = append(out, models.Registration{
				RegistrationURI: t.Subj.String(),
				Class:           class.String(),
				LocationType:    models.LocationContainer,
				LocationURI:     obj.String(),
				Listed:          listed,
			})
		}
	}
	return out
}

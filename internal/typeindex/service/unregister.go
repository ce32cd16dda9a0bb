package service

import (
	"context"
	"strconv"
	"time"

	"typeindex/internal/audit"
	"typeindex/internal/rdf/graph"
	"typeindex/internal/typeindex/metrics"
	"typeindex/internal/typeindex/models"
	"typeindex/internal/typeindex/ports"
	dErrors "typeindex/pkg/domain-errors"
)

// UnregisterType removes the registrations of req.Class from the selected
// index, optionally only those at req.Location. Every statement about a
// matching registration subject is deleted, not just the three written by
// RegisterType.
//
// Unlike RegisterType, a successful removal is followed by a full reload and
// the reloaded profile is returned. When nothing matches no request is sent
// and the profile is returned unchanged. Statements whose object is a blank
// node cannot be addressed in a data-only delete and are left in place.
func (s *Service) UnregisterType(ctx context.Context, profile models.Profile, req models.UnregisterRequest, opts ports.RequestOptions) (result models.Profile, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "UnregisterType", profile)
	defer func() { s.finish(span, metrics.OpUnregister, start, err) }()

	if err := validateMutation(profile, req.Class); err != nil {
		return profile, err
	}

	current := profile
	if current.State(req.Visibility).Graph == nil {
		current, err = s.load(ctx, profile, opts)
		if err != nil {
			return profile, err
		}
	}
	slot := current.State(req.Visibility)
	if slot.Graph == nil {
		return profile, nil
	}

	matches, err := filterByLocation(registrationsIn(slot, req), slot.URI, req.Location)
	if err != nil {
		return profile, err
	}

	var (
		deletes []string
		skipped int
	)
	seen := make(map[string]struct{})
	for _, reg := range matches {
		if _, ok := seen[reg.RegistrationURI]; ok {
			continue
		}
		seen[reg.RegistrationURI] = struct{}{}
		subj, err := graph.NewIRI(reg.RegistrationURI)
		if err != nil {
			continue
		}
		for _, t := range slot.Graph.Match(subj, nil, nil) {
			// Blank node labels are local to our parse and DELETE DATA
			// rejects them.
			if graph.IsBlank(t.Obj) {
				skipped++
				continue
			}
			deletes = append(deletes, graph.Statement(t))
		}
	}
	if skipped > 0 {
		s.logger.WarnContext(ctx, "statements with blank node objects left in type index",
			"webid", profile.WebID,
			"class", req.Class,
			"index_uri", slot.URI,
			"skipped", skipped,
		)
	}
	if len(deletes) == 0 {
		return profile, nil
	}

	if err := s.client.Patch(ctx, slot.URI, deletes, nil, opts); err != nil {
		s.stepFailed(ctx, stepPatchIndex, profile, err)
		return profile, dErrors.Wrap(err, dErrors.CodeUpstream, "could not update type index")
	}

	s.logger.InfoContext(ctx, "type unregistered",
		"webid", profile.WebID,
		"class", req.Class,
		"location", req.Location,
		"index_uri", slot.URI,
		"statements_removed", len(deletes),
	)
	s.emitAudit(ctx, audit.EventTypeUnregistered, audit.Event{
		WebID:      profile.WebID,
		IndexURI:   slot.URI,
		Class:      req.Class,
		Location:   req.Location,
		Visibility: req.Visibility.String(),
		Detail:     strconv.Itoa(len(deletes)) + " statements removed",
	})

	return s.load(ctx, current, opts)
}

func registrationsIn(slot models.IndexState, req models.UnregisterRequest) []models.Registration {
	var p models.Profile
	p = p.WithState(req.Visibility, slot)
	return RegistrationsForClass(p, req.Class)
}

// filterByLocation keeps registrations at location. A stored location matches
// when it equals the resolved filter, or for containers when both agree once
// the trailing slash is normalized, so "/posts" and "/posts/" match either way.
// An empty location keeps everything.
func filterByLocation(regs []models.Registration, indexURI, location string) ([]models.Registration, error) {
	if location == "" {
		return regs, nil
	}
	resolved, err := resolveLocation(indexURI, location)
	if err != nil {
		return nil, err
	}
	out := regs[:0:0]
	for _, reg := range regs {
		if reg.LocationURI == resolved ||
			models.NormalizeLocation(reg.LocationType, reg.LocationURI) == models.NormalizeLocation(reg.LocationType, resolved) {
			out = append(out, reg)
		}
	}
	return out, nil
}

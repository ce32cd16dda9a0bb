package service

import (
	"context"
	"strings"
	"time"

	"typeindex/internal/rdf/graph"
	"typeindex/internal/typeindex/metrics"
	"typeindex/internal/typeindex/models"
	"typeindex/internal/typeindex/ports"
	dErrors "typeindex/pkg/domain-errors"
	strutil "typeindex/pkg/platform/strings"
)

// LoadRegistry fetches the index documents linked from profile and returns a
// profile whose slots hold the fetched graphs. A document that cannot be read
// leaves its slot without a graph; only a failure of the whole fetch is
// returned as an error. Calling it again replaces the graphs.
func (s *Service) LoadRegistry(ctx context.Context, profile models.Profile, opts ports.RequestOptions) (result models.Profile, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "LoadRegistry", profile)
	defer func() { s.finish(span, metrics.OpLoad, start, err) }()

	if strings.TrimSpace(profile.WebID) == "" {
		return profile, dErrors.New(dErrors.CodeValidation, "profile is required")
	}
	return s.load(ctx, profile, opts)
}

func (s *Service) load(ctx context.Context, profile models.Profile, opts ports.RequestOptions) (models.Profile, error) {
	uris := strutil.Documents([]string{profile.Listed.URI, profile.Unlisted.URI})
	if len(uris) == 0 {
		return profile, nil
	}

	fetched, err := s.client.FetchGraphs(ctx, uris, opts.WithAccept(graph.MediaTurtle))
	if err != nil {
		s.stepFailed(ctx, stepFetchIndexes, profile, err)
		return profile, dErrors.Wrap(err, dErrors.CodeUpstream, "could not load type index")
	}

	byURI := make(map[string]*graph.Graph, len(fetched))
	for _, f := range fetched {
		if f.Err != nil || f.Graph == nil {
			s.logger.WarnContext(ctx, "type index document unavailable",
				"webid", profile.WebID,
				"index_uri", f.URI,
				"error", f.Err,
			)
			if s.metrics != nil {
				s.metrics.IncrementIndexFetchFailure()
			}
			continue
		}
		byURI[f.URI] = f.Graph
	}

	result := profile
	for _, v := range []models.Visibility{models.Listed, models.Unlisted} {
		slot := profile.State(v)
		if slot.URI == "" {
			continue
		}
		// A slot whose document failed keeps its URI and loses any stale graph.
		result = result.WithState(v, models.IndexState{URI: slot.URI, Graph: byURI[strutil.StripFragment(strings.TrimSpace(slot.URI))]})
	}

	s.logger.DebugContext(ctx, "type index registry loaded",
		"webid", profile.WebID,
		"listed_loaded", result.Listed.Loaded(),
		"unlisted_loaded", result.Unlisted.Loaded(),
	)
	return result, nil
}

// Package ports declares the collaborators the registry service depends on.
package ports

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks DocumentClient,AuditPublisher

import (
	"context"

	"typeindex/internal/audit"
	"typeindex/internal/rdf/graph"
)

// RequestOptions are passed through to every remote call.
type RequestOptions struct {
	// Accept overrides the Accept header on reads. Empty means text/turtle.
	Accept  string
	Headers map[string]string
}

// WithAccept returns a copy of o with Accept set when it is empty.
func (o RequestOptions) WithAccept(accept string) RequestOptions {
	if o.Accept == "" {
		o.Accept = accept
	}
	return o
}

// FetchedGraph is the outcome of reading one document. Exactly one of Graph
// and Err is set.
type FetchedGraph struct {
	URI   string
	Graph *graph.Graph
	Err   error
}

// DocumentClient reads and writes RDF documents on a pod. Triples passed to
// Patch are canonical N-Triples statements ("<s> <p> <o> .").
type DocumentClient interface {
	// Create stores body in containerURI and returns the URI of the new document.
	Create(ctx context.Context, containerURI string, body []byte, suggestedName string, opts RequestOptions) (string, error)
	// Patch removes deletes and adds inserts to documentURI in one request.
	Patch(ctx context.Context, documentURI string, deletes, inserts []string, opts RequestOptions) error
	// FetchGraphs reads every URI. Per-document failures are reported in the
	// result slice, which keeps the order of uris; the returned error is for
	// failures of the call as a whole.
	FetchGraphs(ctx context.Context, uris []string, opts RequestOptions) ([]FetchedGraph, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

package graph

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/knakk/rdf"
)

// Media types the registry reads and writes.
const (
	MediaTurtle   = "text/turtle"
	MediaNTriples = "application/n-triples"
	MediaN3       = "text/n3"
	MediaSPARQL   = "application/sparql-update"
)

// ErrUnsupportedFormat is returned by Parse for media types without a decoder.
var ErrUnsupportedFormat = errors.New("unsupported RDF format")

// Parse decodes an RDF document into a graph. base resolves relative IRIs in
// Turtle; contentType may carry parameters ("text/turtle; charset=utf-8").
// An empty content type is read as Turtle.
func Parse(r io.Reader, base, contentType string) (*Graph, error) {
	format, err := formatFor(contentType)
	if err != nil {
		return nil, err
	}

	dec := rdf.NewTripleDecoder(r, format)
	if format == rdf.Turtle && base != "" {
		baseIRI, err := NewIRI(base)
		if err != nil {
			return nil, fmt.Errorf("base IRI: %w", err)
		}
		if err := dec.SetOption(rdf.Base, baseIRI); err != nil {
			return nil, fmt.Errorf("set base IRI: %w", err)
		}
	}

	g := New()
	for {
		t, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", contentType, err)
		}
		g.Add(t)
	}
	return g, nil
}

// ParseString is Parse over an in-memory document.
func ParseString(doc, base, contentType string) (*Graph, error) {
	return Parse(strings.NewReader(doc), base, contentType)
}

// SupportsMediaType reports whether Parse can decode contentType.
func SupportsMediaType(contentType string) bool {
	_, err := formatFor(contentType)
	return err == nil
}

func formatFor(contentType string) (rdf.Format, error) {
	if strings.TrimSpace(contentType) == "" {
		return rdf.Turtle, nil
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, contentType)
	}
	switch mediaType {
	case MediaTurtle, MediaN3:
		return rdf.Turtle, nil
	case MediaNTriples:
		return rdf.NTriples, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mediaType)
	}
}

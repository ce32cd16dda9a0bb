// Package graph provides the in-memory RDF graph the registry reads and
// mutates.
//
// A Graph is a set of triples that remembers insertion order, so matches are
// reported in the order the document listed them. Terms come from
// github.com/knakk/rdf; two terms are equal when their N-Triples forms are
// equal.
package graph

import (
	"fmt"
	"io"
	"strings"

	"github.com/knakk/rdf"
)

// Graph is an insertion-ordered set of triples. The zero value is not usable;
// call New.
type Graph struct {
	triples []rdf.Triple
	index   map[string]struct{}
}

// New returns an empty graph holding ts.
func New(ts ...rdf.Triple) *Graph {
	g := &Graph{index: make(map[string]struct{}, len(ts))}
	g.Add(ts...)
	return g
}

// Len returns the number of distinct triples.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.triples)
}

// Add inserts triples not already present and returns how many were new.
func (g *Graph) Add(ts ...rdf.Triple) int {
	added := 0
	for _, t := range ts {
		key := Statement(t)
		if _, ok := g.index[key]; ok {
			continue
		}
		g.index[key] = struct{}{}
		g.triples = append(g.triples, t)
		added++
	}
	return added
}

// Has reports whether t is in the graph.
func (g *Graph) Has(t rdf.Triple) bool {
	if g == nil {
		return false
	}
	_, ok := g.index[Statement(t)]
	return ok
}

// Remove deletes the given triples and returns how many were present.
func (g *Graph) Remove(ts ...rdf.Triple) int {
	drop := make(map[string]struct{}, len(ts))
	for _, t := range ts {
		key := Statement(t)
		if _, ok := g.index[key]; ok {
			drop[key] = struct{}{}
		}
	}
	if len(drop) == 0 {
		return 0
	}
	kept := g.triples[:0]
	for _, t := range g.triples {
		key := Statement(t)
		if _, ok := drop[key]; ok {
			delete(g.index, key)
			continue
		}
		kept = append(kept, t)
	}
	g.triples = kept
	return len(drop)
}

// Triples returns a copy of every triple in insertion order.
func (g *Graph) Triples() []rdf.Triple {
	if g == nil {
		return nil
	}
	return append([]rdf.Triple(nil), g.triples...)
}

// Match returns the triples matching the pattern. A nil term matches anything.
func (g *Graph) Match(s, p, o rdf.Term) []rdf.Triple {
	if g == nil {
		return nil
	}
	sk, pk, ok := termKey(s), termKey(p), termKey(o)
	var out []rdf.Triple
	for _, t := range g.triples {
		if sk != "" && termKey(t.Subj) != sk {
			continue
		}
		if pk != "" && termKey(t.Pred) != pk {
			continue
		}
		if ok != "" && termKey(t.Obj) != ok {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Objects returns the objects of every (s, p, ?) triple.
func (g *Graph) Objects(s, p rdf.Term) []rdf.Object {
	matches := g.Match(s, p, nil)
	out := make([]rdf.Object, 0, len(matches))
	for _, t := range matches {
		out = append(out, t.Obj)
	}
	return out
}

// Any returns the first object of (s, p, ?) as a string, or "".
func (g *Graph) Any(s, p rdf.Term) string {
	objs := g.Objects(s, p)
	if len(objs) == 0 {
		return ""
	}
	return objs[0].String()
}

// Clone returns an independent copy of g. Cloning nil yields nil.
func (g *Graph) Clone() *Graph {
	if g == nil {
		return nil
	}
	c := &Graph{
		triples: append([]rdf.Triple(nil), g.triples...),
		index:   make(map[string]struct{}, len(g.index)),
	}
	for k := range g.index {
		c.index[k] = struct{}{}
	}
	return c
}

// Statements returns every triple as a canonical N-Triples statement.
func (g *Graph) Statements() []string {
	if g == nil {
		return nil
	}
	return Statements(g.triples)
}

// WriteNTriples writes the graph as an N-Triples document.
func (g *Graph) WriteNTriples(w io.Writer) error {
	for _, st := range g.Statements() {
		if _, err := io.WriteString(w, st+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// String renders the graph as N-Triples.
func (g *Graph) String() string {
	var sb strings.Builder
	_ = g.WriteNTriples(&sb)
	return sb.String()
}

// Statement renders t as a canonical N-Triples statement: "<s> <p> <o> .".
func Statement(t rdf.Triple) string {
	return termKey(t.Subj) + " " + termKey(t.Pred) + " " + termKey(t.Obj) + " ."
}

// Statements renders each triple with Statement.
func Statements(ts []rdf.Triple) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, Statement(t))
	}
	return out
}

// NewIRI validates iri as an absolute-looking IRI term.
func NewIRI(iri string) (rdf.IRI, error) {
	if iri == "" {
		return rdf.IRI{}, fmt.Errorf("empty IRI")
	}
	return rdf.NewIRI(iri)
}

// MustIRI is NewIRI for constants; it panics on invalid input.
func MustIRI(iri string) rdf.IRI {
	u, err := NewIRI(iri)
	if err != nil {
		panic(fmt.Sprintf("invalid IRI %q: %v", iri, err))
	}
	return u
}

// IRITriple builds a triple whose three terms are IRIs.
func IRITriple(s, p, o string) (rdf.Triple, error) {
	subj, err := NewIRI(s)
	if err != nil {
		return rdf.Triple{}, fmt.Errorf("subject: %w", err)
	}
	pred, err := NewIRI(p)
	if err != nil {
		return rdf.Triple{}, fmt.Errorf("predicate: %w", err)
	}
	obj, err := NewIRI(o)
	if err != nil {
		return rdf.Triple{}, fmt.Errorf("object: %w", err)
	}
	return rdf.Triple{Subj: subj, Pred: pred, Obj: obj}, nil
}

// IsIRI reports whether term is an IRI.
func IsIRI(term rdf.Term) bool {
	return term != nil && term.Type() == rdf.TermIRI
}

// IsBlank reports whether term is a blank node.
func IsBlank(term rdf.Term) bool {
	return term != nil && term.Type() == rdf.TermBlank
}

func termKey(t rdf.Term) string {
	if t == nil {
		return ""
	}
	return t.Serialize(rdf.NTriples)
}

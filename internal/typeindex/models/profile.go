package models

import (
	"strings"

	"typeindex/internal/rdf/graph"
	dErrors "typeindex/pkg/domain-errors"
	strutil "typeindex/pkg/platform/strings"
)

// Visibility selects which of a profile's two type indexes an operation targets.
type Visibility int

const (
	// Listed is the publicly discoverable index (solid:publicTypeIndex).
	Listed Visibility = iota
	// Unlisted is the private index linked from the preferences document.
	Unlisted
)

// FromListed maps the wire-level boolean onto a Visibility.
func FromListed(listed bool) Visibility {
	if listed {
		return Listed
	}
	return Unlisted
}

func (v Visibility) IsListed() bool { return v == Listed }

func (v Visibility) String() string {
	if v == Listed {
		return "Listed"
	}
	return "Unlisted"
}

// IndexState is one slot of a profile: the index document URI and, once
// fetched, its graph.
type IndexState struct {
	URI   string
	Graph *graph.Graph
}

// Loaded reports whether the slot has a graph to query.
func (s IndexState) Loaded() bool {
	return s.Graph != nil
}

// Validate enforces that a graph is never held without the URI it came from.
func (s IndexState) Validate() error {
	if s.Graph != nil && s.URI == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "index graph requires a document URI")
	}
	return nil
}

// Profile is the registry's view of a WebID profile. Operations never modify
// a Profile in place; transitions return a new value.
type Profile struct {
	WebID       string
	Document    string
	Preferences string
	Loaded      bool
	Listed      IndexState
	Unlisted    IndexState
}

// NewProfile builds a loaded profile for webID with no index slots set.
func NewProfile(webID, preferences string) Profile {
	return Profile{
		WebID:       webID,
		Document:    DocumentOf(webID),
		Preferences: preferences,
		Loaded:      true,
	}
}

// State returns the slot for v.
func (p Profile) State(v Visibility) IndexState {
	if v == Listed {
		return p.Listed
	}
	return p.Unlisted
}

func (p Profile) WithListed(s IndexState) Profile {
	p.Listed = s
	return p
}

func (p Profile) WithUnlisted(s IndexState) Profile {
	p.Unlisted = s
	return p
}

// WithState replaces the slot selected by v.
func (p Profile) WithState(v Visibility, s IndexState) Profile {
	if v == Listed {
		return p.WithListed(s)
	}
	return p.WithUnlisted(s)
}

// Validate checks both slots.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.WebID) == "" {
		return dErrors.New(dErrors.CodeValidation, "profile is required")
	}
	if err := p.Listed.Validate(); err != nil {
		return err
	}
	return p.Unlisted.Validate()
}

// DocumentURI returns the profile document, falling back to the WebID with
// its fragment removed.
func (p Profile) DocumentURI() string {
	if p.Document != "" {
		return p.Document
	}
	return DocumentOf(p.WebID)
}

// DocumentOf strips the fragment from a WebID.
func DocumentOf(webID string) string {
	return strutil.StripFragment(webID)
}

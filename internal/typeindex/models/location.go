package models

import (
	"strings"

	"typeindex/internal/rdf/vocab"
	dErrors "typeindex/pkg/domain-errors"
)

// LocationType says whether a registration points at a single instance or at
// a container of instances.
type LocationType int

const (
	LocationContainer LocationType = iota
	LocationInstance
)

// ParseLocationType accepts "container" and "instance" (case-insensitive).
// An empty string selects the container default.
func ParseLocationType(s string) (LocationType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "container", "instancecontainer":
		return LocationContainer, nil
	case "instance":
		return LocationInstance, nil
	default:
		return 0, dErrors.New(dErrors.CodeValidation, "invalid location type")
	}
}

// Valid reports whether t is one of the two known cases.
func (t LocationType) Valid() bool {
	return t == LocationContainer || t == LocationInstance
}

// Predicate maps the location type to the solid term linking a registration
// to its location.
func (t LocationType) Predicate() string {
	switch t {
	case LocationInstance:
		return vocab.Instance
	case LocationContainer:
		return vocab.InstanceContainer
	default:
		panic("models: unknown location type")
	}
}

func (t LocationType) String() string {
	switch t {
	case LocationInstance:
		return "instance"
	case LocationContainer:
		return "container"
	default:
		return "unknown"
	}
}

// NormalizeLocation gives container locations exactly one trailing slash.
// Instance locations are returned unchanged.
func NormalizeLocation(t LocationType, location string) string {
	if t != LocationContainer || strings.HasSuffix(location, "/") {
		return location
	}
	return location + "/"
}

package models

// Registration is one (class, location) answer produced by a query. It is
// derived from the graphs on demand and never stored.
type Registration struct {
	RegistrationURI string
	Class           string
	LocationType    LocationType
	LocationURI     string
	Listed          bool
}

// Visibility returns the index the registration was read from.
func (r Registration) Visibility() Visibility {
	return FromListed(r.Listed)
}

// RegisterRequest describes a mapping to add.
type RegisterRequest struct {
	Class        string
	Location     string
	LocationType LocationType
	Visibility   Visibility
}

// UnregisterRequest describes mappings to remove. An empty Location removes
// every registration for Class in the selected index.
type UnregisterRequest struct {
	Class      string
	Location   string
	Visibility Visibility
}

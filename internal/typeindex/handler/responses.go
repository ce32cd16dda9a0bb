package handler

import (
	"strings"
	"time"

	"typeindex/internal/audit"
	"typeindex/internal/typeindex/models"
)

type IndexResponse struct {
	URI     string `json:"uri,omitempty"`
	Loaded  bool   `json:"loaded"`
	Triples int    `json:"triples"`
}

type RegistryResponse struct {
	WebID           string        `json:"webid"`
	ProfileDocument string        `json:"profile_document"`
	Preferences     string        `json:"preferences,omitempty"`
	Listed          IndexResponse `json:"listed"`
	Unlisted        IndexResponse `json:"unlisted"`
}

type RegistrationResponse struct {
	Registration string `json:"registration"`
	Class        string `json:"class"`
	LocationType string `json:"location_type"`
	Location     string `json:"location"`
	Visibility   string `json:"visibility"`
}

type RegistrationsResponse struct {
	Class         string                 `json:"class"`
	Registrations []RegistrationResponse `json:"registrations"`
}

func FromProfile(p models.Profile) RegistryResponse {
	return RegistryResponse{
		WebID:           p.WebID,
		ProfileDocument: p.DocumentURI(),
		Preferences:     p.Preferences,
		Listed:          fromIndex(p.Listed),
		Unlisted:        fromIndex(p.Unlisted),
	}
}

func fromIndex(s models.IndexState) IndexResponse {
	return IndexResponse{URI: s.URI, Loaded: s.Loaded(), Triples: s.Graph.Len()}
}

func FromRegistrations(class string, regs []models.Registration) RegistrationsResponse {
	out := RegistrationsResponse{Class: class, Registrations: make([]RegistrationResponse, 0, len(regs))}
	for _, r := range regs {
		out.Registrations = append(out.Registrations, RegistrationResponse{
			Registration: r.RegistrationURI,
			Class:        r.Class,
			LocationType: r.LocationType.String(),
			Location:     r.LocationURI,
			Visibility:   strings.ToLower(r.Visibility().String()),
		})
	}
	return out
}

type AuditEventResponse struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	Timestamp  time.Time `json:"timestamp"`
	IndexURI   string    `json:"index_uri,omitempty"`
	Class      string    `json:"class,omitempty"`
	Location   string    `json:"location,omitempty"`
	Visibility string    `json:"visibility,omitempty"`
	Detail     string    `json:"detail,omitempty"`
}

type AuditEventsResponse struct {
	Events []AuditEventResponse `json:"events"`
}

func FromAuditEvents(events []audit.Event) AuditEventsResponse {
	out := AuditEventsResponse{Events: make([]AuditEventResponse, 0, len(events))}
	for _, e := range events {
		out.Events = append(out.Events, AuditEventResponse{
			ID:         e.ID,
			Action:     e.Action,
			Timestamp:  e.Timestamp,
			IndexURI:   e.IndexURI,
			Class:      e.Class,
			Location:   e.Location,
			Visibility: e.Visibility,
			Detail:     e.Detail,
		})
	}
	return out
}

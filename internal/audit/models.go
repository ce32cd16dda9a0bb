package audit

import "time"

// EventCategory classifies audit events for routing and retention.
type EventCategory string

const (
	// CategoryCompliance covers changes to what a profile advertises.
	CategoryCompliance EventCategory = "compliance"
	// CategoryOperations covers reads and routine activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from registry logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string
	Category  EventCategory
	Timestamp time.Time
	WebID     string
	Action    string
	// IndexURI is the type index document the action touched, if any.
	IndexURI   string
	Class      string
	Location   string
	Visibility string
	RequestID  string
	// Detail carries free-form context such as the number of removed statements.
	Detail string
}

type AuditEvent string

const (
	EventRegistryInitialized AuditEvent = "registry_initialized"
	EventTypeRegistered      AuditEvent = "type_registered"
	EventTypeUnregistered    AuditEvent = "type_unregistered"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventRegistryInitialized: CategoryCompliance,
	EventTypeRegistered:      CategoryCompliance,
	EventTypeUnregistered:    CategoryCompliance,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

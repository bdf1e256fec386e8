package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventDependentsUpdated EventType = "employee.dependents_updated"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	EmployeeID int       `json:"employee_id"`
	Actor      string    `json:"actor,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Payload    any       `json:"payload"`
}

// DependentsUpdatedPayload records the before/after dependents count.
type DependentsUpdatedPayload struct {
	OldCount int `json:"old_count"`
	NewCount int `json:"new_count"`
}

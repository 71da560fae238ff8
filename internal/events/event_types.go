package events

import "time"

// EventType identifies the kind of domain event.
type EventType string

const (
	EventImportApplied   EventType = "roster.import.applied"
	EventImportCancelled EventType = "roster.import.cancelled"
)

// Event is the envelope published to subscribers.
type Event struct {
	ID             string
	Type           EventType
	OrganizationID string
	BatchID        string
	ActorID        string
	Timestamp      time.Time
	Payload        any
}

// ImportAppliedPayload summarizes a committed import batch.
type ImportAppliedPayload struct {
	Created     int
	Updated     int
	Transferred int
	Retired     int
	Errors      int
}

// ImportCancelledPayload summarizes a rollback.
type ImportCancelledPayload struct {
	ChangeLogsDeleted    int
	EmployeesAffected    int
	NewEmployeesDeleted  int
	EmployeesRestored    int
	EmployeesReactivated int
	Skipped              int
}

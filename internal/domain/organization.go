package domain

import "time"

// PublicationStatus tracks the downstream approval state of an organization's roster.
type PublicationStatus string

const (
	PublicationDraft     PublicationStatus = "DRAFT"
	PublicationScheduled PublicationStatus = "SCHEDULED"
	PublicationPublished PublicationStatus = "PUBLISHED"
)

// Organization is the tenant whose roster gets imported.
type Organization struct {
	ID                string
	Name              string
	PublicationStatus PublicationStatus
	ScheduledAt       *time.Time
	PublishedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

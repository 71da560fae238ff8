package domain

import "time"

// ImportMarker is the keyed singleton naming the one batch currently eligible
// for rollback in an organization. A new import overwrites it, which silently
// forecloses rollback of any earlier batch. Version carries an optimistic
// concurrency check since import and rollback share no other lock on it.
type ImportMarker struct {
	OrganizationID  string
	Pending         bool
	BatchID         string
	ImportedAt      *time.Time
	ImportedBy      string
	CancelledAt     *time.Time
	CancelledBy     string
	OriginalBatchID string
	Version         int
}

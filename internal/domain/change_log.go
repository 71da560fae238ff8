package domain

import "time"

// ChangeLogEntityType identifies what a change-log entry refers to.
type ChangeLogEntityType string

const (
	EntityTypeEmployee ChangeLogEntityType = "EMPLOYEE"
	EntityTypeImport   ChangeLogEntityType = "IMPORT"
)

// ChangeTypeImportSummary marks the single batch-level entry written after
// all per-employee entries of an import.
const ChangeTypeImportSummary HistoryChangeType = "IMPORT"

// ChangeLogEntry is the batch-scoped rollback index. It records that
// something changed, not the before/after state; the full state lives in the
// history ledger. The rollback engine scans these entries to find which
// entities a batch touched and in what order.
type ChangeLogEntry struct {
	ID          string
	Seq         int64
	EntityType  ChangeLogEntityType
	EntityID    string
	ChangeType  HistoryChangeType
	BatchID     string
	ActorID     string
	Description string
	CreatedAt   time.Time
}

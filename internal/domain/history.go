package domain

import "time"

// HistoryChangeType captures why a history snapshot was written.
type HistoryChangeType string

const (
	ChangeTypeCreate     HistoryChangeType = "CREATE"
	ChangeTypeUpdate     HistoryChangeType = "UPDATE"
	ChangeTypeTransfer   HistoryChangeType = "TRANSFER"
	ChangeTypeRetirement HistoryChangeType = "RETIREMENT"
)

// EmployeeSnapshot is one row of the append-only history ledger. Rows form a
// validity-interval timeline per employee: ValidTo is nil while the snapshot
// is current and set to the next mutation's ValidFrom when superseded. Each
// snapshot carries a full denormalized copy of the employee's fields at that
// instant, plus unit names for cheap historical rendering.
//
// Written only by the import executor and the rollback engine.
type EmployeeSnapshot struct {
	ID         string
	EmployeeID string

	ValidFrom time.Time
	ValidTo   *time.Time

	ChangeType HistoryChangeType
	Reason     string
	BatchID    string
	ActorID    string

	EmployeeNo         string
	Name               string
	NameKana           string
	Email              string
	Phone              string
	Position           string
	PositionCode       string
	Grade              string
	GradeCode          string
	EmploymentType     string
	EmploymentTypeCode string

	TopUnitID    string
	MidUnitID    *string
	LeafUnitID   *string
	TopUnitName  string
	MidUnitName  string
	LeafUnitName string

	Active   bool
	JoinedOn *time.Time
	BornOn   *time.Time

	CreatedAt time.Time
}

package domain

import "time"

// Employee is the persisted roster record. EmployeeNo is the stable external
// identifier (unique per organization). MidUnitID/LeafUnitID are optional: an
// employee may attach directly to a Top or Mid unit.
type Employee struct {
	ID             string
	OrganizationID string
	EmployeeNo     string

	Name     string
	NameKana string
	Email    string
	Phone    string

	Position           string
	PositionCode       string
	Grade              string
	GradeCode          string
	EmploymentType     string
	EmploymentTypeCode string

	TopUnitID  string
	MidUnitID  *string
	LeafUnitID *string

	Active   bool
	JoinedOn *time.Time
	BornOn   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EmployeeWithUnits joins an employee with the names of its current placement,
// used by the diff engine and for denormalized history rendering.
type EmployeeWithUnits struct {
	Employee
	TopUnitName  string
	MidUnitName  string
	LeafUnitName string
}

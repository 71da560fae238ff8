package domain

import "time"

// ImportRow is one incoming roster record after field normalization. Unit
// placement arrives as names; the hierarchy resolver turns them into unit ids.
type ImportRow struct {
	EmployeeNo string

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

	TopUnit     string
	TopUnitCode string
	MidUnit     string
	LeafUnit    string

	JoinedOn *time.Time
	BornOn   *time.Time
}

package service

import (
	"strings"

	"github.com/spec-kit/roster-service/internal/domain"
)

// FieldDelta is one changed attribute in an Updated classification.
type FieldDelta struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// NewEmployee is an incoming record with no persisted counterpart.
type NewEmployee struct {
	EmployeeNo string `json:"employee_no"`
	Name       string `json:"name"`
	Position   string `json:"position"`
	UnitPath   string `json:"unit_path"`
}

// UpdatedEmployee is an existing record with at least one field delta.
type UpdatedEmployee struct {
	EmployeeNo string       `json:"employee_no"`
	Name       string       `json:"name"`
	Changes    []FieldDelta `json:"changes"`
}

// TransferredEmployee is an existing record whose placement moved.
type TransferredEmployee struct {
	EmployeeNo string `json:"employee_no"`
	Name       string `json:"name"`
	OldPath    string `json:"old_path"`
	NewPath    string `json:"new_path"`
}

// RetiredEmployee is an active record absent from the incoming batch.
type RetiredEmployee struct {
	EmployeeNo string `json:"employee_no"`
	Name       string `json:"name"`
	UnitPath   string `json:"unit_path"`
}

// PreviewSummary counts each classification.
type PreviewSummary struct {
	New         int `json:"new"`
	Updated     int `json:"updated"`
	Transferred int `json:"transferred"`
	Retired     int `json:"retired"`
	Excluded    int `json:"excluded"`
	Total       int `json:"total"`
}

// PreviewResult is the full read-only classification of a batch.
type PreviewResult struct {
	NewEmployees         []NewEmployee         `json:"new_employees"`
	UpdatedEmployees     []UpdatedEmployee     `json:"updated_employees"`
	TransferredEmployees []TransferredEmployee `json:"transferred_employees"`
	RetiredEmployees     []RetiredEmployee     `json:"retired_employees"`
	ExcludedDuplicates   []ExcludedDuplicate   `json:"excluded_duplicates"`
	Summary              PreviewSummary        `json:"summary"`
}

// DiffEngine classifies deduplicated incoming records against the persisted
// roster. It performs no writes and uses no clock: the same two inputs always
// yield the same classification.
type DiffEngine struct{}

// NewDiffEngine constructs the engine.
func NewDiffEngine() *DiffEngine {
	return &DiffEngine{}
}

// comparableFields is the fixed attribute set the diff inspects. Hierarchy
// placement is classified separately as a transfer.
var comparableFields = []struct {
	name string
	emp  func(*domain.Employee) string
	row  func(*domain.ImportRow) string
}{
	{"name", func(e *domain.Employee) string { return e.Name }, func(r *domain.ImportRow) string { return r.Name }},
	{"name_kana", func(e *domain.Employee) string { return e.NameKana }, func(r *domain.ImportRow) string { return r.NameKana }},
	{"email", func(e *domain.Employee) string { return e.Email }, func(r *domain.ImportRow) string { return r.Email }},
	{"phone", func(e *domain.Employee) string { return e.Phone }, func(r *domain.ImportRow) string { return r.Phone }},
	{"position", func(e *domain.Employee) string { return e.Position }, func(r *domain.ImportRow) string { return r.Position }},
	{"position_code", func(e *domain.Employee) string { return e.PositionCode }, func(r *domain.ImportRow) string { return r.PositionCode }},
	{"grade", func(e *domain.Employee) string { return e.Grade }, func(r *domain.ImportRow) string { return r.Grade }},
	{"grade_code", func(e *domain.Employee) string { return e.GradeCode }, func(r *domain.ImportRow) string { return r.GradeCode }},
	{"employment_type", func(e *domain.Employee) string { return e.EmploymentType }, func(r *domain.ImportRow) string { return r.EmploymentType }},
	{"employment_type_code", func(e *domain.Employee) string { return e.EmploymentTypeCode }, func(r *domain.ImportRow) string { return r.EmploymentTypeCode }},
}

// FieldDeltas returns the changed attributes between a persisted employee and
// an incoming row.
func FieldDeltas(emp *domain.Employee, row *domain.ImportRow) []FieldDelta {
	var deltas []FieldDelta
	for _, f := range comparableFields {
		oldVal, newVal := f.emp(emp), f.row(row)
		if oldVal != newVal {
			deltas = append(deltas, FieldDelta{Field: f.name, Old: oldVal, New: newVal})
		}
	}
	return deltas
}

// UnitPath joins unit names with "/", trimming trailing empty segments.
func UnitPath(top, mid, leaf string) string {
	segments := []string{top, mid, leaf}
	end := len(segments)
	for end > 0 && segments[end-1] == "" {
		end--
	}
	return strings.Join(segments[:end], "/")
}

// RowPath returns the placement path of an incoming row.
func RowPath(row domain.ImportRow) string {
	return UnitPath(row.TopUnit, row.MidUnit, row.LeafUnit)
}

// Classify compares deduplicated rows with the currently active roster.
// A row may be both Updated and Transferred; both are reported. Active
// employees missing from the batch are reported as Retired, not yet applied.
func (d *DiffEngine) Classify(rows []domain.ImportRow, roster []domain.EmployeeWithUnits) PreviewResult {
	result := PreviewResult{}

	byNo := make(map[string]*domain.EmployeeWithUnits, len(roster))
	for i := range roster {
		byNo[roster[i].EmployeeNo] = &roster[i]
	}

	seen := make(map[string]bool, len(rows))
	for i := range rows {
		row := rows[i]
		seen[row.EmployeeNo] = true

		existing, ok := byNo[row.EmployeeNo]
		if !ok {
			result.NewEmployees = append(result.NewEmployees, NewEmployee{
				EmployeeNo: row.EmployeeNo,
				Name:       row.Name,
				Position:   row.Position,
				UnitPath:   RowPath(row),
			})
			continue
		}

		if deltas := FieldDeltas(&existing.Employee, &row); len(deltas) > 0 {
			result.UpdatedEmployees = append(result.UpdatedEmployees, UpdatedEmployee{
				EmployeeNo: row.EmployeeNo,
				Name:       row.Name,
				Changes:    deltas,
			})
		}

		oldPath := UnitPath(existing.TopUnitName, existing.MidUnitName, existing.LeafUnitName)
		newPath := RowPath(row)
		if oldPath != newPath {
			result.TransferredEmployees = append(result.TransferredEmployees, TransferredEmployee{
				EmployeeNo: row.EmployeeNo,
				Name:       row.Name,
				OldPath:    oldPath,
				NewPath:    newPath,
			})
		}
	}

	for i := range roster {
		emp := roster[i]
		if !seen[emp.EmployeeNo] {
			result.RetiredEmployees = append(result.RetiredEmployees, RetiredEmployee{
				EmployeeNo: emp.EmployeeNo,
				Name:       emp.Name,
				UnitPath:   UnitPath(emp.TopUnitName, emp.MidUnitName, emp.LeafUnitName),
			})
		}
	}

	result.Summary = PreviewSummary{
		New:         len(result.NewEmployees),
		Updated:     len(result.UpdatedEmployees),
		Transferred: len(result.TransferredEmployees),
		Retired:     len(result.RetiredEmployees),
		Total:       len(rows),
	}
	return result
}

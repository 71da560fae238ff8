package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/roster-service/internal/domain"
)

func rosterEntry(no, name, email, top, mid, leaf string) domain.EmployeeWithUnits {
	return domain.EmployeeWithUnits{
		Employee: domain.Employee{
			EmployeeNo: no,
			Name:       name,
			Email:      email,
			Active:     true,
		},
		TopUnitName:  top,
		MidUnitName:  mid,
		LeafUnitName: leaf,
	}
}

func TestFieldDeltasReportsChangedAttributesOnly(t *testing.T) {
	emp := &domain.Employee{Name: "Alice Ando", Email: "alice@example.com", Grade: "G3"}
	row := &domain.ImportRow{Name: "Alice Ando", Email: "alice.ando@example.com", Grade: "G4"}

	deltas := FieldDeltas(emp, row)

	require.Len(t, deltas, 2)
	assert.Equal(t, FieldDelta{Field: "email", Old: "alice@example.com", New: "alice.ando@example.com"}, deltas[0])
	assert.Equal(t, FieldDelta{Field: "grade", Old: "G3", New: "G4"}, deltas[1])
}

func TestUnitPathTrimsTrailingEmptySegments(t *testing.T) {
	assert.Equal(t, "Sales/East/Course1", UnitPath("Sales", "East", "Course1"))
	assert.Equal(t, "Sales/East", UnitPath("Sales", "East", ""))
	assert.Equal(t, "Sales", UnitPath("Sales", "", ""))
	assert.Equal(t, "Sales//Course1", UnitPath("Sales", "", "Course1"))
}

func TestClassifyReportsUpdateAndTransferIndependently(t *testing.T) {
	engine := NewDiffEngine()

	roster := []domain.EmployeeWithUnits{
		rosterEntry("A001", "Alice Ando", "alice@example.com", "Sales", "East", ""),
	}
	rows := []domain.ImportRow{
		{EmployeeNo: "A001", Name: "Alice Ando", Email: "alice.ando@example.com", TopUnit: "HR"},
	}

	result := engine.Classify(rows, roster)

	require.Len(t, result.UpdatedEmployees, 1)
	require.Len(t, result.TransferredEmployees, 1)
	assert.Equal(t, "A001", result.UpdatedEmployees[0].EmployeeNo)
	assert.Equal(t, "Sales/East", result.TransferredEmployees[0].OldPath)
	assert.Equal(t, "HR", result.TransferredEmployees[0].NewPath)
	assert.Empty(t, result.NewEmployees)
	assert.Empty(t, result.RetiredEmployees)
}

func TestClassifyOmitsUnchangedRecords(t *testing.T) {
	engine := NewDiffEngine()

	roster := []domain.EmployeeWithUnits{
		rosterEntry("A001", "Alice Ando", "alice@example.com", "Sales", "East", ""),
	}
	rows := []domain.ImportRow{
		{EmployeeNo: "A001", Name: "Alice Ando", Email: "alice@example.com", TopUnit: "Sales", MidUnit: "East"},
	}

	result := engine.Classify(rows, roster)

	assert.Empty(t, result.NewEmployees)
	assert.Empty(t, result.UpdatedEmployees)
	assert.Empty(t, result.TransferredEmployees)
	assert.Empty(t, result.RetiredEmployees)
	assert.Equal(t, 1, result.Summary.Total)
}

func TestClassifyRetiresActiveEmployeesAbsentFromBatch(t *testing.T) {
	engine := NewDiffEngine()

	roster := []domain.EmployeeWithUnits{
		rosterEntry("A001", "Alice Ando", "alice@example.com", "Sales", "East", ""),
		rosterEntry("A002", "Bob Baba", "bob@example.com", "Sales", "West", ""),
	}
	rows := []domain.ImportRow{
		{EmployeeNo: "A001", Name: "Alice Ando", Email: "alice@example.com", TopUnit: "Sales", MidUnit: "East"},
	}

	result := engine.Classify(rows, roster)

	require.Len(t, result.RetiredEmployees, 1)
	assert.Equal(t, "A002", result.RetiredEmployees[0].EmployeeNo)
	assert.Equal(t, "Sales/West", result.RetiredEmployees[0].UnitPath)
}

func TestClassifyIsDeterministic(t *testing.T) {
	engine := NewDiffEngine()

	roster := []domain.EmployeeWithUnits{
		rosterEntry("A001", "Alice Ando", "alice@example.com", "Sales", "East", ""),
		rosterEntry("A002", "Bob Baba", "bob@example.com", "Sales", "West", ""),
	}
	rows := []domain.ImportRow{
		{EmployeeNo: "A002", Name: "Bob Baba", Email: "new@example.com", TopUnit: "Sales", MidUnit: "West"},
		{EmployeeNo: "A003", Name: "Carol Chiba", TopUnit: "HR"},
	}

	first := engine.Classify(rows, roster)
	second := engine.Classify(rows, roster)

	assert.Equal(t, first, second)
}

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/roster-service/internal/domain"
)

func advisoryRow(no, name, position string) domain.ImportRow {
	return domain.ImportRow{
		EmployeeNo: no,
		Name:       name,
		Position:   position,
		TopUnit:    "Advisory Board",
	}
}

func TestDeduplicatorKeepsMostSeniorRow(t *testing.T) {
	d := NewDeduplicator("Advisory Board")

	rows := []domain.ImportRow{
		advisoryRow("X100", "Taro Yamada", "Advisor"),
		advisoryRow("X200", "Taro Yamada", "Chairman"),
	}
	deduped, exclusions := d.Apply(rows)

	require.Len(t, deduped, 1)
	assert.Equal(t, "X200", deduped[0].EmployeeNo)
	require.Len(t, exclusions, 1)
	assert.Equal(t, "X100", exclusions[0].EmployeeNo)
	assert.Equal(t, "X200", exclusions[0].KeptEmployeeNo)
}

func TestDeduplicatorFirstWinsOnEqualRank(t *testing.T) {
	d := NewDeduplicator("Advisory Board")

	rows := []domain.ImportRow{
		advisoryRow("X100", "Taro Yamada", "Advisor"),
		advisoryRow("X200", "Taro Yamada", "Advisor"),
	}
	deduped, exclusions := d.Apply(rows)

	require.Len(t, deduped, 1)
	assert.Equal(t, "X100", deduped[0].EmployeeNo)
	require.Len(t, exclusions, 1)
	assert.Equal(t, "X200", exclusions[0].EmployeeNo)
}

func TestDeduplicatorMatchesNamesIgnoringWhitespace(t *testing.T) {
	d := NewDeduplicator("Advisory Board")

	rows := []domain.ImportRow{
		advisoryRow("X100", "Taro  Yamada", "Advisor"),
		advisoryRow("X200", "Taro Yamada", "President"),
	}
	deduped, _ := d.Apply(rows)

	require.Len(t, deduped, 1)
	assert.Equal(t, "X200", deduped[0].EmployeeNo)
}

func TestDeduplicatorIgnoresRowsOutsideAdvisoryUnit(t *testing.T) {
	d := NewDeduplicator("Advisory Board")

	rows := []domain.ImportRow{
		{EmployeeNo: "A001", Name: "Taro Yamada", TopUnit: "Sales"},
		{EmployeeNo: "A002", Name: "Taro Yamada", TopUnit: "HR"},
	}
	deduped, exclusions := d.Apply(rows)

	assert.Len(t, deduped, 2)
	assert.Empty(t, exclusions)
}

func TestDeduplicatorCompletenessBreaksSeniorityTies(t *testing.T) {
	d := NewDeduplicator("Advisory Board")

	sparse := advisoryRow("X100", "Taro Yamada", "Director")
	full := advisoryRow("X200", "Taro Yamada", "Director")
	full.PositionCode = "D01"

	deduped, _ := d.Apply([]domain.ImportRow{sparse, full})

	require.Len(t, deduped, 1)
	assert.Equal(t, "X200", deduped[0].EmployeeNo)
}

func TestDeduplicatorPreservesRowOrder(t *testing.T) {
	d := NewDeduplicator("Advisory Board")

	rows := []domain.ImportRow{
		{EmployeeNo: "A001", Name: "Ichiro Ito", TopUnit: "Sales"},
		advisoryRow("X100", "Taro Yamada", "Advisor"),
		{EmployeeNo: "A002", Name: "Jiro Jo", TopUnit: "Sales"},
		advisoryRow("X200", "Taro Yamada", "Chairman"),
	}
	deduped, _ := d.Apply(rows)

	require.Len(t, deduped, 3)
	assert.Equal(t, "A001", deduped[0].EmployeeNo)
	assert.Equal(t, "A002", deduped[1].EmployeeNo)
	assert.Equal(t, "X200", deduped[2].EmployeeNo)
}

func TestDeduplicatorDisabledWithoutAdvisoryUnit(t *testing.T) {
	d := NewDeduplicator("")

	rows := []domain.ImportRow{
		advisoryRow("X100", "Taro Yamada", "Advisor"),
		advisoryRow("X200", "Taro Yamada", "Chairman"),
	}
	deduped, exclusions := d.Apply(rows)

	assert.Len(t, deduped, 2)
	assert.Empty(t, exclusions)
}

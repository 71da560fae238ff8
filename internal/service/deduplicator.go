package service

import (
	"strings"

	"github.com/spec-kit/roster-service/internal/domain"
)

// ExcludedDuplicate describes a source row dropped by deduplication. It only
// exists inside a single preview/import response and is never persisted.
type ExcludedDuplicate struct {
	EmployeeNo     string `json:"employee_no"`
	Name           string `json:"name"`
	Position       string `json:"position"`
	Reason         string `json:"reason"`
	KeptEmployeeNo string `json:"kept_employee_no"`
}

// Deduplicator collapses source rows that describe the same physical person
// placed under the designated advisory/executive unit more than once, a known
// data-entry pattern for senior staff. Pure function, no I/O.
type Deduplicator struct {
	advisoryUnit string
}

// NewDeduplicator builds a deduplicator for the named advisory unit.
func NewDeduplicator(advisoryUnit string) *Deduplicator {
	return &Deduplicator{advisoryUnit: advisoryUnit}
}

// Apply returns the batch with duplicate advisory rows collapsed, preserving
// the original row order, plus one exclusion record per dropped row citing
// the kept row's identifier. Rows outside the advisory unit pass through
// untouched. Equally ranked duplicates keep the first encountered; this
// tie-break is a business rule, not an implementation accident.
func (d *Deduplicator) Apply(rows []domain.ImportRow) ([]domain.ImportRow, []ExcludedDuplicate) {
	if d.advisoryUnit == "" {
		return rows, nil
	}

	// First pass: pick the winning row index per advisory identity.
	winners := make(map[string]int)
	for i, row := range rows {
		if !d.isAdvisory(row) {
			continue
		}
		key := identityKey(row)
		kept, seen := winners[key]
		if !seen || rowRank(row) > rowRank(rows[kept]) {
			winners[key] = i
		}
	}

	var (
		deduped    []domain.ImportRow
		exclusions []ExcludedDuplicate
	)
	for i, row := range rows {
		if !d.isAdvisory(row) {
			deduped = append(deduped, row)
			continue
		}
		kept := winners[identityKey(row)]
		if kept == i {
			deduped = append(deduped, row)
			continue
		}
		exclusions = append(exclusions, ExcludedDuplicate{
			EmployeeNo:     row.EmployeeNo,
			Name:           row.Name,
			Position:       row.Position,
			Reason:         "duplicate of employee " + rows[kept].EmployeeNo + " in " + d.advisoryUnit,
			KeptEmployeeNo: rows[kept].EmployeeNo,
		})
	}
	return deduped, exclusions
}

func (d *Deduplicator) isAdvisory(row domain.ImportRow) bool {
	return row.TopUnit == d.advisoryUnit || row.MidUnit == d.advisoryUnit || row.LeafUnit == d.advisoryUnit
}

// identityKey collapses rows to a canonical person identity. Advisory
// duplicates typically arrive under different employee numbers, so the name
// (whitespace-insensitive) is the primary signal.
func identityKey(row domain.ImportRow) string {
	name := strings.Join(strings.Fields(row.Name), "")
	if name != "" {
		return "n:" + name
	}
	return "e:" + strings.ToUpper(strings.TrimSpace(row.EmployeeNo))
}

// seniorPositions orders executive titles from most to least senior.
var seniorPositions = []string{
	"Chairman",
	"Vice Chairman",
	"President",
	"Executive Director",
	"Director",
	"Auditor",
	"Advisor",
	"Counselor",
}

// rowRank scores a row by position seniority and field completeness. Higher
// wins; strict comparison keeps the first row on ties.
func rowRank(row domain.ImportRow) int {
	rank := 0
	for i, title := range seniorPositions {
		if strings.EqualFold(row.Position, title) {
			rank = (len(seniorPositions) - i) * 10
			break
		}
	}
	if row.Position != "" {
		rank += 2
	}
	if row.PositionCode != "" {
		rank++
	}
	return rank
}

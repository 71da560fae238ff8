package dto

import (
	"strings"
	"time"

	"github.com/spec-kit/roster-service/internal/domain"
)

// RosterRow is one roster record as submitted by the client. Dates use
// YYYY-MM-DD.
type RosterRow struct {
	EmployeeNo         string `json:"employee_no"`
	Name               string `json:"name"`
	NameKana           string `json:"name_kana,omitempty"`
	Email              string `json:"email,omitempty"`
	Phone              string `json:"phone,omitempty"`
	Position           string `json:"position,omitempty"`
	PositionCode       string `json:"position_code,omitempty"`
	Grade              string `json:"grade,omitempty"`
	GradeCode          string `json:"grade_code,omitempty"`
	EmploymentType     string `json:"employment_type,omitempty"`
	EmploymentTypeCode string `json:"employment_type_code,omitempty"`
	TopUnit            string `json:"top_unit"`
	TopUnitCode        string `json:"top_unit_code,omitempty"`
	MidUnit            string `json:"mid_unit,omitempty"`
	LeafUnit           string `json:"leaf_unit,omitempty"`
	JoinedOn           string `json:"joined_on,omitempty"`
	BornOn             string `json:"born_on,omitempty"`
}

// RosterBatchRequest carries the rows for a preview or import call.
type RosterBatchRequest struct {
	Rows    []RosterRow   `json:"rows"`
	Options ImportOptions `json:"options"`
}

// ImportOptions are the client-settable import flags.
type ImportOptions struct {
	MarkMissingAsRetired *bool `json:"mark_missing_as_retired,omitempty"`
}

// Retire reports the flag with its default of true.
func (o ImportOptions) Retire() bool {
	if o.MarkMissingAsRetired == nil {
		return true
	}
	return *o.MarkMissingAsRetired
}

// ToImportRow converts the transport row to the domain row.
func (r RosterRow) ToImportRow() domain.ImportRow {
	return domain.ImportRow{
		EmployeeNo:         strings.TrimSpace(r.EmployeeNo),
		Name:               strings.TrimSpace(r.Name),
		NameKana:           strings.TrimSpace(r.NameKana),
		Email:              strings.TrimSpace(r.Email),
		Phone:              strings.TrimSpace(r.Phone),
		Position:           strings.TrimSpace(r.Position),
		PositionCode:       strings.TrimSpace(r.PositionCode),
		Grade:              strings.TrimSpace(r.Grade),
		GradeCode:          strings.TrimSpace(r.GradeCode),
		EmploymentType:     strings.TrimSpace(r.EmploymentType),
		EmploymentTypeCode: strings.TrimSpace(r.EmploymentTypeCode),
		TopUnit:            strings.TrimSpace(r.TopUnit),
		TopUnitCode:        strings.TrimSpace(r.TopUnitCode),
		MidUnit:            strings.TrimSpace(r.MidUnit),
		LeafUnit:           strings.TrimSpace(r.LeafUnit),
		JoinedOn:           parseDate(r.JoinedOn),
		BornOn:             parseDate(r.BornOn),
	}
}

// ToImportRows converts the whole batch.
func ToImportRows(rows []RosterRow) []domain.ImportRow {
	out := make([]domain.ImportRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToImportRow())
	}
	return out
}

func parseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	return &t
}

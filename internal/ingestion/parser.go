package ingestion

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/spec-kit/roster-service/internal/domain"
)

// ErrUnsupportedFormat is returned when an uploaded file is not supported.
var ErrUnsupportedFormat = errors.New("unsupported file format")

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.1.2",
	"2006/1/2",
	time.RFC3339,
}

// column labels accepted in the header row, lowercased. Several aliases per
// field since exported rosters are not consistent about naming.
var columnAliases = map[string]string{
	"employee_no":          "employee_no",
	"employee no":          "employee_no",
	"emp_no":               "employee_no",
	"name":                 "name",
	"full name":            "name",
	"name_kana":            "name_kana",
	"kana":                 "name_kana",
	"email":                "email",
	"mail":                 "email",
	"phone":                "phone",
	"tel":                  "phone",
	"position":             "position",
	"title":                "position",
	"position_code":        "position_code",
	"grade":                "grade",
	"grade_code":           "grade_code",
	"employment_type":      "employment_type",
	"employment type":      "employment_type",
	"employment_type_code": "employment_type_code",
	"top_unit":             "top_unit",
	"division":             "top_unit",
	"top_unit_code":        "top_unit_code",
	"division_code":        "top_unit_code",
	"mid_unit":             "mid_unit",
	"department":           "mid_unit",
	"leaf_unit":            "leaf_unit",
	"section":              "leaf_unit",
	"joined_on":            "joined_on",
	"hire date":            "joined_on",
	"born_on":              "born_on",
	"birth date":           "born_on",
}

// Parser turns uploaded roster files into import rows.
type Parser struct{}

// NewParser constructs a parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse reads the file and returns one row per non-empty data line. The
// first non-empty line is the header; unknown columns are ignored so rosters
// can carry extra columns without failing.
func (p *Parser) Parse(fileName string, data io.Reader) ([]domain.ImportRow, error) {
	payload, err := io.ReadAll(bufio.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	var records [][]string
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm":
		records, err = readExcel(payload)
	case ".csv":
		records, err = readCSV(payload)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	return rowsFromRecords(records)
}

func readExcel(payload []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}
	return rows, nil
}

func readCSV(payload []byte) ([][]string, error) {
	payload = bytes.TrimPrefix(payload, byteOrderMark)
	reader := csv.NewReader(bytes.NewReader(payload))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return records, nil
}

func rowsFromRecords(records [][]string) ([]domain.ImportRow, error) {
	fieldByCol := map[int]string{}
	var rows []domain.ImportRow
	headerSeen := false

	for _, record := range records {
		if isEmptyRow(record) {
			continue
		}
		if !headerSeen {
			for idx, label := range record {
				key := strings.ToLower(strings.TrimSpace(label))
				if field, ok := columnAliases[key]; ok {
					fieldByCol[idx] = field
				}
			}
			if len(fieldByCol) == 0 {
				return nil, errors.New("header row has no recognized columns")
			}
			headerSeen = true
			continue
		}
		rows = append(rows, rowFromRecord(record, fieldByCol))
	}

	if !headerSeen {
		return nil, errors.New("no rows found in file")
	}
	return rows, nil
}

func rowFromRecord(record []string, fieldByCol map[int]string) domain.ImportRow {
	var row domain.ImportRow
	for idx, value := range record {
		field, ok := fieldByCol[idx]
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch field {
		case "employee_no":
			row.EmployeeNo = value
		case "name":
			row.Name = value
		case "name_kana":
			row.NameKana = value
		case "email":
			row.Email = value
		case "phone":
			row.Phone = value
		case "position":
			row.Position = value
		case "position_code":
			row.PositionCode = value
		case "grade":
			row.Grade = value
		case "grade_code":
			row.GradeCode = value
		case "employment_type":
			row.EmploymentType = value
		case "employment_type_code":
			row.EmploymentTypeCode = value
		case "top_unit":
			row.TopUnit = value
		case "top_unit_code":
			row.TopUnitCode = value
		case "mid_unit":
			row.MidUnit = value
		case "leaf_unit":
			row.LeafUnit = value
		case "joined_on":
			row.JoinedOn = parseDate(value)
		case "born_on":
			row.BornOn = parseDate(value)
		}
	}
	return row
}

func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

func isEmptyRow(record []string) bool {
	for _, value := range record {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

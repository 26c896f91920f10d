package service

import (
	"fmt"
	"time"

	"github.com/wildobs/submission-services/constants"
)

// CellValue is a typed spreadsheet cell. Kind is one of the
// constants.CellType* values and selects which of the other fields
// carries the value. Raw always holds the original string form.
type CellValue struct {
	Kind string    `json:"kind"`
	Raw  string    `json:"raw"`
	Str  string    `json:"str,omitempty"`
	Num  float64   `json:"num,omitempty"`
	Date time.Time `json:"date,omitempty"`
	Bool bool      `json:"bool,omitempty"`
}

func StringCell(s string) CellValue {
	return CellValue{Kind: constants.CellTypeString, Raw: s, Str: s}
}

func NumberCell(raw string, n float64) CellValue {
	return CellValue{Kind: constants.CellTypeNumber, Raw: raw, Num: n}
}

func DateCell(raw string, t time.Time) CellValue {
	return CellValue{Kind: constants.CellTypeDate, Raw: raw, Date: t}
}

func BoolCell(raw string, b bool) CellValue {
	return CellValue{Kind: constants.CellTypeBool, Raw: raw, Bool: b}
}

func (c CellValue) IsEmpty() bool {
	return c.Raw == ""
}

// String renders the cell in a stable form regardless of kind, which
// keeps transformed output deterministic.
func (c CellValue) String() string {
	switch c.Kind {
	case constants.CellTypeNumber:
		return fmt.Sprintf("%g", c.Num)
	case constants.CellTypeDate:
		return c.Date.Format("2006-01-02")
	case constants.CellTypeBool:
		return fmt.Sprintf("%t", c.Bool)
	default:
		return c.Str
	}
}

// ValidatedRow maps column names to typed cells for one data row.
type ValidatedRow map[string]CellValue

// ValidatedSheet is one sheet of a validated submission.
type ValidatedSheet struct {
	Name    string         `json:"name"`
	Headers []string       `json:"headers"`
	Rows    []ValidatedRow `json:"rows"`
}

// ValidatedModel is the in-memory representation of a submission
// after validation. If Issues is non-empty the model is terminal and
// must not be transformed.
type ValidatedModel struct {
	SubmissionID string             `json:"submission_id"`
	Sheets       []*ValidatedSheet  `json:"sheets"`
	Issues       []*ValidationIssue `json:"issues"`
}

func NewValidatedModel(submissionID string) *ValidatedModel {
	return &ValidatedModel{
		SubmissionID: submissionID,
		Sheets:       make([]*ValidatedSheet, 0),
		Issues:       make([]*ValidationIssue, 0),
	}
}

func (m *ValidatedModel) AddIssue(issue *ValidationIssue) {
	m.Issues = append(m.Issues, issue)
}

// IsValid reports whether the model passed validation. An empty issue
// list is the only success signal.
func (m *ValidatedModel) IsValid() bool {
	return len(m.Issues) == 0
}

func (m *ValidatedModel) Sheet(name string) *ValidatedSheet {
	for _, sheet := range m.Sheets {
		if sheet.Name == name {
			return sheet
		}
	}
	return nil
}

func (m *ValidatedModel) RowCount() int {
	count := 0
	for _, sheet := range m.Sheets {
		count += len(sheet.Rows)
	}
	return count
}

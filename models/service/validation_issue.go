package service

import "fmt"

// ValidationIssue describes one data-quality problem found while
// validating a submission. Issues are values, not errors: the
// validator collects every issue in a file rather than stopping at
// the first, and an empty issue list is the sole success signal.
type ValidationIssue struct {
	// Type is one of the constants.Msg* message types.
	Type string `json:"type"`

	// Description is a human-readable account of the problem.
	Description string `json:"description"`

	// Sheet, Row and Column address the offending cell. Row is
	// 1-based and counts data rows (the header row is row 0). Row 0
	// with an empty Column means the issue is sheet-level; an empty
	// Sheet means it is file-level.
	Sheet  string `json:"sheet,omitempty"`
	Row    int    `json:"row,omitempty"`
	Column string `json:"column,omitempty"`

	// Code is an optional machine-readable error code.
	Code string `json:"code,omitempty"`
}

func NewIssue(msgType, description string) *ValidationIssue {
	return &ValidationIssue{
		Type:        msgType,
		Description: description,
	}
}

func NewCellIssue(msgType, description, sheet string, row int, column string) *ValidationIssue {
	return &ValidationIssue{
		Type:        msgType,
		Description: description,
		Sheet:       sheet,
		Row:         row,
		Column:      column,
	}
}

// Address returns a short human-readable location for this issue,
// e.g. "observations!B12", or "observations" for sheet-level issues.
func (issue *ValidationIssue) Address() string {
	if issue.Sheet == "" {
		return "(file)"
	}
	if issue.Column == "" && issue.Row == 0 {
		return issue.Sheet
	}
	return fmt.Sprintf("%s!%s%d", issue.Sheet, issue.Column, issue.Row)
}

func (issue *ValidationIssue) String() string {
	return fmt.Sprintf("[%s] %s: %s", issue.Type, issue.Address(), issue.Description)
}

package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wildobs/submission-services/constants"
	"github.com/wildobs/submission-services/models/service"
)

func TestIssueAddress(t *testing.T) {
	cell := service.NewCellIssue(constants.MsgOutOfRange,
		"Value 95 is above the maximum 90", "sites", 12, "latitude")
	assert.Equal(t, "sites!latitude12", cell.Address())

	sheetLevel := service.NewCellIssue(constants.MsgMissingRequiredSheet,
		"Missing required sheet sites", "sites", 0, "")
	assert.Equal(t, "sites", sheetLevel.Address())

	fileLevel := service.NewIssue(constants.MsgEmptySubmission,
		"Submission contains no data rows")
	assert.Equal(t, "(file)", fileLevel.Address())
}

func TestIssueString(t *testing.T) {
	issue := service.NewCellIssue(constants.MsgInvalidValue,
		`Value "soon" is not a recognizable date`, "observations", 3, "survey_date")
	assert.Equal(t,
		`[InvalidValue] observations!survey_date3: Value "soon" is not a recognizable date`,
		issue.String())
}

func TestErrorGroupFromIssues(t *testing.T) {
	issues := []*service.ValidationIssue{
		service.NewCellIssue(constants.MsgMissingRequiredField,
			"Required value survey_date is missing", "observations", 2, "survey_date"),
		service.NewIssue(constants.MsgEmptySubmission, "Submission contains no data rows"),
	}
	group := service.ErrorGroupFromIssues(constants.StatusFailedValidation, issues)
	assert.Equal(t, constants.StatusFailedValidation, group.StatusType)
	assert.Equal(t, 2, len(group.Messages))
	assert.Equal(t, constants.MsgMissingRequiredField, group.Messages[0].Type)
	assert.Contains(t, group.Messages[0].Description, "observations!survey_date2")
}

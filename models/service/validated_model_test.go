package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/wildobs/submission-services/constants"
	"github.com/wildobs/submission-services/models/service"
)

func TestCellValueString(t *testing.T) {
	assert.Equal(t, "moose", service.StringCell("moose").String())
	assert.Equal(t, "4", service.NumberCell("4", 4).String())
	assert.Equal(t, "61.2", service.NumberCell("61.2", 61.2).String())

	day, _ := time.Parse("2006-01-02", "2024-01-15")
	assert.Equal(t, "2024-01-15", service.DateCell("2024-01-15", day).String())

	assert.Equal(t, "true", service.BoolCell("TRUE", true).String())
}

func TestCellValueIsEmpty(t *testing.T) {
	assert.True(t, service.StringCell("").IsEmpty())
	assert.False(t, service.StringCell("x").IsEmpty())
	assert.False(t, service.NumberCell("0", 0).IsEmpty())
}

func TestValidatedModel(t *testing.T) {
	model := service.NewValidatedModel("sub-1")
	assert.True(t, model.IsValid())
	assert.Equal(t, 0, model.RowCount())

	model.Sheets = append(model.Sheets, &service.ValidatedSheet{
		Name: "observations",
		Rows: []service.ValidatedRow{
			{"count": service.NumberCell("4", 4)},
			{"count": service.NumberCell("2", 2)},
		},
	})
	assert.Equal(t, 2, model.RowCount())
	assert.NotNil(t, model.Sheet("observations"))
	assert.Nil(t, model.Sheet("sites"))

	model.AddIssue(service.NewIssue(constants.MsgEmptySubmission, "no rows"))
	assert.False(t, model.IsValid())
	assert.Equal(t, 1, len(model.Issues))
}

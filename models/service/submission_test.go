package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wildobs/submission-services/constants"
	"github.com/wildobs/submission-services/models/service"
)

func TestNewSubmission(t *testing.T) {
	sub := service.NewSubmission(
		"3f0e8f6a-9c1f-4f39-a4f1-1f6f1a3c9d55",
		constants.SourceSpreadsheet,
		"uploads",
		"3f0e8f6a-9c1f-4f39-a4f1-1f6f1a3c9d55/moose.csv",
		"moose.csv",
		2048)
	assert.Equal(t, constants.SourceSpreadsheet, sub.Source)
	assert.Equal(t, "moose.csv", sub.FileName)
	assert.EqualValues(t, 2048, sub.Size)
	assert.NotNil(t, sub.SpeciesIDs)
}

func TestSubmissionJSON(t *testing.T) {
	sub := service.NewSubmission(
		"3f0e8f6a-9c1f-4f39-a4f1-1f6f1a3c9d55",
		constants.SourceDarwinCore,
		"uploads",
		"3f0e8f6a-9c1f-4f39-a4f1-1f6f1a3c9d55/survey.zip",
		"survey.zip",
		4096)
	sub.TemplateName = "moose_aerial"
	sub.TemplateVersion = "2.0"
	sub.SpeciesIDs = []string{"M-ALAM", "M-RATA"}

	jsonData, err := sub.ToJSON()
	require.NoError(t, err)

	restored, err := service.SubmissionFromJSON(jsonData)
	require.NoError(t, err)
	assert.Equal(t, sub, restored)
}

func TestSubmissionFromBadJSON(t *testing.T) {
	_, err := service.SubmissionFromJSON("this is not json")
	assert.Error(t, err)
}

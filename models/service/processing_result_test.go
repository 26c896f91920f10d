package service_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wildobs/submission-services/constants"
	"github.com/wildobs/submission-services/models/service"
)

const resultSubID = "3f0e8f6a-9c1f-4f39-a4f1-1f6f1a3c9d55"

func TestProcessingResultLifecycle(t *testing.T) {
	result := service.NewProcessingResult(constants.TopicProcessSubmission)
	assert.False(t, result.Started())
	assert.False(t, result.Finished())
	assert.False(t, result.Succeeded())

	result.Start()
	assert.True(t, result.Started())

	result.Finish()
	assert.True(t, result.Finished())
	assert.True(t, result.Succeeded())
	assert.True(t, result.RunTime() >= 0)
}

func TestProcessingResultErrors(t *testing.T) {
	result := service.NewProcessingResult(constants.TopicProcessSubmission)
	result.AddError(service.NewProcessingError(
		resultSubID, "validate", "connection reset", false))
	assert.True(t, result.HasErrors())
	assert.False(t, result.HasFatalErrors())

	result.AddError(service.NewProcessingError(
		resultSubID, "scrape", "taxon id cannot be resolved", true))
	assert.True(t, result.HasFatalErrors())
	assert.Equal(t, "taxon id cannot be resolved", result.FatalErrorMessage())

	result.Finish()
	assert.False(t, result.Succeeded())

	result.Reset()
	assert.False(t, result.HasErrors())
	assert.Equal(t, constants.TopicProcessSubmission, result.Operation)
}

func TestProcessingResultErrorCap(t *testing.T) {
	result := service.NewProcessingResult(constants.TopicProcessSubmission)
	for i := 0; i < 40; i++ {
		result.AddError(service.NewProcessingError(
			resultSubID, "validate", fmt.Sprintf("transient error %d", i), false))
	}
	// Non-fatal errors stop accumulating at thirty...
	assert.Equal(t, 30, len(result.Errors))

	// ...but fatal errors are always recorded.
	result.AddError(service.NewProcessingError(
		resultSubID, "validate", "fatal", true))
	assert.Equal(t, 31, len(result.Errors))
	assert.True(t, result.HasFatalErrors())
}

func TestProcessingResultJSON(t *testing.T) {
	result := service.NewProcessingResult(constants.TopicProcessArchive)
	result.Attempt = 2
	result.Start()
	result.AddError(service.NewProcessingError(
		resultSubID, "scrape", "connection reset", false))
	result.Finish()

	jsonData, err := result.ToJSON()
	require.NoError(t, err)

	restored, err := service.ProcessingResultFromJSON(jsonData)
	require.NoError(t, err)
	assert.Equal(t, 2, restored.Attempt)
	assert.Equal(t, constants.TopicProcessArchive, restored.Operation)
	assert.Equal(t, 1, len(restored.Errors))

	// The restored result must be fully usable, including the
	// mutex-guarded operations.
	restored.AddError(service.NewProcessingError(resultSubID, "scrape", "again", false))
	assert.Equal(t, 2, len(restored.Errors))
}

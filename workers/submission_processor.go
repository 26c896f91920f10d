package workers

import (
	"context"
	"time"

	"github.com/wildobs/submission-services/constants"
	"github.com/wildobs/submission-services/models/common"
	"github.com/wildobs/submission-services/pipeline"
)

// SubmissionProcessor consumes the process_submission topic and runs
// the full spreadsheet pipeline on each submission: template
// validation, transformation, Darwin Core validation, and scraping.
type SubmissionProcessor struct {
	*Base
	pipeline *pipeline.Pipeline
}

func NewSubmissionProcessor(ctx *common.Context, bufSize, numWorkers, maxAttempts int) *SubmissionProcessor {
	settings := &Settings{
		ChannelBufferSize: bufSize,
		MaxAttempts:       maxAttempts,
		NSQChannel:        constants.TopicProcessSubmission + "_worker_chan",
		NSQTopic:          constants.TopicProcessSubmission,
		NumberOfWorkers:   numWorkers,
		RequeueTimeout:    1 * time.Minute,
	}
	processor := &SubmissionProcessor{
		pipeline: pipeline.NewPipelineFromContext(ctx),
	}
	processor.Base = NewBase(ctx, processor, settings)
	return processor
}

func (p *SubmissionProcessor) Operation() string {
	return constants.TopicProcessSubmission
}

func (p *SubmissionProcessor) Run(ctx context.Context, submissionID string) error {
	return p.pipeline.ProcessSubmission(ctx, submissionID)
}

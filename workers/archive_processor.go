package workers

import (
	"context"
	"time"

	"github.com/wildobs/submission-services/constants"
	"github.com/wildobs/submission-services/models/common"
	"github.com/wildobs/submission-services/pipeline"
)

// ArchiveProcessor consumes the process_archive topic. Submissions on
// this topic are pre-built Darwin Core Archives, so there is no
// template to validate or transform; the archive is checked against
// the core schema and scraped directly.
type ArchiveProcessor struct {
	*Base
	pipeline *pipeline.Pipeline
}

func NewArchiveProcessor(ctx *common.Context, bufSize, numWorkers, maxAttempts int) *ArchiveProcessor {
	settings := &Settings{
		ChannelBufferSize: bufSize,
		MaxAttempts:       maxAttempts,
		NSQChannel:        constants.TopicProcessArchive + "_worker_chan",
		NSQTopic:          constants.TopicProcessArchive,
		NumberOfWorkers:   numWorkers,
		RequeueTimeout:    1 * time.Minute,
	}
	processor := &ArchiveProcessor{
		pipeline: pipeline.NewPipelineFromContext(ctx),
	}
	processor.Base = NewBase(ctx, processor, settings)
	return processor
}

func (p *ArchiveProcessor) Operation() string {
	return constants.TopicProcessArchive
}

func (p *ArchiveProcessor) Run(ctx context.Context, submissionID string) error {
	return p.pipeline.ProcessArchive(ctx, submissionID)
}

package workers

import (
	"time"

	"github.com/wildobs/submission-services/constants"
	"github.com/wildobs/submission-services/ledger"
	"github.com/wildobs/submission-services/models/common"
	"github.com/wildobs/submission-services/models/service"
)

// SubmissionQueue scans the ledger for submissions that are still in
// Submitted state past a grace period and re-enqueues them. This
// covers intake messages that were lost, and workers that died after
// claiming a message; re-enqueueing is safe because the pipeline
// writes a fresh occurrence generation on every run.
type SubmissionQueue struct {
	Context *common.Context
	Ledger  *ledger.Ledger
}

func NewSubmissionQueue(ctx *common.Context) *SubmissionQueue {
	return &SubmissionQueue{
		Context: ctx,
		Ledger:  ledger.New(ctx.DB, ctx.Logger),
	}
}

func (q *SubmissionQueue) RunOnce() {
	q.logStartup()
	q.run()
}

func (q *SubmissionQueue) RunAsService() {
	q.logStartup()
	for {
		q.run()
		time.Sleep(q.Context.Config.QueueInterval)
	}
}

func (q *SubmissionQueue) logStartup() {
	q.Context.Logger.Infof("Starting submission queue scanner. Scan interval: %s, max age: %s",
		q.Context.Config.QueueInterval, q.Context.Config.QueueMaxAge)
}

func (q *SubmissionQueue) run() {
	cutoff := time.Now().UTC().Add(-q.Context.Config.QueueMaxAge)
	submissions, err := q.Ledger.GetUnprocessedSubmissions(cutoff)
	if err != nil {
		q.Context.Logger.Errorf("Error scanning for unprocessed submissions: %v", err)
		return
	}
	q.Context.Logger.Infof("Found %d unprocessed submissions", len(submissions))
	for _, sub := range submissions {
		q.enqueue(sub)
	}
}

func (q *SubmissionQueue) enqueue(sub *service.Submission) bool {
	topic := constants.TopicProcessSubmission
	if sub.Source == constants.SourceDarwinCore {
		topic = constants.TopicProcessArchive
	}
	if err := q.Context.NSQClient.Enqueue(topic, sub.ID); err != nil {
		q.Context.Logger.Errorf("Error adding submission %s (%s) to NSQ topic %s: %v",
			sub.ID, sub.FileName, topic, err)
		return false
	}
	q.Context.Logger.Infof("Added submission %s (%s) to NSQ topic %s",
		sub.ID, sub.FileName, topic)
	return true
}

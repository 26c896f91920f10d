package workers

import (
	"time"

	"github.com/nsqio/go-nsq"
	"github.com/wildobs/submission-services/models/service"
)

// Task carries one submission through a worker's channels.
type Task struct {
	// SubmissionID is the UUID of the submission being processed.
	SubmissionID string

	// NSQMessage is the NSQ message the worker is processing. Its
	// body is the submission UUID.
	NSQMessage *nsq.Message

	// Result accumulates attempt counts and processing errors for
	// this submission and stage. It lives in Redis between attempts.
	Result *service.ProcessingResult

	nsqStopChannel chan bool

	// For testing
	nsqStartCalled bool

	// For testing
	tickerStopped bool
}

// NSQStart disables auto-response and touches the NSQ message every
// two minutes while the submission is in process, so large workbooks
// can take longer than NSQ's message timeout without being requeued
// under us.
func (task *Task) NSQStart() {
	task.NSQMessage.DisableAutoResponse()
	ticker := time.NewTicker(2 * time.Minute)
	stopChannel := make(chan bool)
	go func() {
		for {
			select {
			case <-ticker.C:
				task.NSQMessage.Touch()
			case <-stopChannel:
				ticker.Stop()
				task.tickerStopped = true
				return
			}
		}
	}()
	task.nsqStartCalled = true
	task.nsqStopChannel = stopChannel
}

// NSQRequeue requeues the message with the specified delay and stops
// sending touches.
func (task *Task) NSQRequeue(delay time.Duration) {
	task.nsqStopChannel <- true
	task.NSQMessage.Requeue(delay)
}

// NSQFinish finishes the message and stops sending touches.
func (task *Task) NSQFinish() {
	task.nsqStopChannel <- true
	task.NSQMessage.Finish()
}

// StartCalled returns true if NSQStart() has been called on this
// task. This method exists for testing purposes.
func (task *Task) StartCalled() bool {
	return task.nsqStartCalled
}

// TickerStopped returns true if either NSQFinish() or NSQRequeue()
// has been called. This method exists for testing purposes.
func (task *Task) TickerStopped() bool {
	return task.tickerStopped
}

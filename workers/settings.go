package workers

import (
	"encoding/json"
	"time"
)

// Settings contains settings for a pipeline worker.
type Settings struct {
	// ChannelBufferSize is the size of the buffer for the
	// ProcessChannel, SuccessChannel, ErrorChannel,
	// and FatalErrorChannel.
	ChannelBufferSize int

	// MaxAttempts is the maximum number of times the worker should
	// attempt a submission before giving up. This applies only to
	// attempts that fail from transient errors; fatal errors stop
	// retries immediately.
	MaxAttempts int

	// NSQChannel is the NSQ channel the worker subscribes to.
	NSQChannel string

	// NSQTopic is the NSQ topic the worker subscribes to.
	NSQTopic string

	// NumberOfWorkers is the number of goroutines to spin up to run
	// the pipeline. Each one holds a database transaction open for
	// the duration of a run, so this should stay well below the
	// Postgres connection limit.
	NumberOfWorkers int

	// RequeueTimeout is the delay set on the NSQ requeue after a
	// submission fails with a transient error.
	RequeueTimeout time.Duration
}

func (settings *Settings) ToJSON() string {
	data, _ := json.Marshal(settings)
	return string(data)
}

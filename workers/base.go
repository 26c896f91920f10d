package workers

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nsqio/go-nsq"
	"github.com/wildobs/submission-services/models/common"
	"github.com/wildobs/submission-services/models/service"
)

// Runnable is one pipeline entry point: the spreadsheet path or the
// archive path. The pipeline itself records submission statuses in
// the ledger; workers only manage delivery, retries, and the interim
// state in Redis.
type Runnable interface {
	// Operation names the stage for logging and Redis bookkeeping.
	Operation() string
	// Run processes one submission end to end.
	Run(ctx context.Context, submissionID string) error
}

// Base contains the structures and message handling common to all
// workers. Concrete workers supply a Runnable and Settings.
type Base struct {

	// Context contains connections to NSQ, Redis, Postgres and S3.
	Context *common.Context

	// Processor does the actual work for one submission.
	Processor Runnable

	// Settings controls topics, concurrency and retry behavior.
	Settings *Settings

	// ItemsInProcess tracks submission ids the worker is currently
	// processing. NSQ does not dedupe messages, so the worker must.
	ItemsInProcess *service.RingList

	// ProcessChannel is where the work actually happens.
	ProcessChannel chan *Task

	// SuccessChannel cleans up after submissions that processed
	// without errors.
	SuccessChannel chan *Task

	// ErrorChannel handles submissions that failed with transient
	// errors. These are requeued until MaxAttempts runs out.
	ErrorChannel chan *Task

	// FatalErrorChannel handles submissions that failed with errors
	// that will not succeed on retry. The pipeline has already
	// recorded the terminal status; the worker just stops.
	FatalErrorChannel chan *Task

	// NSQConsumer implements HandleMessage to receive messages.
	NSQConsumer *nsq.Consumer
}

// NewBase sets up a worker's channels and starts its goroutines. The
// worker does not receive messages until RegisterAsNsqConsumer is
// called.
func NewBase(ctx *common.Context, processor Runnable, settings *Settings) *Base {
	base := &Base{
		Context:           ctx,
		Processor:         processor,
		Settings:          settings,
		ItemsInProcess:    service.NewRingList(settings.ChannelBufferSize * 2),
		ProcessChannel:    make(chan *Task, settings.ChannelBufferSize),
		SuccessChannel:    make(chan *Task, settings.ChannelBufferSize),
		ErrorChannel:      make(chan *Task, settings.ChannelBufferSize),
		FatalErrorChannel: make(chan *Task, settings.ChannelBufferSize),
	}
	for i := 0; i < settings.NumberOfWorkers; i++ {
		go base.ProcessItems()
	}
	go base.ProcessSuccessChannel()
	go base.ProcessErrorChannel()
	go base.ProcessFatalErrorChannel()
	return base
}

// RegisterAsNsqConsumer registers this worker as an NSQ consumer on
// Settings.NSQTopic and Settings.NSQChannel. As soon as you call
// this, the worker starts handling messages if any are available.
func (b *Base) RegisterAsNsqConsumer() error {
	config := nsq.NewConfig()
	config.Set("heartbeat_interval", "10s")
	config.Set("max_in_flight", b.Settings.ChannelBufferSize)
	consumer, err := nsq.NewConsumer(b.Settings.NSQTopic, b.Settings.NSQChannel, config)
	if err != nil {
		return err
	}
	b.NSQConsumer = consumer
	b.NSQConsumer.AddHandler(b)
	if err = b.NSQConsumer.ConnectToNSQLookupd(b.Context.Config.NsqLookupd); err != nil {
		return err
	}
	b.Context.Logger.Infof("Registered as NSQ consumer on %s/%s",
		b.Settings.NSQTopic, b.Settings.NSQChannel)
	return nil
}

// HandleMessage fishes the submission UUID out of the NSQ message,
// decides whether to work on it, and pushes a Task into the
// ProcessChannel.
func (b *Base) HandleMessage(message *nsq.Message) error {
	submissionID := strings.TrimSpace(string(message.Body))
	if _, err := uuid.Parse(submissionID); err != nil {
		// Garbage message. Returning an error would make NSQ requeue
		// it, and it will never get better.
		b.Context.Logger.Errorf("Discarding message with invalid submission id %q: %v",
			submissionID, err)
		return nil
	}

	if b.ItemsInProcess.Contains(submissionID) {
		b.Context.Logger.Infof("Skipping submission %s: this worker is already working on it",
			submissionID)
		return nil
	}

	result := b.GetProcessingResult(submissionID)
	if result.Attempt >= b.Settings.MaxAttempts {
		b.Context.Logger.Warningf(
			"Skipping submission %s: already attempted %d of %d times",
			submissionID, result.Attempt, b.Settings.MaxAttempts)
		return nil
	}

	task := &Task{
		SubmissionID: submissionID,
		NSQMessage:   message,
		Result:       result,
	}
	b.MarkAsStarted(task)
	b.ItemsInProcess.Add(submissionID)
	b.ProcessChannel <- task

	// Tell NSQ we're working on this.
	return nil
}

// ProcessItems runs the processor on tasks from the ProcessChannel
// and routes each task to the success, error, or fatal channel.
func (b *Base) ProcessItems() {
	for task := range b.ProcessChannel {
		b.processItem(task)
	}
}

func (b *Base) processItem(task *Task) {
	b.Context.Logger.Infof("Submission %s is in ProcessChannel", task.SubmissionID)
	err := b.Processor.Run(context.Background(), task.SubmissionID)
	if err != nil {
		task.Result.AddError(service.NewProcessingError(
			task.SubmissionID,
			b.Processor.Operation(),
			err.Error(),
			isFatal(err),
		))
	}

	if task.Result.HasFatalErrors() {
		b.FatalErrorChannel <- task
	} else if task.Result.HasErrors() {
		b.ErrorChannel <- task
	} else {
		b.SuccessChannel <- task
	}
}

// isFatal says whether an error can possibly succeed on retry.
// Unresolvable references, malformed rule documents and missing
// records stay broken no matter how many times we run them.
func isFatal(err error) bool {
	precondition := &common.PreconditionError{}
	malformed := &common.MalformedInputError{}
	scrape := &common.ScrapeError{}
	return errors.As(err, &precondition) ||
		errors.As(err, &malformed) ||
		errors.As(err, &scrape) ||
		common.IsNotFoundError(err)
}

func (b *Base) ProcessSuccessChannel() {
	for task := range b.SuccessChannel {
		b.Context.Logger.Infof("Submission %s succeeded", task.SubmissionID)
		task.Result.Finish()
		// Processing is done, so clear the interim state instead of
		// leaving orphan records in Redis.
		if _, err := b.Context.RedisClient.SubmissionDelete(task.SubmissionID); err != nil {
			b.Context.Logger.Errorf(
				"Could not delete interim state for submission %s: %v",
				task.SubmissionID, err)
		}
		b.FinishItem(task)
		task.NSQFinish()
	}
}

func (b *Base) ProcessErrorChannel() {
	for task := range b.ErrorChannel {
		lastError := ""
		if len(task.Result.Errors) > 0 {
			lastError = task.Result.Errors[len(task.Result.Errors)-1].Message
		}
		b.Context.Logger.Warningf("Submission %s had a transient error: %s",
			task.SubmissionID, lastError)
		task.Result.Finish()
		b.SaveProcessingResult(task)
		b.FinishItem(task)
		if task.Result.Attempt >= b.Settings.MaxAttempts {
			b.Context.Logger.Errorf(
				"Giving up on submission %s after %d attempts",
				task.SubmissionID, task.Result.Attempt)
			task.NSQFinish()
		} else {
			task.NSQRequeue(b.Settings.RequeueTimeout)
		}
	}
}

func (b *Base) ProcessFatalErrorChannel() {
	for task := range b.FatalErrorChannel {
		b.Context.Logger.Errorf("Submission %s failed: %s",
			task.SubmissionID, task.Result.FatalErrorMessage())
		task.Result.Finish()
		b.SaveProcessingResult(task)
		b.FinishItem(task)
		task.NSQFinish()
	}
}

// GetProcessingResult returns the ProcessingResult for a submission
// and this worker's operation. If one exists in Redis from a prior
// attempt, it returns that; otherwise it creates a new one.
func (b *Base) GetProcessingResult(submissionID string) *service.ProcessingResult {
	result, err := b.Context.RedisClient.ProcessingResultGet(submissionID, b.Processor.Operation())
	if err != nil {
		// First attempt.
		result = service.NewProcessingResult(b.Processor.Operation())
	}
	return result
}

// SaveProcessingResult saves a task's result to Redis, trying three
// times in case Redis is busy.
func (b *Base) SaveProcessingResult(task *Task) {
	for i := 0; i < 3; i++ {
		err := b.Context.RedisClient.ProcessingResultSave(task.SubmissionID, task.Result)
		if err == nil {
			return
		}
		if i == 2 {
			b.Context.Logger.Errorf(
				"Error saving result for submission %s: %v", task.SubmissionID, err)
			return
		}
		time.Sleep(250 * time.Millisecond)
	}
}

// MarkAsStarted resets the task's result for a fresh attempt, saves
// it to Redis, and tells NSQ we own the message.
func (b *Base) MarkAsStarted(task *Task) {
	task.Result.Reset()
	task.Result.Attempt++
	task.Result.Start()
	task.Result.Host, _ = os.Hostname()
	task.Result.Pid = os.Getpid()
	b.SaveProcessingResult(task)
	task.NSQStart()
}

// FinishItem removes the task's submission from the in-process list.
func (b *Base) FinishItem(task *Task) {
	b.ItemsInProcess.Del(task.SubmissionID)
}

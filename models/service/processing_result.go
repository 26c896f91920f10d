package service

import (
	"encoding/json"
	"os"
	"strings"
	"sync"
	"time"
)

type ProcessingResult struct {
	// Attempt is the number of the attempt to process this submission.
	Attempt int `json:"attempt"`

	// Operation is the pipeline stage this result describes:
	// validate, transform, scrape, or the whole-pipeline "process".
	Operation string `json:"operation"`

	// Host is the name of the host on which the worker is running.
	Host string `json:"host"`

	// Pid is the pid of the worker doing this work.
	Pid int `json:"pid"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Errors is a list of ProcessingError objects describing things
	// that went wrong. Don't write to this directly; it's public only
	// so it serializes to JSON. Access is locked with a mutex.
	Errors []*ProcessingError `json:"errors"`

	mutex *sync.RWMutex
}

func NewProcessingResult(operation string) *ProcessingResult {
	hostname, _ := os.Hostname()
	return &ProcessingResult{
		Operation: operation,
		Host:      hostname,
		Pid:       os.Getpid(),
		Errors:    make([]*ProcessingError, 0),
		mutex:     &sync.RWMutex{},
	}
}

func (result *ProcessingResult) Start() {
	result.StartedAt = time.Now().UTC()
}

func (result *ProcessingResult) Started() bool {
	return !result.StartedAt.IsZero()
}

func (result *ProcessingResult) Finish() {
	result.FinishedAt = time.Now().UTC()
}

func (result *ProcessingResult) Finished() bool {
	return !result.FinishedAt.IsZero()
}

func (result *ProcessingResult) RunTime() time.Duration {
	startTime := result.StartedAt
	if startTime.IsZero() {
		return time.Duration(0)
	}
	endTime := result.FinishedAt
	if endTime.IsZero() {
		endTime = time.Now()
	}
	return endTime.Sub(startTime)
}

func (result *ProcessingResult) Succeeded() bool {
	result.mutex.RLock()
	succeeded := result.Finished() && len(result.Errors) == 0
	result.mutex.RUnlock()
	return succeeded
}

// AddError adds a ProcessingError to the result. The total number of
// errors is capped at 30, unless the error being added is fatal. The
// cap exists because a flaky network connection can generate the same
// transient error hundreds of times and we don't need to serialize
// them all. Fatal errors are always added.
func (result *ProcessingResult) AddError(err *ProcessingError) {
	if len(result.Errors) > 29 && !err.IsFatal {
		return
	}
	result.mutex.Lock()
	result.Errors = append(result.Errors, err)
	result.mutex.Unlock()
}

func (result *ProcessingResult) ClearErrors() {
	result.mutex.Lock()
	result.Errors = make([]*ProcessingError, 0)
	result.mutex.Unlock()
}

// Reset clears everything but the attempt number and operation name.
func (result *ProcessingResult) Reset() {
	result.Host = ""
	result.Pid = 0
	result.StartedAt = time.Time{}
	result.FinishedAt = time.Time{}
	result.ClearErrors()
}

func (result *ProcessingResult) HasErrors() bool {
	result.mutex.RLock()
	hasErrors := len(result.Errors) > 0
	result.mutex.RUnlock()
	return hasErrors
}

func (result *ProcessingResult) FatalErrors() (errors []*ProcessingError) {
	result.mutex.RLock()
	for _, err := range result.Errors {
		if err.IsFatal {
			errors = append(errors, err)
		}
	}
	result.mutex.RUnlock()
	return errors
}

func (result *ProcessingResult) HasFatalErrors() bool {
	return len(result.FatalErrors()) > 0
}

// FatalErrorMessage returns all fatal error messages as a single
// pipe-delimited string.
func (result *ProcessingResult) FatalErrorMessage() string {
	errors := result.FatalErrors()
	messages := make([]string, len(errors))
	for i, err := range errors {
		messages[i] = err.Message
	}
	return strings.Join(messages, " | ")
}

// ProcessingResultFromJSON converts the JSON representation of a
// ProcessingResult into a full-fledged object, initializing the
// internal mutex that a plain json.Unmarshal would leave nil.
func ProcessingResultFromJSON(jsonData string) (*ProcessingResult, error) {
	result := &ProcessingResult{}
	err := json.Unmarshal([]byte(jsonData), result)
	if err != nil {
		return nil, err
	}
	result.mutex = &sync.RWMutex{}
	return result, nil
}

func (result *ProcessingResult) ToJSON() (string, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

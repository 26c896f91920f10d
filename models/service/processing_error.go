package service

import (
	"fmt"
	"runtime"
)

// ProcessingError describes something that went wrong while processing
// a submission. Fatal errors are those which will fail again on retry
// (a missing rule document, an unresolvable taxon). Non-fatal errors
// are transient, typically network or storage hiccups, and a later
// attempt may succeed.
type ProcessingError struct {
	SubmissionID string
	Identifier   string
	Message      string
	Source       string
	IsFatal      bool
}

func NewProcessingError(submissionID, identifier, message string, isFatal bool) *ProcessingError {
	_, filename, line, ok := runtime.Caller(1)
	source := "unknown:0"
	if ok {
		source = fmt.Sprintf("%s:%d", filename, line)
	}
	return &ProcessingError{
		SubmissionID: submissionID,
		Identifier:   identifier,
		Message:      message,
		Source:       source,
		IsFatal:      isFatal,
	}
}

func (e *ProcessingError) Error() string {
	severity := "non-fatal"
	if e.IsFatal {
		severity = "fatal"
	}
	return fmt.Sprintf("(submission %s) (message: %s) (severity: %s) "+
		"(identifier: %s) (source: %s)", e.SubmissionID, e.Message,
		severity, e.Identifier, e.Source)
}

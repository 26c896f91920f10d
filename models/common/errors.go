package common

import (
	"errors"
	"fmt"
	"runtime"
)

type DetailedError interface {
	Detail() string
}

// Error is a custom error type that includes some additional fields
// to help us debug. See the Detail method.
type Error struct {
	Err     error
	File    string
	IsFatal bool
	Line    int
	Message string
}

func NewError(message string, err error, isFatal bool) *Error {
	_, file, line, _ := runtime.Caller(0)
	return &Error{
		Err:     err,
		File:    file,
		IsFatal: isFatal,
		Line:    line,
		Message: message,
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Error() string {
	return e.Message
}

// Detail returns a detailed error message.
func (e *Error) Detail() string {
	prefix := ""
	if e.IsFatal {
		prefix = "FATAL: "
	}
	underlyingError := ""
	if e.Err != nil {
		underlyingError = fmt.Sprintf("(Underlying error: %s)", e.Err.Error())
	}
	return fmt.Sprintf("%s%s [%s:%d] %s",
		prefix, e.Message, e.File, e.Line, underlyingError)
}

// PersistenceError means a durable write failed, typically because an
// insert affected zero rows. This is the most severe class: it can
// mean even a failure record did not make it to the ledger, so callers
// must surface it rather than retry-loop silently.
type PersistenceError struct {
	Operation string
	Err       error
}

func NewPersistenceError(operation string, err error) *PersistenceError {
	return &PersistenceError{Operation: operation, Err: err}
}

func (e *PersistenceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("persistence failure in %s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("persistence failure in %s: no rows affected", e.Operation)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NotFoundError means a schema or rule document lookup found nothing,
// not even a generic fallback. Recoverable by publishing the missing
// document.
type NotFoundError struct {
	What string
	Key  string
}

func NewNotFoundError(what, key string) *NotFoundError {
	return &NotFoundError{What: what, Key: key}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found for %s", e.What, e.Key)
}

// PreconditionError is a programmer error: a component was handed
// input that violates its contract, e.g. transforming a model that
// still has validation issues.
type PreconditionError struct {
	Message string
}

func NewPreconditionError(format string, a ...interface{}) *PreconditionError {
	return &PreconditionError{Message: fmt.Sprintf(format, a...)}
}

func (e *PreconditionError) Error() string {
	return e.Message
}

// MalformedInputError means the raw submission bytes could not be
// read at all (truncated zip, binary garbage, unreadable schema).
// Data-quality problems inside a readable file are validation issues,
// not errors.
type MalformedInputError struct {
	Message string
	Err     error
}

func NewMalformedInputError(message string, err error) *MalformedInputError {
	return &MalformedInputError{Message: message, Err: err}
}

func (e *MalformedInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// ScrapeError means a canonical archive record referenced a taxon or
// spatial value that could not be resolved. RecordIndex and Reference
// give enough context to diagnose without reprocessing.
type ScrapeError struct {
	RecordIndex int
	Reference   string
	Message     string
}

func NewScrapeError(recordIndex int, reference, message string) *ScrapeError {
	return &ScrapeError{
		RecordIndex: recordIndex,
		Reference:   reference,
		Message:     message,
	}
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("scrape failed at record %d (ref %q): %s",
		e.RecordIndex, e.Reference, e.Message)
}

func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

func IsNotFoundError(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// Package ledger is the append-only record of submission lifecycle
// status and diagnostic messages, plus the persistence operations the
// pipeline needs around it: occurrence rows, generation bookkeeping
// and canonical archive keys. It has no state machine of its own; it
// is the sink through which the pipeline's state machine becomes
// observable and auditable.
package ledger

import (
	"database/sql"
	"time"

	"github.com/op/go-logging"
	"github.com/wildobs/submission-services/models/common"
	"github.com/wildobs/submission-services/models/service"
)

// Querier is satisfied by both *sql.DB and *sql.Tx, so every ledger
// operation can run inside or outside the pipeline's ambient
// transaction. Failure records in particular must run OUTSIDE a
// rolled-back transaction or they would be rolled back with it.
type Querier interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

type StatusRecord struct {
	ID           int64     `json:"id"`
	SubmissionID string    `json:"submission_id"`
	StatusType   string    `json:"status_type"`
	CreatedAt    time.Time `json:"created_at"`
}

type MessageRecord struct {
	ID             int64     `json:"id"`
	StatusRecordID int64     `json:"status_record_id"`
	MessageType    string    `json:"message_type"`
	Description    string    `json:"description"`
	Code           string    `json:"code,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type Ledger struct {
	db     *sql.DB
	conn   Querier
	logger *logging.Logger
}

func New(db *sql.DB, logger *logging.Logger) *Ledger {
	return &Ledger{db: db, conn: db, logger: logger}
}

// WithTx returns a Ledger whose writes run inside tx. The receiver is
// unchanged, so the caller keeps a handle that writes outside the
// transaction for failure recording.
func (l *Ledger) WithTx(tx *sql.Tx) *Ledger {
	return &Ledger{db: l.db, conn: tx, logger: l.logger}
}

// BeginTx opens the pipeline's ambient transaction.
func (l *Ledger) BeginTx() (*sql.Tx, error) {
	return l.db.Begin()
}

// RecordStatus appends a StatusRecord for the submission. The insert
// is rejected when the submission does not exist, which surfaces as a
// PersistenceError rather than a silent no-op.
func (l *Ledger) RecordStatus(submissionID, statusType string) (*StatusRecord, error) {
	record := &StatusRecord{
		SubmissionID: submissionID,
		StatusType:   statusType,
	}
	err := l.conn.QueryRow(`
		INSERT INTO submission_statuses (submission_id, status_type, created_at)
		SELECT s.id, $2, now() FROM submissions s WHERE s.id = $1
		RETURNING id, created_at
	`, submissionID, statusType).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, common.NewPersistenceError("RecordStatus", nil)
		}
		return nil, common.NewPersistenceError("RecordStatus", err)
	}
	return record, nil
}

// RecordMessage appends a diagnostic message to an existing status
// record.
func (l *Ledger) RecordMessage(statusRecordID int64, messageType, description string) (*MessageRecord, error) {
	return l.recordMessage(statusRecordID, messageType, description, "")
}

func (l *Ledger) recordMessage(statusRecordID int64, messageType, description, code string) (*MessageRecord, error) {
	record := &MessageRecord{
		StatusRecordID: statusRecordID,
		MessageType:    messageType,
		Description:    description,
		Code:           code,
	}
	result, err := l.conn.Exec(`
		INSERT INTO submission_messages
			(status_record_id, message_type, description, error_code, created_at)
		SELECT ss.id, $2, $3, $4, now() FROM submission_statuses ss WHERE ss.id = $1
	`, statusRecordID, messageType, description, nullable(code))
	if err != nil {
		return nil, common.NewPersistenceError("RecordMessage", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return nil, common.NewPersistenceError("RecordMessage", err)
	}
	if count == 0 {
		return nil, common.NewPersistenceError("RecordMessage", nil)
	}
	return record, nil
}

// RecordStatusAndMessage records a status and one message attached to
// it. Both succeed or the combined operation fails; run it inside a
// transaction when partial writes must not be visible.
func (l *Ledger) RecordStatusAndMessage(submissionID, statusType, messageType, description string) (*StatusRecord, error) {
	status, err := l.RecordStatus(submissionID, statusType)
	if err != nil {
		return nil, err
	}
	_, err = l.RecordMessage(status.ID, messageType, description)
	if err != nil {
		return nil, err
	}
	return status, nil
}

// RecordError records the group's status once, then fans out every
// message as an independent write. A failed message write is logged
// and skipped, not fatal: the status record, the authoritative "what
// happened", was already durable before any message was attempted.
// A failed status write is fatal and returned.
func (l *Ledger) RecordError(submissionID string, group *service.ErrorGroup) (*StatusRecord, error) {
	status, err := l.RecordStatus(submissionID, group.StatusType)
	if err != nil {
		return nil, err
	}
	for _, msg := range group.Messages {
		_, msgErr := l.recordMessage(status.ID, msg.Type, msg.Description, msg.Code)
		if msgErr != nil {
			l.logger.Errorf(
				"Dropped message for submission %s (status record %d, type %s): %v",
				submissionID, status.ID, msg.Type, msgErr)
		}
	}
	return status, nil
}

// GetCurrentStatus returns the submission's most recent status type.
func (l *Ledger) GetCurrentStatus(submissionID string) (string, error) {
	var statusType string
	err := l.conn.QueryRow(`
		SELECT status_type FROM submission_statuses
		WHERE submission_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, submissionID).Scan(&statusType)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", common.NewNotFoundError("status", submissionID)
		}
		return "", common.NewPersistenceError("GetCurrentStatus", err)
	}
	return statusType, nil
}

// GetStatusHistory returns every status record for the submission in
// the order it was written.
func (l *Ledger) GetStatusHistory(submissionID string) ([]*StatusRecord, error) {
	rows, err := l.conn.Query(`
		SELECT id, submission_id, status_type, created_at
		FROM submission_statuses
		WHERE submission_id = $1
		ORDER BY created_at ASC, id ASC
	`, submissionID)
	if err != nil {
		return nil, common.NewPersistenceError("GetStatusHistory", err)
	}
	defer rows.Close()
	records := make([]*StatusRecord, 0)
	for rows.Next() {
		record := &StatusRecord{}
		err = rows.Scan(&record.ID, &record.SubmissionID,
			&record.StatusType, &record.CreatedAt)
		if err != nil {
			return nil, common.NewPersistenceError("GetStatusHistory", err)
		}
		records = append(records, record)
	}
	if err = rows.Err(); err != nil {
		return nil, common.NewPersistenceError("GetStatusHistory", err)
	}
	return records, nil
}

// GetMessages returns the diagnostic messages attached to one status
// record.
func (l *Ledger) GetMessages(statusRecordID int64) ([]*MessageRecord, error) {
	rows, err := l.conn.Query(`
		SELECT id, status_record_id, message_type, description,
			COALESCE(error_code, ''), created_at
		FROM submission_messages
		WHERE status_record_id = $1
		ORDER BY id ASC
	`, statusRecordID)
	if err != nil {
		return nil, common.NewPersistenceError("GetMessages", err)
	}
	defer rows.Close()
	records := make([]*MessageRecord, 0)
	for rows.Next() {
		record := &MessageRecord{}
		err = rows.Scan(&record.ID, &record.StatusRecordID, &record.MessageType,
			&record.Description, &record.Code, &record.CreatedAt)
		if err != nil {
			return nil, common.NewPersistenceError("GetMessages", err)
		}
		records = append(records, record)
	}
	if err = rows.Err(); err != nil {
		return nil, common.NewPersistenceError("GetMessages", err)
	}
	return records, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

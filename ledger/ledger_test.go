package ledger_test

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wildobs/submission-services/constants"
	"github.com/wildobs/submission-services/ledger"
	"github.com/wildobs/submission-services/models/common"
	"github.com/wildobs/submission-services/models/service"
)

const subID = "3f0e8f6a-9c1f-4f39-a4f1-1f6f1a3c9d55"

func newLedger(t *testing.T) (*ledger.Ledger, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return ledger.New(db, logging.MustGetLogger("ledger_test")), mock
}

func TestRecordStatus(t *testing.T) {
	l, mock := newLedger(t)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO submission_statuses").
		WithArgs(subID, constants.StatusTemplateValidated).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), now))

	record, err := l.RecordStatus(subID, constants.StatusTemplateValidated)
	require.NoError(t, err)
	assert.EqualValues(t, 7, record.ID)
	assert.Equal(t, constants.StatusTemplateValidated, record.StatusType)
	assert.Equal(t, subID, record.SubmissionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordStatusUnknownSubmission(t *testing.T) {
	l, mock := newLedger(t)

	// No submission row means the INSERT..SELECT matches nothing.
	mock.ExpectQuery("INSERT INTO submission_statuses").
		WithArgs(subID, constants.StatusTemplateValidated).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}))

	_, err := l.RecordStatus(subID, constants.StatusTemplateValidated)
	require.Error(t, err)
	assert.True(t, common.IsPersistenceError(err))
}

func TestRecordMessage(t *testing.T) {
	l, mock := newLedger(t)

	mock.ExpectExec("INSERT INTO submission_messages").
		WithArgs(int64(7), constants.MsgMissingRequiredHeader,
			"Missing required column survey_date", nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	record, err := l.RecordMessage(7, constants.MsgMissingRequiredHeader,
		"Missing required column survey_date")
	require.NoError(t, err)
	assert.EqualValues(t, 7, record.StatusRecordID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordMessageNoSuchStatus(t *testing.T) {
	l, mock := newLedger(t)

	mock.ExpectExec("INSERT INTO submission_messages").
		WithArgs(int64(99), constants.MsgMiscellaneous, "whatever", nil).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := l.RecordMessage(99, constants.MsgMiscellaneous, "whatever")
	require.Error(t, err)
	assert.True(t, common.IsPersistenceError(err))
}

func TestRecordStatusAndMessage(t *testing.T) {
	l, mock := newLedger(t)

	mock.ExpectQuery("INSERT INTO submission_statuses").
		WithArgs(subID, constants.StatusFailedTransformation).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).
			AddRow(int64(12), time.Now()))
	mock.ExpectExec("INSERT INTO submission_messages").
		WithArgs(int64(12), constants.MsgFailedTransformSubmission,
			"no mapping for sheet counts", nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	status, err := l.RecordStatusAndMessage(subID,
		constants.StatusFailedTransformation,
		constants.MsgFailedTransformSubmission,
		"no mapping for sheet counts")
	require.NoError(t, err)
	assert.EqualValues(t, 12, status.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// RecordError fans messages out as independent writes: one failed
// message write must not stop the rest, because the status record is
// already durable.
func TestRecordErrorPartialMessageFailure(t *testing.T) {
	l, mock := newLedger(t)

	group := service.NewErrorGroup(constants.StatusFailedValidation)
	group.Add(constants.MsgMissingRequiredHeader, "Missing required column survey_date")
	group.Add(constants.MsgInvalidValue, "observations!C4 not a number")
	group.Add(constants.MsgInvalidValue, "observations!C9 not a number")

	mock.ExpectQuery("INSERT INTO submission_statuses").
		WithArgs(subID, constants.StatusFailedValidation).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).
			AddRow(int64(31), time.Now()))
	mock.ExpectExec("INSERT INTO submission_messages").
		WillReturnResult(sqlmock.NewResult(1, 1))
	// Second message write fails; third should still be attempted.
	mock.ExpectExec("INSERT INTO submission_messages").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO submission_messages").
		WillReturnResult(sqlmock.NewResult(1, 1))

	status, err := l.RecordError(subID, group)
	require.NoError(t, err)
	assert.EqualValues(t, 31, status.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCurrentStatus(t *testing.T) {
	l, mock := newLedger(t)

	mock.ExpectQuery("SELECT status_type FROM submission_statuses").
		WithArgs(subID).
		WillReturnRows(sqlmock.NewRows([]string{"status_type"}).
			AddRow(constants.StatusScrapeComplete))

	status, err := l.GetCurrentStatus(subID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusScrapeComplete, status)
}

func TestGetCurrentStatusNotFound(t *testing.T) {
	l, mock := newLedger(t)

	mock.ExpectQuery("SELECT status_type FROM submission_statuses").
		WithArgs(subID).
		WillReturnRows(sqlmock.NewRows([]string{"status_type"}))

	_, err := l.GetCurrentStatus(subID)
	require.Error(t, err)
	assert.True(t, common.IsNotFoundError(err))
}

func TestGetStatusHistoryOrder(t *testing.T) {
	l, mock := newLedger(t)

	t0 := time.Now().Add(-3 * time.Minute)
	rows := sqlmock.NewRows([]string{"id", "submission_id", "status_type", "created_at"}).
		AddRow(int64(1), subID, constants.StatusSubmitted, t0).
		AddRow(int64(2), subID, constants.StatusTemplateValidated, t0.Add(time.Minute)).
		AddRow(int64(3), subID, constants.StatusTemplateTransformed, t0.Add(2*time.Minute))
	mock.ExpectQuery("SELECT id, submission_id, status_type, created_at").
		WithArgs(subID).
		WillReturnRows(rows)

	history, err := l.GetStatusHistory(subID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i := 1; i < len(history); i++ {
		assert.False(t, history[i].CreatedAt.Before(history[i-1].CreatedAt))
	}
}

func TestSaveOccurrences(t *testing.T) {
	l, mock := newLedger(t)

	occ := &service.OccurrenceRow{
		SubmissionID:    subID,
		GenerationID:    "9b7a4f0e-2f61-4c89-aaaa-000000000001",
		OccurrenceID:    "occ-1",
		EventID:         "evt-1",
		TaxonID:         "M-ALAM",
		ScientificName:  "Alces americanus",
		IndividualCount: 4,
	}
	mock.ExpectExec("INSERT INTO occurrences").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := l.SaveOccurrences([]*service.OccurrenceRow{occ})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveOccurrencesZeroRows(t *testing.T) {
	l, mock := newLedger(t)

	mock.ExpectExec("INSERT INTO occurrences").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := l.SaveOccurrences([]*service.OccurrenceRow{{SubmissionID: subID}})
	require.Error(t, err)
	assert.True(t, common.IsPersistenceError(err))
}

func TestGetTaxonCode(t *testing.T) {
	l, mock := newLedger(t)

	mock.ExpectQuery("SELECT taxon_id, scientific_name").
		WithArgs("M-ALAM").
		WillReturnRows(sqlmock.NewRows(
			[]string{"taxon_id", "scientific_name", "vernacular_name", "taxon_rank"}).
			AddRow("M-ALAM", "Alces americanus", "moose", "species"))

	code, err := l.GetTaxonCode("M-ALAM")
	require.NoError(t, err)
	assert.Equal(t, "Alces americanus", code.ScientificName)
}

func TestGetTaxonCodeNotFound(t *testing.T) {
	l, mock := newLedger(t)

	mock.ExpectQuery("SELECT taxon_id, scientific_name").
		WithArgs("X-NOPE").
		WillReturnRows(sqlmock.NewRows(
			[]string{"taxon_id", "scientific_name", "vernacular_name", "taxon_rank"}))

	_, err := l.GetTaxonCode("X-NOPE")
	require.Error(t, err)
	assert.True(t, common.IsNotFoundError(err))
}

func TestWithTxRoutesWritesThroughTx(t *testing.T) {
	l, mock := newLedger(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO submission_statuses").
		WithArgs(subID, constants.StatusTemplateValidated).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).
			AddRow(int64(5), time.Now()))
	mock.ExpectRollback()

	tx, err := l.BeginTx()
	require.NoError(t, err)
	txLedger := l.WithTx(tx)
	_, err = txLedger.RecordStatus(subID, constants.StatusTemplateValidated)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

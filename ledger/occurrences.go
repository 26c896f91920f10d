package ledger

import (
	"github.com/google/uuid"
	"github.com/wildobs/submission-services/models/common"
	"github.com/wildobs/submission-services/models/service"
)

// Occurrence rows are immutable. Re-scraping a submission writes a
// whole new generation of rows and flips the current-generation
// pointer; prior generations stay put for audit.

// NewGeneration registers a fresh occurrence generation for a
// submission and returns its id.
func (l *Ledger) NewGeneration(submissionID string) (string, error) {
	generationID := uuid.New().String()
	result, err := l.conn.Exec(`
		INSERT INTO occurrence_generations (id, submission_id, created_at)
		SELECT $1, s.id, now() FROM submissions s WHERE s.id = $2
	`, generationID, submissionID)
	if err != nil {
		return "", common.NewPersistenceError("NewGeneration", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return "", common.NewPersistenceError("NewGeneration", err)
	}
	if count == 0 {
		return "", common.NewPersistenceError("NewGeneration", nil)
	}
	return generationID, nil
}

// SaveOccurrences inserts one generation's occurrence rows. Every
// insert must affect exactly one row.
func (l *Ledger) SaveOccurrences(occurrences []*service.OccurrenceRow) error {
	for _, occ := range occurrences {
		result, err := l.conn.Exec(`
			INSERT INTO occurrences
				(submission_id, generation_id, occurrence_id, event_id,
				taxon_id, scientific_name, vernacular_name, event_date,
				latitude, longitude, individual_count, life_stage, sex,
				created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now())
		`, occ.SubmissionID, occ.GenerationID, occ.OccurrenceID, occ.EventID,
			occ.TaxonID, occ.ScientificName, nullable(occ.VernacularName),
			nullable(occ.EventDate), occ.Latitude, occ.Longitude,
			occ.IndividualCount, nullable(occ.LifeStage), nullable(occ.Sex))
		if err != nil {
			return common.NewPersistenceError("SaveOccurrences", err)
		}
		count, err := result.RowsAffected()
		if err != nil {
			return common.NewPersistenceError("SaveOccurrences", err)
		}
		if count == 0 {
			return common.NewPersistenceError("SaveOccurrences", nil)
		}
	}
	return nil
}

// SetCurrentGeneration marks one generation as the submission's
// current occurrence set.
func (l *Ledger) SetCurrentGeneration(submissionID, generationID string) error {
	result, err := l.conn.Exec(`
		UPDATE occurrence_generations
		SET is_current = (id = $2)
		WHERE submission_id = $1
	`, submissionID, generationID)
	if err != nil {
		return common.NewPersistenceError("SetCurrentGeneration", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return common.NewPersistenceError("SetCurrentGeneration", err)
	}
	if count == 0 {
		return common.NewPersistenceError("SetCurrentGeneration", nil)
	}
	return nil
}

// GetCurrentGeneration returns the id of the submission's current
// occurrence generation, or NotFoundError if none is marked current.
func (l *Ledger) GetCurrentGeneration(submissionID string) (string, error) {
	var generationID string
	err := l.conn.QueryRow(`
		SELECT id FROM occurrence_generations
		WHERE submission_id = $1 AND is_current
	`, submissionID).Scan(&generationID)
	if err != nil {
		return "", common.NewNotFoundError("current generation", submissionID)
	}
	return generationID, nil
}

// SaveArchiveKey records where a generation's canonical archive was
// stored, so the submission can be audited or re-scraped later.
func (l *Ledger) SaveArchiveKey(submissionID, generationID, bucket, key string) error {
	result, err := l.conn.Exec(`
		INSERT INTO canonical_archives
			(submission_id, generation_id, s3_bucket, s3_key, created_at)
		VALUES ($1, $2, $3, $4, now())
	`, submissionID, generationID, bucket, key)
	if err != nil {
		return common.NewPersistenceError("SaveArchiveKey", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return common.NewPersistenceError("SaveArchiveKey", err)
	}
	if count == 0 {
		return common.NewPersistenceError("SaveArchiveKey", nil)
	}
	return nil
}

// CountOccurrences returns the number of occurrence rows in one
// generation.
func (l *Ledger) CountOccurrences(submissionID, generationID string) (int, error) {
	var count int
	err := l.conn.QueryRow(`
		SELECT COUNT(*) FROM occurrences
		WHERE submission_id = $1 AND generation_id = $2
	`, submissionID, generationID).Scan(&count)
	if err != nil {
		return 0, common.NewPersistenceError("CountOccurrences", err)
	}
	return count, nil
}

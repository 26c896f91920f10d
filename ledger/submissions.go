package ledger

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/wildobs/submission-services/constants"
	"github.com/wildobs/submission-services/models/common"
	"github.com/wildobs/submission-services/models/service"
)

// GetSubmission fetches the submission record created by the intake
// layer. The pipeline reads it for the storage key and template
// identity; it never updates these fields.
func (l *Ledger) GetSubmission(submissionID string) (*service.Submission, error) {
	sub := &service.Submission{}
	var speciesIDs pq.StringArray
	err := l.conn.QueryRow(`
		SELECT id, source, s3_bucket, s3_key, file_name, size,
			template_name, template_version, species_ids, created_at
		FROM submissions
		WHERE id = $1
	`, submissionID).Scan(&sub.ID, &sub.Source, &sub.S3Bucket, &sub.S3Key,
		&sub.FileName, &sub.Size, &sub.TemplateName, &sub.TemplateVersion,
		&speciesIDs, &sub.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, common.NewNotFoundError("submission", submissionID)
		}
		return nil, common.NewPersistenceError("GetSubmission", err)
	}
	sub.SpeciesIDs = []string(speciesIDs)
	return sub, nil
}

// GetUnprocessedSubmissions returns submissions created before the
// cutoff whose most recent status is still Submitted. These are
// items whose queue message was lost or never sent; the queue
// scanner re-enqueues them.
func (l *Ledger) GetUnprocessedSubmissions(cutoff time.Time) ([]*service.Submission, error) {
	rows, err := l.conn.Query(`
		SELECT s.id, s.source, s.s3_bucket, s.s3_key, s.file_name, s.size,
			s.template_name, s.template_version, s.species_ids, s.created_at
		FROM submissions s
		WHERE s.created_at < $1
		AND (
			SELECT ss.status_type FROM submission_statuses ss
			WHERE ss.submission_id = s.id
			ORDER BY ss.created_at DESC, ss.id DESC
			LIMIT 1
		) = $2
		ORDER BY s.created_at
	`, cutoff, constants.StatusSubmitted)
	if err != nil {
		return nil, common.NewPersistenceError("GetUnprocessedSubmissions", err)
	}
	defer rows.Close()

	submissions := make([]*service.Submission, 0)
	for rows.Next() {
		sub := &service.Submission{}
		var speciesIDs pq.StringArray
		err = rows.Scan(&sub.ID, &sub.Source, &sub.S3Bucket, &sub.S3Key,
			&sub.FileName, &sub.Size, &sub.TemplateName, &sub.TemplateVersion,
			&speciesIDs, &sub.CreatedAt)
		if err != nil {
			return nil, common.NewPersistenceError("GetUnprocessedSubmissions", err)
		}
		sub.SpeciesIDs = []string(speciesIDs)
		submissions = append(submissions, sub)
	}
	if err = rows.Err(); err != nil {
		return nil, common.NewPersistenceError("GetUnprocessedSubmissions", err)
	}
	return submissions, nil
}

// TaxonCode is one row of the taxon reference table the scraper
// resolves occurrence taxon ids against.
type TaxonCode struct {
	TaxonID        string
	ScientificName string
	VernacularName string
	TaxonRank      string
}

// GetTaxonCode resolves a taxon id against the reference table.
// Returns NotFoundError for unknown ids; the scraper translates that
// into a ScrapeError carrying the record index.
func (l *Ledger) GetTaxonCode(taxonID string) (*TaxonCode, error) {
	code := &TaxonCode{}
	err := l.conn.QueryRow(`
		SELECT taxon_id, scientific_name,
			COALESCE(vernacular_name, ''), COALESCE(taxon_rank, '')
		FROM taxon_codes
		WHERE taxon_id = $1
	`, taxonID).Scan(&code.TaxonID, &code.ScientificName,
		&code.VernacularName, &code.TaxonRank)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, common.NewNotFoundError("taxon code", taxonID)
		}
		return nil, common.NewPersistenceError("GetTaxonCode", err)
	}
	return code, nil
}

package ledger

import "database/sql"

// CreateTables creates the ledger's tables if they don't exist.
// Intended for dev and test setups; production schemas are managed by
// migrations outside this service.
func CreateTables(db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS submissions (
			id UUID PRIMARY KEY,
			source TEXT NOT NULL,
			s3_bucket TEXT NOT NULL,
			s3_key TEXT NOT NULL,
			file_name TEXT NOT NULL,
			size BIGINT NOT NULL DEFAULT 0,
			template_name TEXT NOT NULL DEFAULT '',
			template_version TEXT NOT NULL DEFAULT '',
			species_ids TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS submission_statuses (
			id BIGSERIAL PRIMARY KEY,
			submission_id UUID NOT NULL REFERENCES submissions(id),
			status_type TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS ix_statuses_submission
			ON submission_statuses (submission_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS submission_messages (
			id BIGSERIAL PRIMARY KEY,
			status_record_id BIGINT NOT NULL REFERENCES submission_statuses(id),
			message_type TEXT NOT NULL,
			description TEXT NOT NULL,
			error_code TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS occurrence_generations (
			id UUID PRIMARY KEY,
			submission_id UUID NOT NULL REFERENCES submissions(id),
			is_current BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS occurrences (
			id BIGSERIAL PRIMARY KEY,
			submission_id UUID NOT NULL REFERENCES submissions(id),
			generation_id UUID NOT NULL REFERENCES occurrence_generations(id),
			occurrence_id TEXT NOT NULL,
			event_id TEXT NOT NULL,
			taxon_id TEXT NOT NULL,
			scientific_name TEXT NOT NULL,
			vernacular_name TEXT,
			event_date TEXT,
			latitude DOUBLE PRECISION NOT NULL DEFAULT 0,
			longitude DOUBLE PRECISION NOT NULL DEFAULT 0,
			individual_count INTEGER NOT NULL DEFAULT 0,
			life_stage TEXT,
			sex TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS ix_occurrences_submission
			ON occurrences (submission_id, generation_id)`,
		`CREATE TABLE IF NOT EXISTS canonical_archives (
			id BIGSERIAL PRIMARY KEY,
			submission_id UUID NOT NULL REFERENCES submissions(id),
			generation_id UUID NOT NULL REFERENCES occurrence_generations(id),
			s3_bucket TEXT NOT NULL,
			s3_key TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS taxon_codes (
			taxon_id TEXT PRIMARY KEY,
			scientific_name TEXT NOT NULL,
			vernacular_name TEXT,
			taxon_rank TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS validation_schemas (
			id BIGSERIAL PRIMARY KEY,
			template_name TEXT NOT NULL,
			template_version TEXT NOT NULL,
			species_id TEXT,
			document JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (template_name, template_version, species_id)
		)`,
		`CREATE TABLE IF NOT EXISTS transformation_schemas (
			id BIGSERIAL PRIMARY KEY,
			template_name TEXT NOT NULL,
			template_version TEXT NOT NULL,
			document JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (template_name, template_version)
		)`,
	}
	for _, stmt := range ddl {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

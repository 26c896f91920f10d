package service

import "time"

// OccurrenceRow is a persisted, queryable occurrence extracted from a
// canonical archive. Rows are immutable after creation: re-scraping a
// submission writes a new generation rather than editing prior rows.
type OccurrenceRow struct {
	ID              int64     `json:"id,omitempty"`
	SubmissionID    string    `json:"submission_id"`
	GenerationID    string    `json:"generation_id"`
	OccurrenceID    string    `json:"occurrence_id"`
	EventID         string    `json:"event_id"`
	TaxonID         string    `json:"taxon_id"`
	ScientificName  string    `json:"scientific_name"`
	VernacularName  string    `json:"vernacular_name,omitempty"`
	EventDate       string    `json:"event_date,omitempty"`
	Latitude        float64   `json:"latitude,omitempty"`
	Longitude       float64   `json:"longitude,omitempty"`
	IndividualCount int       `json:"individual_count,omitempty"`
	LifeStage       string    `json:"life_stage,omitempty"`
	Sex             string    `json:"sex,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
}

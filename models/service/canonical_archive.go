package service

// Canonical archive records are the Darwin-Core-shaped output of the
// Transformer. Stable ids link occurrences and measurements back to
// their parent event. Record ids are generated per run; everything
// else is a deterministic function of the validated model and the
// transformation schema.

type EventRecord struct {
	EventID           string `json:"event_id"`
	EventDate         string `json:"event_date"`
	Locality          string `json:"locality,omitempty"`
	DecimalLatitude   string `json:"decimal_latitude,omitempty"`
	DecimalLongitude  string `json:"decimal_longitude,omitempty"`
	SamplingProtocol  string `json:"sampling_protocol,omitempty"`
	VerbatimElevation string `json:"verbatim_elevation,omitempty"`
	EventRemarks      string `json:"event_remarks,omitempty"`
}

type OccurrenceRecord struct {
	OccurrenceID     string `json:"occurrence_id"`
	EventID          string `json:"event_id"`
	TaxonID          string `json:"taxon_id"`
	ScientificName   string `json:"scientific_name,omitempty"`
	IndividualCount  string `json:"individual_count,omitempty"`
	LifeStage        string `json:"life_stage,omitempty"`
	Sex              string `json:"sex,omitempty"`
	OccurrenceStatus string `json:"occurrence_status,omitempty"`
}

type TaxonRecord struct {
	TaxonID        string `json:"taxon_id"`
	ScientificName string `json:"scientific_name"`
	VernacularName string `json:"vernacular_name,omitempty"`
	TaxonRank      string `json:"taxon_rank,omitempty"`
}

type MeasurementRecord struct {
	MeasurementID    string `json:"measurement_id"`
	EventID          string `json:"event_id"`
	OccurrenceID     string `json:"occurrence_id,omitempty"`
	MeasurementType  string `json:"measurement_type"`
	MeasurementValue string `json:"measurement_value"`
	MeasurementUnit  string `json:"measurement_unit,omitempty"`
}

// CanonicalArchive is the in-memory Darwin Core representation of an
// accepted submission. It is produced by the Transformer and consumed
// exactly once by the OccurrenceScraper.
type CanonicalArchive struct {
	SubmissionID string               `json:"submission_id"`
	Events       []*EventRecord       `json:"events"`
	Occurrences  []*OccurrenceRecord  `json:"occurrences"`
	Taxa         []*TaxonRecord       `json:"taxa"`
	Measurements []*MeasurementRecord `json:"measurements"`
}

func NewCanonicalArchive(submissionID string) *CanonicalArchive {
	return &CanonicalArchive{
		SubmissionID: submissionID,
		Events:       make([]*EventRecord, 0),
		Occurrences:  make([]*OccurrenceRecord, 0),
		Taxa:         make([]*TaxonRecord, 0),
		Measurements: make([]*MeasurementRecord, 0),
	}
}

func (a *CanonicalArchive) Event(eventID string) *EventRecord {
	for _, e := range a.Events {
		if e.EventID == eventID {
			return e
		}
	}
	return nil
}

func (a *CanonicalArchive) Taxon(taxonID string) *TaxonRecord {
	for _, tx := range a.Taxa {
		if tx.TaxonID == taxonID {
			return tx
		}
	}
	return nil
}

// CoreCounts returns record counts by row type, mostly for logging
// and for determinism tests.
func (a *CanonicalArchive) CoreCounts() map[string]int {
	return map[string]int{
		"event":       len(a.Events),
		"occurrence":  len(a.Occurrences),
		"taxon":       len(a.Taxa),
		"measurement": len(a.Measurements),
	}
}

package pipeline

import (
	"fmt"
	"strconv"

	"github.com/wildobs/submission-services/ledger"
	"github.com/wildobs/submission-services/models/common"
	"github.com/wildobs/submission-services/models/service"
)

// OccurrenceScraper walks an archive's occurrence records, resolves
// their taxonomic and spatial references, and persists one occurrence
// row per record. Scraping never touches prior generations: each run
// writes rows under a fresh generation id and the orchestrator flips
// the current-generation pointer afterward.
type OccurrenceScraper struct {
	ledger *ledger.Ledger
}

// NewOccurrenceScraper returns a scraper writing through the given
// ledger, which the orchestrator binds to its ambient transaction.
func NewOccurrenceScraper(l *ledger.Ledger) *OccurrenceScraper {
	return &OccurrenceScraper{ledger: l}
}

func (s *OccurrenceScraper) Scrape(archive *service.CanonicalArchive, generationID string) ([]*service.OccurrenceRow, error) {
	rows := make([]*service.OccurrenceRow, 0, len(archive.Occurrences))
	for i, occ := range archive.Occurrences {
		row, err := s.scrapeOne(archive, occ, generationID, i)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if err := s.ledger.SaveOccurrences(rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// scrapeOne resolves one occurrence. Unresolvable references are
// ScrapeErrors carrying the record index and offending value, never
// silently dropped records.
func (s *OccurrenceScraper) scrapeOne(archive *service.CanonicalArchive, occ *service.OccurrenceRecord, generationID string, index int) (*service.OccurrenceRow, error) {
	event := archive.Event(occ.EventID)
	if event == nil {
		return nil, common.NewScrapeError(index, occ.EventID,
			"occurrence references an event the archive does not contain")
	}

	taxon, err := s.ledger.GetTaxonCode(occ.TaxonID)
	if err != nil {
		if common.IsNotFoundError(err) {
			return nil, common.NewScrapeError(index, occ.TaxonID,
				"taxon id cannot be resolved")
		}
		return nil, err
	}

	row := &service.OccurrenceRow{
		SubmissionID:   archive.SubmissionID,
		GenerationID:   generationID,
		OccurrenceID:   occ.OccurrenceID,
		EventID:        occ.EventID,
		TaxonID:        occ.TaxonID,
		ScientificName: taxon.ScientificName,
		VernacularName: taxon.VernacularName,
		EventDate:      event.EventDate,
		LifeStage:      occ.LifeStage,
		Sex:            occ.Sex,
	}

	if event.DecimalLatitude != "" || event.DecimalLongitude != "" {
		lat, latErr := strconv.ParseFloat(event.DecimalLatitude, 64)
		lon, lonErr := strconv.ParseFloat(event.DecimalLongitude, 64)
		if latErr != nil || lonErr != nil {
			return nil, common.NewScrapeError(index,
				fmt.Sprintf("%s,%s", event.DecimalLatitude, event.DecimalLongitude),
				"event coordinates cannot be resolved")
		}
		row.Latitude = lat
		row.Longitude = lon
	}

	if occ.IndividualCount != "" {
		count, err := strconv.Atoi(occ.IndividualCount)
		if err != nil {
			return nil, common.NewScrapeError(index, occ.IndividualCount,
				"individual count is not an integer")
		}
		row.IndividualCount = count
	}

	return row, nil
}

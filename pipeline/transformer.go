package pipeline

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/wildobs/submission-services/models/common"
	"github.com/wildobs/submission-services/models/service"
)

// Transformer maps a validated spreadsheet model into canonical
// Darwin Core records using the declarative rules of a transformation
// schema. Given the same model and schema it always produces the same
// record counts and field values; only the generated record ids
// differ between runs.
type Transformer struct{}

func NewTransformer() *Transformer {
	return &Transformer{}
}

func (t *Transformer) Transform(model *service.ValidatedModel, schema *service.TransformationSchema) (*service.CanonicalArchive, error) {
	if model == nil || schema == nil {
		return nil, common.NewPreconditionError("transform requires a model and a schema")
	}
	// Defends against accidental use of an unvalidated model.
	if !model.IsValid() {
		return nil, common.NewPreconditionError(
			"refusing to transform a model with %d validation issues", len(model.Issues))
	}

	archive := service.NewCanonicalArchive(model.SubmissionID)
	seenTaxa := make(map[string]bool)

	for _, sheetMap := range schema.Sheets {
		sheet := model.Sheet(sheetMap.SheetName)
		if sheet == nil {
			return nil, common.NewPreconditionError(
				"transformation schema maps sheet %s, which the model does not have",
				sheetMap.SheetName)
		}
		for _, row := range sheet.Rows {
			event := t.buildEvent(row, sheetMap.Event)
			archive.Events = append(archive.Events, event)

			for _, occMap := range sheetMap.Occurrences {
				occ := t.buildOccurrence(row, &occMap, event.EventID, schema)
				if occ == nil {
					continue
				}
				archive.Occurrences = append(archive.Occurrences, occ)
				if occ.TaxonID != "" && !seenTaxa[occ.TaxonID] {
					seenTaxa[occ.TaxonID] = true
					if def := schema.TaxonDef(occ.TaxonID); def != nil {
						archive.Taxa = append(archive.Taxa, &service.TaxonRecord{
							TaxonID:        def.TaxonID,
							ScientificName: def.ScientificName,
							VernacularName: def.VernacularName,
							TaxonRank:      def.TaxonRank,
						})
					}
				}
			}

			for _, mMap := range sheetMap.Measurements {
				value := resolveValue(row, mMap.Value)
				if value == "" {
					continue
				}
				archive.Measurements = append(archive.Measurements, &service.MeasurementRecord{
					MeasurementID:    uuid.New().String(),
					EventID:          event.EventID,
					MeasurementType:  mMap.Type,
					MeasurementValue: value,
					MeasurementUnit:  mMap.Unit,
				})
			}
		}
	}
	return archive, nil
}

func (t *Transformer) buildEvent(row service.ValidatedRow, fields map[string]service.ValueSource) *service.EventRecord {
	event := &service.EventRecord{EventID: uuid.New().String()}
	for field, source := range fields {
		value := resolveValue(row, source)
		switch field {
		case "eventDate":
			event.EventDate = value
		case "locality":
			event.Locality = value
		case "decimalLatitude":
			event.DecimalLatitude = value
		case "decimalLongitude":
			event.DecimalLongitude = value
		case "samplingProtocol":
			event.SamplingProtocol = value
		case "verbatimElevation":
			event.VerbatimElevation = value
		case "eventRemarks":
			event.EventRemarks = value
		}
	}
	return event
}

// buildOccurrence returns nil when the mapping's count source yields
// nothing, which is how a row carrying only some of its count columns
// splits into fewer occurrences.
func (t *Transformer) buildOccurrence(row service.ValidatedRow, occMap *service.OccurrenceMap, eventID string, schema *service.TransformationSchema) *service.OccurrenceRecord {
	count := resolveValue(row, occMap.Count)
	if count == "" {
		return nil
	}
	occ := &service.OccurrenceRecord{
		OccurrenceID:     uuid.New().String(),
		EventID:          eventID,
		TaxonID:          resolveValue(row, occMap.TaxonID),
		IndividualCount:  count,
		LifeStage:        resolveValue(row, occMap.LifeStage),
		Sex:              resolveValue(row, occMap.Sex),
		OccurrenceStatus: resolveValue(row, occMap.Status),
	}
	if occ.OccurrenceStatus == "" {
		occ.OccurrenceStatus = "present"
	}
	if def := schema.TaxonDef(occ.TaxonID); def != nil {
		occ.ScientificName = def.ScientificName
	}
	return occ
}

// resolveValue turns a ValueSource into a string: source column or
// literal, then controlled-vocabulary translation, then unit
// conversion. Vocabulary misses keep the raw value; translation
// completeness is the validation schema's job, not ours.
func resolveValue(row service.ValidatedRow, source service.ValueSource) string {
	var value string
	if source.Column != "" {
		if cell, ok := row[source.Column]; ok {
			value = cell.String()
		}
	} else {
		value = source.Literal
	}
	if value == "" {
		return ""
	}
	if source.Vocabulary != nil {
		if translated, ok := source.Vocabulary[value]; ok {
			value = translated
		}
	}
	if source.Multiplier != 0 {
		if num, err := strconv.ParseFloat(value, 64); err == nil {
			value = fmt.Sprintf("%g", num*source.Multiplier)
		}
	}
	return value
}

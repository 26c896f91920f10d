package pipeline_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wildobs/submission-services/constants"
	"github.com/wildobs/submission-services/models/common"
	"github.com/wildobs/submission-services/models/service"
	"github.com/wildobs/submission-services/pipeline"
)

// mooseTransformSchema splits each observation row into one event and
// up to three occurrences (bulls, cows, calves), translating the age
// class through a vocabulary and converting elevation feet to meters.
func mooseTransformSchema() *service.TransformationSchema {
	return &service.TransformationSchema{
		TemplateName:    "moose_aerial",
		TemplateVersion: "2.0",
		Taxa: []*service.TaxonDef{
			{TaxonID: "M-ALAM", ScientificName: "Alces alces", VernacularName: "moose", TaxonRank: "species"},
		},
		Sheets: []service.SheetMap{
			{
				SheetName: "observations",
				Event: map[string]service.ValueSource{
					"eventDate":         {Column: "survey_date"},
					"locality":          {Column: "site_id"},
					"decimalLatitude":   {Column: "latitude"},
					"decimalLongitude":  {Column: "longitude"},
					"samplingProtocol":  {Literal: "aerial survey"},
					"verbatimElevation": {Column: "elevation_ft", Multiplier: 0.3048},
				},
				Occurrences: []service.OccurrenceMap{
					{
						TaxonID: service.ValueSource{Literal: "M-ALAM"},
						Count:   service.ValueSource{Column: "bull_count"},
						Sex:     service.ValueSource{Literal: "male"},
						LifeStage: service.ValueSource{Column: "age_class",
							Vocabulary: map[string]string{"A": "adult", "J": "juvenile"}},
					},
					{
						TaxonID: service.ValueSource{Literal: "M-ALAM"},
						Count:   service.ValueSource{Column: "cow_count"},
						Sex:     service.ValueSource{Literal: "female"},
					},
					{
						TaxonID:   service.ValueSource{Literal: "M-ALAM"},
						Count:     service.ValueSource{Column: "calf_count"},
						LifeStage: service.ValueSource{Literal: "juvenile"},
					},
				},
				Measurements: []service.MeasurementMap{
					{Type: "snow depth", Value: service.ValueSource{Column: "snow_depth"}, Unit: "cm"},
				},
			},
		},
	}
}

func observationRow(values map[string]service.CellValue) *service.ValidatedModel {
	model := service.NewValidatedModel("sub-1")
	model.Sheets = append(model.Sheets, &service.ValidatedSheet{
		Name: "observations",
		Rows: []service.ValidatedRow{values},
	})
	return model
}

func surveyDate(s string) service.CellValue {
	t, _ := time.Parse("2006-01-02", s)
	return service.DateCell(s, t)
}

func TestTransformerSplitsRowIntoEventAndOccurrences(t *testing.T) {
	model := observationRow(map[string]service.CellValue{
		"survey_date":  surveyDate("2024-01-15"),
		"site_id":      service.StringCell("S-01"),
		"latitude":     service.NumberCell("61.2", 61.2),
		"longitude":    service.NumberCell("-149.9", -149.9),
		"elevation_ft": service.NumberCell("1000", 1000),
		"age_class":    service.StringCell("A"),
		"bull_count":   service.NumberCell("3", 3),
		"cow_count":    service.NumberCell("5", 5),
		"calf_count":   service.StringCell(""), // no calves seen
		"snow_depth":   service.NumberCell("42", 42),
	})

	archive, err := pipeline.NewTransformer().Transform(model, mooseTransformSchema())
	require.Nil(t, err)
	require.NotNil(t, archive)
	assert.Equal(t, "sub-1", archive.SubmissionID)

	// One event, two occurrences (empty calf count emits nothing),
	// one deduplicated taxon, one measurement.
	require.Equal(t, 1, len(archive.Events))
	require.Equal(t, 2, len(archive.Occurrences))
	require.Equal(t, 1, len(archive.Taxa))
	require.Equal(t, 1, len(archive.Measurements))

	event := archive.Events[0]
	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "2024-01-15", event.EventDate)
	assert.Equal(t, "S-01", event.Locality)
	assert.Equal(t, "61.2", event.DecimalLatitude)
	assert.Equal(t, "aerial survey", event.SamplingProtocol)
	// 1000 ft converted to meters.
	assert.Equal(t, "304.8", event.VerbatimElevation)

	bulls := archive.Occurrences[0]
	assert.Equal(t, event.EventID, bulls.EventID)
	assert.Equal(t, "M-ALAM", bulls.TaxonID)
	assert.Equal(t, "Alces alces", bulls.ScientificName)
	assert.Equal(t, "3", bulls.IndividualCount)
	assert.Equal(t, "male", bulls.Sex)
	assert.Equal(t, "adult", bulls.LifeStage) // vocabulary translated
	assert.Equal(t, "present", bulls.OccurrenceStatus)

	cows := archive.Occurrences[1]
	assert.Equal(t, "female", cows.Sex)
	assert.Equal(t, "5", cows.IndividualCount)

	assert.Equal(t, "snow depth", archive.Measurements[0].MeasurementType)
	assert.Equal(t, "42", archive.Measurements[0].MeasurementValue)
	assert.Equal(t, event.EventID, archive.Measurements[0].EventID)
}

func TestTransformerIsDeterministicApartFromIDs(t *testing.T) {
	row := map[string]service.CellValue{
		"survey_date": surveyDate("2024-01-15"),
		"site_id":     service.StringCell("S-01"),
		"bull_count":  service.NumberCell("3", 3),
	}

	first, err := pipeline.NewTransformer().Transform(observationRow(row), mooseTransformSchema())
	require.Nil(t, err)
	second, err := pipeline.NewTransformer().Transform(observationRow(row), mooseTransformSchema())
	require.Nil(t, err)

	assert.Equal(t, first.CoreCounts(), second.CoreCounts())
	assert.Equal(t, first.Events[0].EventDate, second.Events[0].EventDate)
	assert.Equal(t, first.Occurrences[0].IndividualCount, second.Occurrences[0].IndividualCount)
	// Record ids are the only thing regenerated between runs.
	assert.NotEqual(t, first.Events[0].EventID, second.Events[0].EventID)
	assert.NotEqual(t, first.Occurrences[0].OccurrenceID, second.Occurrences[0].OccurrenceID)
}

func TestTransformerRefusesInvalidModel(t *testing.T) {
	model := service.NewValidatedModel("sub-1")
	model.AddIssue(service.NewIssue(constants.MsgInvalidValue, "bad cell"))

	_, err := pipeline.NewTransformer().Transform(model, mooseTransformSchema())
	require.NotNil(t, err)
	precondition := &common.PreconditionError{}
	assert.ErrorAs(t, err, &precondition)
}

func TestTransformerRefusesNilArguments(t *testing.T) {
	_, err := pipeline.NewTransformer().Transform(nil, mooseTransformSchema())
	assert.NotNil(t, err)

	_, err = pipeline.NewTransformer().Transform(service.NewValidatedModel("sub-1"), nil)
	assert.NotNil(t, err)
}

func TestTransformerRejectsUnmappedSheet(t *testing.T) {
	model := service.NewValidatedModel("sub-1")
	model.Sheets = append(model.Sheets, &service.ValidatedSheet{Name: "somewhere_else"})

	_, err := pipeline.NewTransformer().Transform(model, mooseTransformSchema())
	require.NotNil(t, err)
	precondition := &common.PreconditionError{}
	assert.ErrorAs(t, err, &precondition)
}

func TestTransformerVocabularyMissKeepsRawValue(t *testing.T) {
	model := observationRow(map[string]service.CellValue{
		"survey_date": surveyDate("2024-01-15"),
		"site_id":     service.StringCell("S-01"),
		"age_class":   service.StringCell("X"), // not in vocabulary
		"bull_count":  service.NumberCell("1", 1),
	})

	archive, err := pipeline.NewTransformer().Transform(model, mooseTransformSchema())
	require.Nil(t, err)
	require.Equal(t, 1, len(archive.Occurrences))
	assert.Equal(t, "X", archive.Occurrences[0].LifeStage)
}

package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wildobs/submission-services/constants"
	"github.com/wildobs/submission-services/models/common"
	"github.com/wildobs/submission-services/models/service"
	"github.com/wildobs/submission-services/pipeline"
	"github.com/wildobs/submission-services/spreadsheet"
)

func floatPtr(v float64) *float64 {
	return &v
}

// aerialSurveySchema describes a two-sheet template: observation rows
// keyed by site, plus a sites reference sheet.
func aerialSurveySchema() *service.ValidationSchema {
	return &service.ValidationSchema{
		TemplateName:    "moose_aerial",
		TemplateVersion: "2.0",
		Sheets: []service.SheetDef{
			{
				Name:     "observations",
				Required: true,
				Columns: []service.ColumnDef{
					{Name: "survey_date", Required: true, RequireValue: true, Type: constants.CellTypeDate},
					{Name: "site_id", Required: true, RequireValue: true},
					{Name: "taxon_code", Required: true, RequireValue: true, Type: constants.CellTypeCode,
						AllowedCodes: []string{"M-ALAM", "M-RATA"}},
					{Name: "count", Required: true, Type: constants.CellTypeNumber,
						Min: floatPtr(0), Max: floatPtr(500)},
				},
				References: []service.ReferenceRule{
					{Column: "site_id", TargetSheet: "sites", TargetColumn: "site_id"},
				},
			},
			{
				Name:      "sites",
				Required:  true,
				KeyColumn: "site_id",
				Columns: []service.ColumnDef{
					{Name: "site_id", Required: true, RequireValue: true},
					{Name: "latitude", Required: true, Type: constants.CellTypeNumber,
						Min: floatPtr(-90), Max: floatPtr(90)},
					{Name: "longitude", Required: true, Type: constants.CellTypeNumber,
						Min: floatPtr(-180), Max: floatPtr(180)},
				},
			},
		},
	}
}

func aerialSurveyWorkbook() *spreadsheet.RawWorkbook {
	return &spreadsheet.RawWorkbook{
		Sheets: []*spreadsheet.RawSheet{
			{
				Name:    "observations",
				Headers: []string{"survey_date", "site_id", "taxon_code", "count"},
				Rows: [][]string{
					{"2024-01-15", "S-01", "M-ALAM", "4"},
					{"2024-01-16", "S-02", "M-ALAM", "2"},
				},
			},
			{
				Name:    "sites",
				Headers: []string{"site_id", "latitude", "longitude"},
				Rows: [][]string{
					{"S-01", "61.2", "-149.9"},
					{"S-02", "61.4", "-150.1"},
				},
			},
		},
	}
}

func TestValidatorAcceptsCleanWorkbook(t *testing.T) {
	model, err := pipeline.NewValidator().Validate(aerialSurveyWorkbook(), aerialSurveySchema())
	require.Nil(t, err)
	require.NotNil(t, model)
	assert.True(t, model.IsValid())
	assert.Empty(t, model.Issues)

	obs := model.Sheet("observations")
	require.NotNil(t, obs)
	require.Equal(t, 2, len(obs.Rows))
	assert.Equal(t, constants.CellTypeDate, obs.Rows[0]["survey_date"].Kind)
	assert.Equal(t, "2024-01-15", obs.Rows[0]["survey_date"].String())
	assert.Equal(t, constants.CellTypeNumber, obs.Rows[0]["count"].Kind)
	assert.Equal(t, 4.0, obs.Rows[0]["count"].Num)
}

func TestValidatorRejectsNilInputs(t *testing.T) {
	_, err := pipeline.NewValidator().Validate(nil, aerialSurveySchema())
	require.NotNil(t, err)
	malformed := &common.MalformedInputError{}
	assert.ErrorAs(t, err, &malformed)

	_, err = pipeline.NewValidator().Validate(aerialSurveyWorkbook(), nil)
	assert.NotNil(t, err)
}

func TestValidatorEmptyWorkbook(t *testing.T) {
	workbook := &spreadsheet.RawWorkbook{
		Sheets: []*spreadsheet.RawSheet{
			{Name: "observations", Headers: []string{"survey_date"}},
		},
	}
	model, err := pipeline.NewValidator().Validate(workbook, aerialSurveySchema())
	require.Nil(t, err)
	require.Equal(t, 1, len(model.Issues))
	assert.Equal(t, constants.MsgEmptySubmission, model.Issues[0].Type)
	assert.False(t, model.IsValid())
}

func TestValidatorMissingRequiredSheet(t *testing.T) {
	workbook := aerialSurveyWorkbook()
	workbook.Sheets = workbook.Sheets[:1] // drop sites

	model, err := pipeline.NewValidator().Validate(workbook, aerialSurveySchema())
	require.Nil(t, err)
	require.Equal(t, 1, len(model.Issues))
	assert.Equal(t, constants.MsgMissingRequiredSheet, model.Issues[0].Type)
	assert.Equal(t, "sites", model.Issues[0].Sheet)
}

func TestValidatorMissingRequiredColumn(t *testing.T) {
	workbook := aerialSurveyWorkbook()
	obs := workbook.Sheets[0]
	obs.Headers = []string{"site_id", "taxon_code", "count"}
	obs.Rows = [][]string{
		{"S-01", "M-ALAM", "9000"}, // count also out of range
		{"S-02", "M-ALAM", "2"},
	}

	model, err := pipeline.NewValidator().Validate(workbook, aerialSurveySchema())
	require.Nil(t, err)
	assert.False(t, model.IsValid())

	types := issueTypes(model)
	assert.Contains(t, types, constants.MsgMissingRequiredHeader)
	// Missing header also means every row is missing its required
	// survey_date value.
	assert.Contains(t, types, constants.MsgMissingRequiredField)
	// The content phase must not run on a structurally broken file,
	// so the out-of-range count is not reported yet.
	assert.NotContains(t, types, constants.MsgOutOfRange)
}

func TestValidatorReportsEveryViolation(t *testing.T) {
	workbook := aerialSurveyWorkbook()
	obs := workbook.Sheets[0]
	obs.Rows = [][]string{
		{"not-a-date", "S-01", "M-ALAM", "4"}, // bad date
		{"2024-01-16", "", "M-ALAM", "2"},     // missing site_id
		{"2024-01-17", "S-02", "M-WOLF", "1"}, // unknown code
	}

	model, err := pipeline.NewValidator().Validate(workbook, aerialSurveySchema())
	require.Nil(t, err)
	require.Equal(t, 3, len(model.Issues))

	types := issueTypes(model)
	assert.Contains(t, types, constants.MsgInvalidValue)
	assert.Contains(t, types, constants.MsgMissingRequiredField)
	assert.Contains(t, types, constants.MsgUnknownCode)

	// Issues carry one-based data row addresses.
	assert.Equal(t, 1, model.Issues[0].Row)
	assert.Equal(t, "observations", model.Issues[0].Sheet)
}

func TestValidatorContentPhaseRanges(t *testing.T) {
	workbook := aerialSurveyWorkbook()
	workbook.Sheets[1].Rows = [][]string{
		{"S-01", "95.0", "-149.9"}, // latitude above max
		{"S-02", "61.4", "-150.1"},
	}

	model, err := pipeline.NewValidator().Validate(workbook, aerialSurveySchema())
	require.Nil(t, err)
	require.Equal(t, 1, len(model.Issues))
	assert.Equal(t, constants.MsgOutOfRange, model.Issues[0].Type)
	assert.Equal(t, "sites", model.Issues[0].Sheet)
	assert.Equal(t, 1, model.Issues[0].Row)
	assert.Equal(t, "latitude", model.Issues[0].Column)
}

func TestValidatorContentPhaseKeyUniqueness(t *testing.T) {
	workbook := aerialSurveyWorkbook()
	workbook.Sheets[1].Rows = [][]string{
		{"S-01", "61.2", "-149.9"},
		{"S-01", "61.4", "-150.1"}, // duplicate key
	}
	workbook.Sheets[0].Rows = [][]string{
		{"2024-01-15", "S-01", "M-ALAM", "4"},
	}

	model, err := pipeline.NewValidator().Validate(workbook, aerialSurveySchema())
	require.Nil(t, err)
	require.Equal(t, 1, len(model.Issues))
	assert.Equal(t, constants.MsgNonUniqueKey, model.Issues[0].Type)
	assert.Equal(t, 2, model.Issues[0].Row)
}

func TestValidatorContentPhaseDanglingReference(t *testing.T) {
	workbook := aerialSurveyWorkbook()
	workbook.Sheets[0].Rows = [][]string{
		{"2024-01-15", "S-99", "M-ALAM", "4"}, // no such site
	}

	model, err := pipeline.NewValidator().Validate(workbook, aerialSurveySchema())
	require.Nil(t, err)
	require.Equal(t, 1, len(model.Issues))
	assert.Equal(t, constants.MsgDanglingReference, model.Issues[0].Type)
	assert.Equal(t, "site_id", model.Issues[0].Column)
}

func TestValidatorContentPhaseDuplicateHeader(t *testing.T) {
	workbook := aerialSurveyWorkbook()
	obs := workbook.Sheets[0]
	obs.Headers = append(obs.Headers, "count")
	obs.Rows = [][]string{
		{"2024-01-15", "S-01", "M-ALAM", "4", "7"},
	}

	model, err := pipeline.NewValidator().Validate(workbook, aerialSurveySchema())
	require.Nil(t, err)
	require.Equal(t, 1, len(model.Issues))
	assert.Equal(t, constants.MsgDuplicateHeader, model.Issues[0].Type)
	assert.Equal(t, "count", model.Issues[0].Column)
}

func issueTypes(model *service.ValidatedModel) []string {
	types := make([]string, 0, len(model.Issues))
	for _, issue := range model.Issues {
		types = append(types, issue.Type)
	}
	return types
}

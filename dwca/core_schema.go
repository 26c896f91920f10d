package dwca

import (
	"github.com/wildobs/submission-services/constants"
	"github.com/wildobs/submission-services/models/service"
)

// CoreSchema returns the built-in validation schema for Darwin Core
// structural constraints. Transformed archives are re-validated
// against this before scraping; pre-built archive submissions are
// validated against it directly.
func CoreSchema() *service.ValidationSchema {
	return &service.ValidationSchema{
		TemplateName:    "darwin_core",
		TemplateVersion: "1.0",
		Sheets: []service.SheetDef{
			{
				Name:      constants.RowTypeEvent,
				Required:  true,
				KeyColumn: "eventID",
				Columns: []service.ColumnDef{
					{Name: "eventID", Required: true, RequireValue: true},
					{Name: "eventDate", Required: true, RequireValue: true, Type: constants.CellTypeDate},
					{Name: "decimalLatitude", Type: constants.CellTypeNumber, Min: f(-90), Max: f(90)},
					{Name: "decimalLongitude", Type: constants.CellTypeNumber, Min: f(-180), Max: f(180)},
				},
			},
			{
				Name:      constants.RowTypeOccurrence,
				Required:  true,
				KeyColumn: "occurrenceID",
				Columns: []service.ColumnDef{
					{Name: "occurrenceID", Required: true, RequireValue: true},
					{Name: "eventID", Required: true, RequireValue: true},
					{Name: "taxonID", Required: true, RequireValue: true},
					{Name: "individualCount", Type: constants.CellTypeNumber, Min: f(0)},
				},
				References: []service.ReferenceRule{
					{Column: "eventID", TargetSheet: constants.RowTypeEvent, TargetColumn: "eventID"},
				},
			},
			{
				Name:      constants.RowTypeTaxon,
				KeyColumn: "taxonID",
				Columns: []service.ColumnDef{
					{Name: "taxonID", Required: true, RequireValue: true},
					{Name: "scientificName", Required: true, RequireValue: true},
				},
			},
			{
				Name: constants.RowTypeMeasurement,
				Columns: []service.ColumnDef{
					{Name: "measurementID", Required: true, RequireValue: true},
					{Name: "measurementType", Required: true, RequireValue: true},
					{Name: "measurementValue", Required: true, RequireValue: true},
				},
			},
		},
	}
}

func f(v float64) *float64 {
	return &v
}

package dwca

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/xml"
	"fmt"

	"github.com/wildobs/submission-services/constants"
	"github.com/wildobs/submission-services/models/service"
	"github.com/wildobs/submission-services/spreadsheet"
)

var eventHeaders = []string{
	"eventID", "eventDate", "locality", "decimalLatitude",
	"decimalLongitude", "samplingProtocol", "verbatimElevation",
	"eventRemarks",
}

var occurrenceHeaders = []string{
	"occurrenceID", "eventID", "taxonID", "scientificName",
	"individualCount", "lifeStage", "sex", "occurrenceStatus",
}

var taxonHeaders = []string{
	"taxonID", "scientificName", "vernacularName", "taxonRank",
}

var measurementHeaders = []string{
	"measurementID", "eventID", "occurrenceID", "measurementType",
	"measurementValue", "measurementUnit",
}

// WorkbookFromArchive renders a canonical archive as a workbook, one
// sheet per row type, so the validator can re-check transformed
// output against the Darwin Core structural schema.
func WorkbookFromArchive(archive *service.CanonicalArchive) *spreadsheet.RawWorkbook {
	workbook := &spreadsheet.RawWorkbook{Sheets: make([]*spreadsheet.RawSheet, 0, 4)}

	events := &spreadsheet.RawSheet{Name: constants.RowTypeEvent, Headers: eventHeaders}
	for _, e := range archive.Events {
		events.Rows = append(events.Rows, []string{
			e.EventID, e.EventDate, e.Locality, e.DecimalLatitude,
			e.DecimalLongitude, e.SamplingProtocol, e.VerbatimElevation,
			e.EventRemarks,
		})
	}
	workbook.Sheets = append(workbook.Sheets, events)

	occurrences := &spreadsheet.RawSheet{Name: constants.RowTypeOccurrence, Headers: occurrenceHeaders}
	for _, o := range archive.Occurrences {
		occurrences.Rows = append(occurrences.Rows, []string{
			o.OccurrenceID, o.EventID, o.TaxonID, o.ScientificName,
			o.IndividualCount, o.LifeStage, o.Sex, o.OccurrenceStatus,
		})
	}
	workbook.Sheets = append(workbook.Sheets, occurrences)

	if len(archive.Taxa) > 0 {
		taxa := &spreadsheet.RawSheet{Name: constants.RowTypeTaxon, Headers: taxonHeaders}
		for _, tx := range archive.Taxa {
			taxa.Rows = append(taxa.Rows, []string{
				tx.TaxonID, tx.ScientificName, tx.VernacularName, tx.TaxonRank,
			})
		}
		workbook.Sheets = append(workbook.Sheets, taxa)
	}

	if len(archive.Measurements) > 0 {
		measurements := &spreadsheet.RawSheet{Name: constants.RowTypeMeasurement, Headers: measurementHeaders}
		for _, m := range archive.Measurements {
			measurements.Rows = append(measurements.Rows, []string{
				m.MeasurementID, m.EventID, m.OccurrenceID,
				m.MeasurementType, m.MeasurementValue, m.MeasurementUnit,
			})
		}
		workbook.Sheets = append(workbook.Sheets, measurements)
	}

	return workbook
}

// Write serializes a canonical archive as a Darwin Core Archive zip:
// meta.xml plus one CSV per non-empty row type, event core first.
func Write(archive *service.CanonicalArchive) ([]byte, error) {
	workbook := WorkbookFromArchive(archive)
	buf := &bytes.Buffer{}
	zipWriter := zip.NewWriter(buf)

	meta := &metaFile{Xmlns: dwcTextNamespace}
	for i, sheet := range workbook.Sheets {
		location := fmt.Sprintf("%s.csv", sheet.Name)
		entry := metaEntry{
			RowType: sheetNameToIRI[sheet.Name],
			Files:   metaLocation{Location: location},
		}
		if i == 0 {
			meta.Core = entry
		} else {
			meta.Extension = append(meta.Extension, entry)
		}
		if err := writeSheet(zipWriter, location, sheet); err != nil {
			return nil, err
		}
	}

	metaData, err := xml.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, err
	}
	f, err := zipWriter.Create(constants.MetaFileName)
	if err != nil {
		return nil, err
	}
	if _, err = f.Write(append([]byte(xml.Header), metaData...)); err != nil {
		return nil, err
	}
	if err = zipWriter.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeSheet(zipWriter *zip.Writer, location string, sheet *spreadsheet.RawSheet) error {
	f, err := zipWriter.Create(location)
	if err != nil {
		return err
	}
	csvWriter := csv.NewWriter(f)
	if err = csvWriter.Write(sheet.Headers); err != nil {
		return err
	}
	for _, row := range sheet.Rows {
		if err = csvWriter.Write(row); err != nil {
			return err
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

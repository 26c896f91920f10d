package dwca

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/xml"
	"io"
	"strings"

	"github.com/wildobs/submission-services/constants"
	"github.com/wildobs/submission-services/models/common"
	"github.com/wildobs/submission-services/models/service"
	"github.com/wildobs/submission-services/spreadsheet"
)

// Read parses Darwin Core Archive bytes into a workbook whose sheets
// are named by short row type (event, occurrence, ...), so the same
// validator that checks spreadsheet templates can check archives.
func Read(data []byte) (*spreadsheet.RawWorkbook, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, common.NewMalformedInputError("cannot open archive zip", err)
	}

	members := make(map[string]*zip.File, len(reader.File))
	for _, member := range reader.File {
		members[member.Name] = member
	}

	metaMember := members[constants.MetaFileName]
	if metaMember == nil {
		return nil, common.NewMalformedInputError("archive has no meta.xml", nil)
	}
	meta, err := parseMeta(metaMember)
	if err != nil {
		return nil, err
	}

	workbook := &spreadsheet.RawWorkbook{Sheets: make([]*spreadsheet.RawSheet, 0)}
	entries := append([]metaEntry{meta.Core}, meta.Extension...)
	for _, entry := range entries {
		name := iriToSheetName[entry.RowType]
		if name == "" {
			// Unknown row types pass through under their IRI leaf so
			// the validator can report them instead of losing them.
			name = strings.ToLower(entry.RowType[strings.LastIndex(entry.RowType, "/")+1:])
		}
		member := members[entry.Files.Location]
		if member == nil {
			return nil, common.NewMalformedInputError(
				"archive member "+entry.Files.Location+" named in meta.xml is missing", nil)
		}
		sheet, err := readSheet(member, name)
		if err != nil {
			return nil, err
		}
		workbook.Sheets = append(workbook.Sheets, sheet)
	}
	return workbook, nil
}

// ArchiveFromWorkbook builds canonical records from a workbook read
// out of an uploaded archive. Columns are matched by Darwin Core term
// name; terms the archive does not carry are left empty.
func ArchiveFromWorkbook(workbook *spreadsheet.RawWorkbook, submissionID string) *service.CanonicalArchive {
	archive := &service.CanonicalArchive{SubmissionID: submissionID}

	if sheet := workbook.Sheet(constants.RowTypeEvent); sheet != nil {
		for _, row := range sheet.Rows {
			get := cellGetter(sheet.Headers, row)
			archive.Events = append(archive.Events, &service.EventRecord{
				EventID:           get("eventID"),
				EventDate:         get("eventDate"),
				Locality:          get("locality"),
				DecimalLatitude:   get("decimalLatitude"),
				DecimalLongitude:  get("decimalLongitude"),
				SamplingProtocol:  get("samplingProtocol"),
				VerbatimElevation: get("verbatimElevation"),
				EventRemarks:      get("eventRemarks"),
			})
		}
	}
	if sheet := workbook.Sheet(constants.RowTypeOccurrence); sheet != nil {
		for _, row := range sheet.Rows {
			get := cellGetter(sheet.Headers, row)
			archive.Occurrences = append(archive.Occurrences, &service.OccurrenceRecord{
				OccurrenceID:     get("occurrenceID"),
				EventID:          get("eventID"),
				TaxonID:          get("taxonID"),
				ScientificName:   get("scientificName"),
				IndividualCount:  get("individualCount"),
				LifeStage:        get("lifeStage"),
				Sex:              get("sex"),
				OccurrenceStatus: get("occurrenceStatus"),
			})
		}
	}
	if sheet := workbook.Sheet(constants.RowTypeTaxon); sheet != nil {
		for _, row := range sheet.Rows {
			get := cellGetter(sheet.Headers, row)
			archive.Taxa = append(archive.Taxa, &service.TaxonRecord{
				TaxonID:        get("taxonID"),
				ScientificName: get("scientificName"),
				VernacularName: get("vernacularName"),
				TaxonRank:      get("taxonRank"),
			})
		}
	}
	if sheet := workbook.Sheet(constants.RowTypeMeasurement); sheet != nil {
		for _, row := range sheet.Rows {
			get := cellGetter(sheet.Headers, row)
			archive.Measurements = append(archive.Measurements, &service.MeasurementRecord{
				MeasurementID:    get("measurementID"),
				EventID:          get("eventID"),
				OccurrenceID:     get("occurrenceID"),
				MeasurementType:  get("measurementType"),
				MeasurementValue: get("measurementValue"),
				MeasurementUnit:  get("measurementUnit"),
			})
		}
	}
	return archive
}

func cellGetter(headers []string, row []string) func(string) string {
	return func(header string) string {
		for i, h := range headers {
			if h == header && i < len(row) {
				return strings.TrimSpace(row[i])
			}
		}
		return ""
	}
}

func parseMeta(member *zip.File) (*metaFile, error) {
	f, err := member.Open()
	if err != nil {
		return nil, common.NewMalformedInputError("cannot open meta.xml", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, common.NewMalformedInputError("cannot read meta.xml", err)
	}
	meta := &metaFile{}
	if err = xml.Unmarshal(data, meta); err != nil {
		return nil, common.NewMalformedInputError("cannot parse meta.xml", err)
	}
	if meta.Core.Files.Location == "" {
		return nil, common.NewMalformedInputError("meta.xml has no core file", nil)
	}
	return meta, nil
}

func readSheet(member *zip.File, name string) (*spreadsheet.RawSheet, error) {
	f, err := member.Open()
	if err != nil {
		return nil, common.NewMalformedInputError("cannot open archive member "+member.Name, err)
	}
	defer f.Close()
	csvReader := csv.NewReader(f)
	csvReader.FieldsPerRecord = -1
	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, common.NewMalformedInputError("cannot parse archive member "+member.Name, err)
	}
	sheet := &spreadsheet.RawSheet{Name: name, Rows: make([][]string, 0)}
	for i, record := range records {
		if i == 0 {
			sheet.Headers = record
			continue
		}
		sheet.Rows = append(sheet.Rows, record)
	}
	return sheet, nil
}

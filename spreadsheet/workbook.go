// Package spreadsheet parses raw submission bytes into an untyped
// workbook. A submission is either a bare CSV (one sheet) or a zip
// whose .csv members are the sheets of a multi-sheet template. The
// parser makes no judgment about content; that is the validator's
// job. Only unreadable input is an error here.
package spreadsheet

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"io"
	"path"
	"strings"

	"github.com/wildobs/submission-services/models/common"
	"github.com/wildobs/submission-services/util"
)

// RawSheet is one sheet of raw string cells. Headers is the first
// row as-is, duplicates included; the validator reports duplicate
// headers, so the parser must not collapse them.
type RawSheet struct {
	Name    string
	Headers []string
	Rows    [][]string
}

type RawWorkbook struct {
	Sheets []*RawSheet
}

func (w *RawWorkbook) Sheet(name string) *RawSheet {
	for _, sheet := range w.Sheets {
		if sheet.Name == name {
			return sheet
		}
	}
	return nil
}

// IsEmpty reports whether the workbook has no data rows anywhere.
func (w *RawWorkbook) IsEmpty() bool {
	for _, sheet := range w.Sheets {
		if len(sheet.Rows) > 0 {
			return false
		}
	}
	return true
}

// Parse reads submission bytes into a workbook. Zip input yields one
// sheet per .csv member, named after the member minus its extension.
// Bare CSV input yields a single sheet named defaultSheetName.
func Parse(data []byte, defaultSheetName string) (*RawWorkbook, error) {
	if util.IsZipData(data) {
		return parseZip(data)
	}
	sheet, err := parseCSV(bytes.NewReader(data), defaultSheetName)
	if err != nil {
		return nil, err
	}
	return &RawWorkbook{Sheets: []*RawSheet{sheet}}, nil
}

func parseZip(data []byte) (*RawWorkbook, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, common.NewMalformedInputError("cannot open workbook zip", err)
	}
	workbook := &RawWorkbook{Sheets: make([]*RawSheet, 0)}
	for _, member := range reader.File {
		if !util.LooksLikeCSV(member.Name) {
			continue
		}
		f, err := member.Open()
		if err != nil {
			return nil, common.NewMalformedInputError(
				"cannot open zip member "+member.Name, err)
		}
		sheet, err := parseCSV(f, sheetName(member.Name))
		f.Close()
		if err != nil {
			return nil, err
		}
		workbook.Sheets = append(workbook.Sheets, sheet)
	}
	return workbook, nil
}

func parseCSV(r io.Reader, name string) (*RawSheet, error) {
	csvReader := csv.NewReader(r)
	// Templates may have ragged rows; the validator addresses cells
	// by header position, so don't reject them here.
	csvReader.FieldsPerRecord = -1
	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, common.NewMalformedInputError("cannot parse CSV sheet "+name, err)
	}
	sheet := &RawSheet{Name: name, Rows: make([][]string, 0)}
	for i, record := range records {
		if i == 0 {
			sheet.Headers = trimAll(record)
			continue
		}
		if isBlankRow(record) {
			continue
		}
		sheet.Rows = append(sheet.Rows, record)
	}
	return sheet, nil
}

func sheetName(memberName string) string {
	base := path.Base(memberName)
	return strings.TrimSuffix(base, path.Ext(base))
}

func trimAll(record []string) []string {
	trimmed := make([]string, len(record))
	for i, field := range record {
		trimmed[i] = strings.TrimSpace(field)
	}
	return trimmed
}

func isBlankRow(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

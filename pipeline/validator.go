package pipeline

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wildobs/submission-services/constants"
	"github.com/wildobs/submission-services/models/common"
	"github.com/wildobs/submission-services/models/service"
	"github.com/wildobs/submission-services/spreadsheet"
	"github.com/wildobs/submission-services/util"
)

// Validator applies a validation schema to a raw workbook. Data
// problems are collected as issues on the returned model, never
// returned as errors; the full file is checked so a depositor sees
// every problem at once, not just the first. Only unreadable input
// or a nil schema is an error.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

func (v *Validator) Validate(workbook *spreadsheet.RawWorkbook, schema *service.ValidationSchema) (*service.ValidatedModel, error) {
	if workbook == nil {
		return nil, common.NewMalformedInputError("no workbook to validate", nil)
	}
	if schema == nil {
		return nil, common.NewMalformedInputError("no validation schema", nil)
	}

	model := service.NewValidatedModel("")

	// An empty file yields one file-level issue rather than zero
	// issues: zero issues must mean "validated", never "nothing to
	// validate".
	if workbook.IsEmpty() {
		model.AddIssue(service.NewIssue(constants.MsgEmptySubmission,
			"Submission contains no data rows"))
		return model, nil
	}

	v.structuralPhase(workbook, schema, model)
	if model.IsValid() {
		v.contentPhase(workbook, schema, model)
	}
	return model, nil
}

// structuralPhase confirms required sheets and columns exist, required
// cells are non-empty, and cell values match their declared types.
// It also builds the typed rows of the model.
func (v *Validator) structuralPhase(workbook *spreadsheet.RawWorkbook, schema *service.ValidationSchema, model *service.ValidatedModel) {
	for _, sheetDef := range schema.Sheets {
		raw := workbook.Sheet(sheetDef.Name)
		if raw == nil {
			if sheetDef.Required {
				model.AddIssue(service.NewCellIssue(constants.MsgMissingRequiredSheet,
					fmt.Sprintf("Missing required sheet %s", sheetDef.Name),
					sheetDef.Name, 0, ""))
			}
			continue
		}
		v.validateSheet(raw, &sheetDef, model)
	}
}

func (v *Validator) validateSheet(raw *spreadsheet.RawSheet, sheetDef *service.SheetDef, model *service.ValidatedModel) {
	headerIndex := make(map[string]int, len(raw.Headers))
	for i, header := range raw.Headers {
		if _, seen := headerIndex[header]; !seen {
			headerIndex[header] = i
		}
	}

	for _, colDef := range sheetDef.Columns {
		if colDef.Required {
			if _, ok := headerIndex[colDef.Name]; !ok {
				model.AddIssue(service.NewCellIssue(constants.MsgMissingRequiredHeader,
					fmt.Sprintf("Missing required column %s", colDef.Name),
					raw.Name, 0, colDef.Name))
			}
		}
	}

	validated := &service.ValidatedSheet{
		Name:    raw.Name,
		Headers: raw.Headers,
		Rows:    make([]service.ValidatedRow, 0, len(raw.Rows)),
	}
	for rowNum, rawRow := range raw.Rows {
		row := make(service.ValidatedRow, len(sheetDef.Columns))
		for _, colDef := range sheetDef.Columns {
			idx, ok := headerIndex[colDef.Name]
			if !ok || idx >= len(rawRow) {
				if colDef.RequireValue && ok {
					model.AddIssue(service.NewCellIssue(constants.MsgMissingRequiredField,
						fmt.Sprintf("Required value %s is missing", colDef.Name),
						raw.Name, rowNum+1, colDef.Name))
				}
				continue
			}
			value := strings.TrimSpace(rawRow[idx])
			if value == "" {
				if colDef.RequireValue {
					model.AddIssue(service.NewCellIssue(constants.MsgMissingRequiredField,
						fmt.Sprintf("Required value %s is missing", colDef.Name),
						raw.Name, rowNum+1, colDef.Name))
				}
				row[colDef.Name] = service.StringCell("")
				continue
			}
			row[colDef.Name] = v.typedCell(value, &colDef, raw.Name, rowNum+1, model)
		}
		validated.Rows = append(validated.Rows, row)
	}
	model.Sheets = append(model.Sheets, validated)
}

func (v *Validator) typedCell(value string, colDef *service.ColumnDef, sheetName string, rowNum int, model *service.ValidatedModel) service.CellValue {
	switch colDef.Type {
	case constants.CellTypeNumber:
		num, err := strconv.ParseFloat(value, 64)
		if err != nil {
			model.AddIssue(service.NewCellIssue(constants.MsgInvalidValue,
				fmt.Sprintf("Value %q is not a number", value),
				sheetName, rowNum, colDef.Name))
			return service.StringCell(value)
		}
		return service.NumberCell(value, num)
	case constants.CellTypeDate:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, value); err == nil {
				return service.DateCell(value, t)
			}
		}
		model.AddIssue(service.NewCellIssue(constants.MsgInvalidValue,
			fmt.Sprintf("Value %q is not a recognizable date", value),
			sheetName, rowNum, colDef.Name))
		return service.StringCell(value)
	case constants.CellTypeBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			model.AddIssue(service.NewCellIssue(constants.MsgInvalidValue,
				fmt.Sprintf("Value %q is not a boolean", value),
				sheetName, rowNum, colDef.Name))
			return service.StringCell(value)
		}
		return service.BoolCell(value, b)
	case constants.CellTypeCode:
		if !util.StringListContains(colDef.AllowedCodes, value) {
			model.AddIssue(service.NewCellIssue(constants.MsgUnknownCode,
				fmt.Sprintf("Value %q is not in the %s code list", value, colDef.Name),
				sheetName, rowNum, colDef.Name))
		}
		return service.StringCell(value)
	default:
		return service.StringCell(value)
	}
}

// contentPhase applies cross-field and business rules. It runs only
// when the structural phase produced zero issues, so it can assume
// the model's cells are well typed.
func (v *Validator) contentPhase(workbook *spreadsheet.RawWorkbook, schema *service.ValidationSchema, model *service.ValidatedModel) {
	for _, sheetDef := range schema.Sheets {
		raw := workbook.Sheet(sheetDef.Name)
		if raw == nil {
			continue
		}
		v.checkDuplicateHeaders(raw, model)
		sheet := model.Sheet(sheetDef.Name)
		if sheet == nil {
			continue
		}
		v.checkRanges(sheet, &sheetDef, model)
		if sheetDef.KeyColumn != "" {
			v.checkKeyUniqueness(sheet, sheetDef.KeyColumn, model)
		}
		for _, ref := range sheetDef.References {
			v.checkReference(sheet, &ref, model)
		}
	}
}

func (v *Validator) checkDuplicateHeaders(raw *spreadsheet.RawSheet, model *service.ValidatedModel) {
	seen := make(map[string]bool, len(raw.Headers))
	for _, header := range raw.Headers {
		if header == "" {
			continue
		}
		if seen[header] {
			model.AddIssue(service.NewCellIssue(constants.MsgDuplicateHeader,
				fmt.Sprintf("Duplicate column %s", header),
				raw.Name, 0, header))
		}
		seen[header] = true
	}
}

func (v *Validator) checkRanges(sheet *service.ValidatedSheet, sheetDef *service.SheetDef, model *service.ValidatedModel) {
	for _, colDef := range sheetDef.Columns {
		if colDef.Min == nil && colDef.Max == nil {
			continue
		}
		for rowNum, row := range sheet.Rows {
			cell, ok := row[colDef.Name]
			if !ok || cell.IsEmpty() || cell.Kind != constants.CellTypeNumber {
				continue
			}
			if colDef.Min != nil && cell.Num < *colDef.Min {
				model.AddIssue(service.NewCellIssue(constants.MsgOutOfRange,
					fmt.Sprintf("Value %s is below the minimum %g", cell.Raw, *colDef.Min),
					sheet.Name, rowNum+1, colDef.Name))
			}
			if colDef.Max != nil && cell.Num > *colDef.Max {
				model.AddIssue(service.NewCellIssue(constants.MsgOutOfRange,
					fmt.Sprintf("Value %s is above the maximum %g", cell.Raw, *colDef.Max),
					sheet.Name, rowNum+1, colDef.Name))
			}
		}
	}
}

func (v *Validator) checkKeyUniqueness(sheet *service.ValidatedSheet, keyColumn string, model *service.ValidatedModel) {
	seen := make(map[string]int, len(sheet.Rows))
	for rowNum, row := range sheet.Rows {
		cell, ok := row[keyColumn]
		if !ok || cell.IsEmpty() {
			continue
		}
		key := cell.String()
		if firstRow, dup := seen[key]; dup {
			model.AddIssue(service.NewCellIssue(constants.MsgNonUniqueKey,
				fmt.Sprintf("Value %q in %s repeats row %d", key, keyColumn, firstRow),
				sheet.Name, rowNum+1, keyColumn))
			continue
		}
		seen[key] = rowNum + 1
	}
}

func (v *Validator) checkReference(sheet *service.ValidatedSheet, ref *service.ReferenceRule, model *service.ValidatedModel) {
	target := model.Sheet(ref.TargetSheet)
	if target == nil {
		return
	}
	known := make(map[string]bool, len(target.Rows))
	for _, row := range target.Rows {
		if cell, ok := row[ref.TargetColumn]; ok {
			known[cell.String()] = true
		}
	}
	for rowNum, row := range sheet.Rows {
		cell, ok := row[ref.Column]
		if !ok || cell.IsEmpty() {
			continue
		}
		if !known[cell.String()] {
			model.AddIssue(service.NewCellIssue(constants.MsgDanglingReference,
				fmt.Sprintf("Value %q has no match in %s.%s",
					cell.String(), ref.TargetSheet, ref.TargetColumn),
				sheet.Name, rowNum+1, ref.Column))
		}
	}
}

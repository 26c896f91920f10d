package service

import "encoding/json"

// Validation and transformation schemas are versioned, declarative
// rule documents published by rule authors and stored as JSON. They
// are immutable once published; the pipeline looks them up and applies
// them, never edits them.

// ColumnDef declares the rules for one column of a sheet.
type ColumnDef struct {
	// Name is the header name. Column order in the file is
	// irrelevant; presence by name is what is checked.
	Name string `json:"name"`

	// Required means the header must be present in the sheet.
	Required bool `json:"required"`

	// RequireValue means every data row must have a non-empty cell
	// in this column.
	RequireValue bool `json:"require_value,omitempty"`

	// Type is one of the constants.CellType* values. Empty means
	// string.
	Type string `json:"type,omitempty"`

	// AllowedCodes restricts values to a code list when Type is
	// "code".
	AllowedCodes []string `json:"allowed_codes,omitempty"`

	// Min and Max bound numeric values when set.
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// ReferenceRule declares that values in Column must appear in
// TargetColumn of TargetSheet. Checked in the content phase.
type ReferenceRule struct {
	Column       string `json:"column"`
	TargetSheet  string `json:"target_sheet"`
	TargetColumn string `json:"target_column"`
}

// SheetDef declares the rules for one sheet of a template.
type SheetDef struct {
	Name     string      `json:"name"`
	Required bool        `json:"required"`
	Columns  []ColumnDef `json:"columns"`

	// KeyColumn, when set, must hold a unique value in every row.
	KeyColumn string `json:"key_column,omitempty"`

	References []ReferenceRule `json:"references,omitempty"`
}

type ValidationSchema struct {
	TemplateName    string     `json:"template_name"`
	TemplateVersion string     `json:"template_version"`
	SpeciesID       string     `json:"species_id,omitempty"`
	Sheets          []SheetDef `json:"sheets"`
}

func (s *ValidationSchema) Sheet(name string) *SheetDef {
	for i := range s.Sheets {
		if s.Sheets[i].Name == name {
			return &s.Sheets[i]
		}
	}
	return nil
}

func ValidationSchemaFromJSON(jsonData []byte) (*ValidationSchema, error) {
	schema := &ValidationSchema{}
	err := json.Unmarshal(jsonData, schema)
	if err != nil {
		return nil, err
	}
	return schema, nil
}

// ValueSource says where a canonical field's value comes from: a
// source column, or a literal. Vocabulary, when present, translates
// the raw value through a controlled-vocabulary map. Multiplier, when
// non-zero, applies a unit conversion to numeric values.
type ValueSource struct {
	Column     string            `json:"column,omitempty"`
	Literal    string            `json:"literal,omitempty"`
	Vocabulary map[string]string `json:"vocabulary,omitempty"`
	Multiplier float64           `json:"multiplier,omitempty"`
}

// OccurrenceMap produces one occurrence record per source row. A row
// may carry several of these (e.g. separate adult-male, adult-female
// and juvenile count columns), which is how one spreadsheet row splits
// into one event plus N occurrences. An occurrence is emitted only
// when its Count source yields a non-empty value.
type OccurrenceMap struct {
	TaxonID   ValueSource `json:"taxon_id"`
	Count     ValueSource `json:"count"`
	LifeStage ValueSource `json:"life_stage,omitempty"`
	Sex       ValueSource `json:"sex,omitempty"`
	Status    ValueSource `json:"status,omitempty"`
}

// MeasurementMap produces one measurement record per source row,
// emitted only when the Value source yields a non-empty value.
type MeasurementMap struct {
	Type  string      `json:"type"`
	Value ValueSource `json:"value"`
	Unit  string      `json:"unit,omitempty"`
}

// TaxonDef is a rule-document entry describing a taxon the template
// may reference.
type TaxonDef struct {
	TaxonID        string `json:"taxon_id"`
	ScientificName string `json:"scientific_name"`
	VernacularName string `json:"vernacular_name,omitempty"`
	TaxonRank      string `json:"taxon_rank,omitempty"`
}

// SheetMap declares how rows of one source sheet become canonical
// records: every row yields one event plus the occurrences and
// measurements that have values.
type SheetMap struct {
	SheetName    string                 `json:"sheet_name"`
	Event        map[string]ValueSource `json:"event"`
	Occurrences  []OccurrenceMap        `json:"occurrences"`
	Measurements []MeasurementMap       `json:"measurements,omitempty"`
}

type TransformationSchema struct {
	TemplateName    string      `json:"template_name"`
	TemplateVersion string      `json:"template_version"`
	Sheets          []SheetMap  `json:"sheets"`
	Taxa            []*TaxonDef `json:"taxa,omitempty"`
}

func (s *TransformationSchema) TaxonDef(taxonID string) *TaxonDef {
	for _, def := range s.Taxa {
		if def.TaxonID == taxonID {
			return def
		}
	}
	return nil
}

func TransformationSchemaFromJSON(jsonData []byte) (*TransformationSchema, error) {
	schema := &TransformationSchema{}
	err := json.Unmarshal(jsonData, schema)
	if err != nil {
		return nil, err
	}
	return schema, nil
}

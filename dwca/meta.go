// Package dwca reads and writes Darwin Core Archives: zip files
// holding a meta.xml descriptor plus one CSV per row type. Archives
// are both an input format (pre-built submissions) and the audit
// output of the transformer.
package dwca

import "encoding/xml"

const dwcTextNamespace = "http://rs.tdwg.org/dwc/text/"

// Row type IRIs from the Darwin Core text guide.
const (
	rowTypeEventIRI       = "http://rs.tdwg.org/dwc/terms/Event"
	rowTypeOccurrenceIRI  = "http://rs.tdwg.org/dwc/terms/Occurrence"
	rowTypeTaxonIRI       = "http://rs.tdwg.org/dwc/terms/Taxon"
	rowTypeMeasurementIRI = "http://rs.tdwg.org/dwc/terms/MeasurementOrFact"
)

type metaFile struct {
	XMLName   xml.Name   `xml:"archive"`
	Xmlns     string     `xml:"xmlns,attr"`
	Core      metaEntry  `xml:"core"`
	Extension []metaEntry `xml:"extension"`
}

type metaEntry struct {
	RowType  string        `xml:"rowType,attr"`
	Files    metaLocation  `xml:"files"`
}

type metaLocation struct {
	Location string `xml:"location"`
}

var iriToSheetName = map[string]string{
	rowTypeEventIRI:       "event",
	rowTypeOccurrenceIRI:  "occurrence",
	rowTypeTaxonIRI:       "taxon",
	rowTypeMeasurementIRI: "measurement",
}

var sheetNameToIRI = map[string]string{
	"event":       rowTypeEventIRI,
	"occurrence":  rowTypeOccurrenceIRI,
	"taxon":       rowTypeTaxonIRI,
	"measurement": rowTypeMeasurementIRI,
}

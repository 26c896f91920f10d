package constants

const (
	EmptyUUID         = "00000000-0000-0000-0000-000000000000"
	S3ClientAWS       = "AWS"
	S3ClientLocal     = "Local"
	SourceDarwinCore  = "dwca"
	SourceSpreadsheet = "spreadsheet"
	DefaultSheetName  = "observations"
	MetaFileName      = "meta.xml"
)

// Submission status types. These are the wire contract between the
// pipeline and any status-reporting client. Historical status records
// reference them permanently, so the set is append-only: never rename
// or repurpose an existing value.
const (
	StatusSubmitted            = "Submitted"
	StatusTemplateValidated    = "TemplateValidated"
	StatusFailedValidation     = "FailedValidation"
	StatusTemplateTransformed  = "TemplateTransformed"
	StatusFailedTransformation = "FailedTransformation"
	StatusDarwinCoreValidated  = "DarwinCoreValidated"
	StatusScrapeComplete       = "ScrapeComplete"
	StatusFailedScrape         = "FailedScrape"
	StatusSystemError          = "SystemError"
)

// Message types attached to status records. Same append-only rule as
// status types.
const (
	MsgFailedGetValidationRules     = "FailedGetValidationRules"
	MsgFailedGetTransformationRules = "FailedGetTransformationRules"
	MsgFailedParseSubmission        = "FailedParseSubmission"
	MsgFailedTransformSubmission    = "FailedTransformSubmission"
	MsgFailedDarwinCoreValidation   = "FailedDarwinCoreValidation"
	MsgFailedScrapeOccurrence       = "FailedScrapeOccurrence"
	MsgMissingRequiredSheet         = "MissingRequiredSheet"
	MsgMissingRequiredHeader        = "MissingRequiredHeader"
	MsgDuplicateHeader              = "DuplicateHeader"
	MsgNonUniqueKey                 = "NonUniqueKey"
	MsgMissingRequiredField         = "MissingRequiredField"
	MsgInvalidValue                 = "InvalidValue"
	MsgOutOfRange                   = "OutOfRange"
	MsgUnknownCode                  = "UnknownCode"
	MsgDanglingReference            = "DanglingReference"
	MsgEmptySubmission              = "EmptySubmission"
	MsgPersistenceFailure           = "PersistenceFailure"
	MsgMiscellaneous                = "Miscellaneous"
)

// Cell types a validation schema may declare for a column.
const (
	CellTypeString = "string"
	CellTypeNumber = "number"
	CellTypeDate   = "date"
	CellTypeBool   = "bool"
	CellTypeCode   = "code"
)

// Darwin Core row types used in canonical archives.
const (
	RowTypeEvent       = "event"
	RowTypeOccurrence  = "occurrence"
	RowTypeTaxon       = "taxon"
	RowTypeMeasurement = "measurement"
)

var StatusTypes = []string{
	StatusSubmitted,
	StatusTemplateValidated,
	StatusFailedValidation,
	StatusTemplateTransformed,
	StatusFailedTransformation,
	StatusDarwinCoreValidated,
	StatusScrapeComplete,
	StatusFailedScrape,
	StatusSystemError,
}

// TerminalStatuses are the statuses from which the pipeline never
// advances. A caller wanting to retry a failed submission re-invokes
// the pipeline, which starts over from validation.
var TerminalStatuses = []string{
	StatusScrapeComplete,
	StatusFailedValidation,
	StatusFailedTransformation,
	StatusFailedScrape,
	StatusSystemError,
}

func IsTerminalStatus(status string) bool {
	for _, s := range TerminalStatuses {
		if s == status {
			return true
		}
	}
	return false
}

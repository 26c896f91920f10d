package constants

// NSQ topics for the two pipeline entry points and the queue scanner.
const (
	TopicProcessSubmission = "process_submission"
	TopicProcessArchive    = "process_archive"
)

type Stage struct {
	Name     string
	Order    int64
	OnEnter  string
	OnFailed string
}

// PipelineStages lists the ordered stages of submission processing.
// OnEnter is the status recorded when a stage completes; OnFailed is
// the status recorded when it does not.
var PipelineStages = []Stage{
	{
		Name:     "validate",
		Order:    1,
		OnEnter:  StatusTemplateValidated,
		OnFailed: StatusFailedValidation,
	},
	{
		Name:     "transform",
		Order:    2,
		OnEnter:  StatusTemplateTransformed,
		OnFailed: StatusFailedTransformation,
	},
	{
		Name:     "validate_darwin_core",
		Order:    3,
		OnEnter:  StatusDarwinCoreValidated,
		OnFailed: StatusFailedValidation,
	},
	{
		Name:     "scrape",
		Order:    4,
		OnEnter:  StatusScrapeComplete,
		OnFailed: StatusFailedScrape,
	},
}

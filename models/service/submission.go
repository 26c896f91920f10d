package service

import (
	"encoding/json"
	"time"
)

// Submission describes one uploaded observation file working its way
// through the pipeline. The record is created by the intake layer
// before the pipeline runs; the pipeline reads it and appends status
// records, but never edits these fields.
type Submission struct {
	// ID is the submission's UUID, assigned at intake.
	ID string `json:"id"`

	// Source says whether the upload is a spreadsheet template or a
	// pre-built Darwin Core Archive. One of constants.SourceSpreadsheet
	// or constants.SourceDarwinCore.
	Source string `json:"source"`

	// S3Bucket and S3Key locate the raw upload in object storage.
	S3Bucket string `json:"s3_bucket,omitempty"`
	S3Key    string `json:"s3_key,omitempty"`

	// FileName is the name the depositor gave the file.
	FileName string `json:"file_name,omitempty"`

	// Size is the upload's size in bytes.
	Size int64 `json:"size,omitempty"`

	// TemplateName and TemplateVersion identify which versioned rule
	// documents govern this submission.
	TemplateName    string `json:"template_name,omitempty"`
	TemplateVersion string `json:"template_version,omitempty"`

	// SpeciesIDs lists the taxon codes the depositor declared for the
	// survey, used for species-specific schema resolution.
	SpeciesIDs []string `json:"species_ids"`

	CreatedAt time.Time `json:"created_at,omitempty"`
}

func NewSubmission(id, source, s3Bucket, s3Key, fileName string, size int64) *Submission {
	return &Submission{
		ID:         id,
		Source:     source,
		S3Bucket:   s3Bucket,
		S3Key:      s3Key,
		FileName:   fileName,
		Size:       size,
		SpeciesIDs: make([]string, 0),
	}
}

func SubmissionFromJSON(jsonData string) (*Submission, error) {
	sub := &Submission{}
	err := json.Unmarshal([]byte(jsonData), sub)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (sub *Submission) ToJSON() (string, error) {
	data, err := json.Marshal(sub)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

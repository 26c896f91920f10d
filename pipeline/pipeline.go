// Package pipeline runs the submission processing state machine:
// validate, transform, re-validate against Darwin Core, scrape. The
// orchestrator owns the transactional discipline around those stages:
// substantive writes happen inside one ambient transaction, and on
// any failure the transaction is rolled back and then one best-effort
// failure status is recorded OUTSIDE the rolled-back scope, so a
// failure is never silently lost.
package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/op/go-logging"
	"github.com/wildobs/submission-services/constants"
	"github.com/wildobs/submission-services/dwca"
	"github.com/wildobs/submission-services/ledger"
	"github.com/wildobs/submission-services/models/common"
	"github.com/wildobs/submission-services/models/service"
	"github.com/wildobs/submission-services/rules"
	"github.com/wildobs/submission-services/spreadsheet"
)

// RuleProvider resolves versioned validation and transformation
// schemas. Satisfied by rules.Provider.
type RuleProvider interface {
	GetValidationSchema(templateName, templateVersion string, speciesIDs []string) (*service.ValidationSchema, error)
	GetTransformationSchema(templateName, templateVersion string) (*service.TransformationSchema, error)
}

// ObjectStore fetches raw submissions and stores canonical archives.
// The pipeline consumes byte buffers and storage keys; the storage
// backend itself lives elsewhere.
type ObjectStore interface {
	GetObject(bucket, key string) ([]byte, error)
	PutObject(bucket, key string, data []byte) error
}

type Pipeline struct {
	Logger        *logging.Logger
	Ledger        *ledger.Ledger
	Rules         RuleProvider
	Store         ObjectStore
	ArchiveBucket string

	validator   *Validator
	transformer *Transformer
}

// NewPipeline wires a pipeline from explicit collaborators. Nothing
// here reaches for a global; tests hand in fakes.
func NewPipeline(logger *logging.Logger, l *ledger.Ledger, provider RuleProvider, store ObjectStore, archiveBucket string) *Pipeline {
	return &Pipeline{
		Logger:        logger,
		Ledger:        l,
		Rules:         provider,
		Store:         store,
		ArchiveBucket: archiveBucket,
		validator:     NewValidator(),
		transformer:   NewTransformer(),
	}
}

// NewPipelineFromContext wires a pipeline from the process-wide
// dependency bundle.
func NewPipelineFromContext(ctx *common.Context) *Pipeline {
	return NewPipeline(
		ctx.Logger,
		ledger.New(ctx.DB, ctx.Logger),
		rules.NewProvider(ctx.DB),
		NewS3Store(ctx),
		ctx.Config.ArchiveBucket,
	)
}

// ProcessSubmission runs the full spreadsheet path for one
// submission. Data-quality failures are recorded in the ledger and
// return nil; infrastructure failures are recorded and returned, so
// the caller's own audit logging is not short-circuited.
func (p *Pipeline) ProcessSubmission(ctx context.Context, submissionID string) error {
	sub, data, err := p.fetch(submissionID)
	if err != nil {
		return p.failSystem(nil, submissionID, constants.MsgMiscellaneous, err)
	}

	vSchema, err := p.Rules.GetValidationSchema(
		sub.TemplateName, sub.TemplateVersion, sub.SpeciesIDs)
	if err != nil {
		return p.failSystem(nil, submissionID, constants.MsgFailedGetValidationRules, err)
	}
	tSchema, err := p.Rules.GetTransformationSchema(sub.TemplateName, sub.TemplateVersion)
	if err != nil {
		return p.failSystem(nil, submissionID, constants.MsgFailedGetTransformationRules, err)
	}

	tx, err := p.Ledger.BeginTx()
	if err != nil {
		return p.failSystem(nil, submissionID, constants.MsgPersistenceFailure, err)
	}
	txLedger := p.Ledger.WithTx(tx)

	// Stage 1: validate the template.
	workbook, err := spreadsheet.Parse(data, constants.DefaultSheetName)
	if err != nil {
		group := service.NewErrorGroup(constants.StatusFailedValidation)
		group.Add(constants.MsgFailedParseSubmission, err.Error())
		p.failData(tx, submissionID, group)
		return nil
	}
	model, err := p.validator.Validate(workbook, vSchema)
	if err != nil {
		return p.failSystem(tx, submissionID, constants.MsgFailedParseSubmission, err)
	}
	model.SubmissionID = submissionID
	if !model.IsValid() {
		p.failData(tx, submissionID,
			service.ErrorGroupFromIssues(constants.StatusFailedValidation, model.Issues))
		return nil
	}
	if _, err = txLedger.RecordStatus(submissionID, constants.StatusTemplateValidated); err != nil {
		return p.failSystem(tx, submissionID, constants.MsgPersistenceFailure, err)
	}
	if err = ctx.Err(); err != nil {
		return p.failSystem(tx, submissionID, constants.MsgMiscellaneous, err)
	}

	// Stage 2: transform to canonical Darwin Core records.
	archive, err := p.transformer.Transform(model, tSchema)
	if err != nil {
		p.rollback(tx, submissionID)
		p.recordFailure(submissionID, constants.StatusFailedTransformation,
			constants.MsgFailedTransformSubmission, err.Error())
		return err
	}
	if _, err = txLedger.RecordStatus(submissionID, constants.StatusTemplateTransformed); err != nil {
		return p.failSystem(tx, submissionID, constants.MsgPersistenceFailure, err)
	}
	if err = ctx.Err(); err != nil {
		return p.failSystem(tx, submissionID, constants.MsgMiscellaneous, err)
	}

	// Stage 3: re-validate the transformed output against Darwin
	// Core structural constraints, same validator, built-in schema.
	dwcModel, err := p.validator.Validate(dwca.WorkbookFromArchive(archive), dwca.CoreSchema())
	if err != nil {
		return p.failSystem(tx, submissionID, constants.MsgFailedDarwinCoreValidation, err)
	}
	if !dwcModel.IsValid() {
		p.failData(tx, submissionID,
			service.ErrorGroupFromIssues(constants.StatusFailedValidation, dwcModel.Issues))
		return nil
	}
	if _, err = txLedger.RecordStatus(submissionID, constants.StatusDarwinCoreValidated); err != nil {
		return p.failSystem(tx, submissionID, constants.MsgPersistenceFailure, err)
	}

	// Stage 4: persist the archive and scrape occurrences.
	return p.persistAndScrape(ctx, tx, txLedger, submissionID, archive)
}

// ProcessArchive runs the pre-built-archive path: the upload already
// is a Darwin Core Archive, so there is nothing to transform. The
// archive is validated against the core schema and scraped.
func (p *Pipeline) ProcessArchive(ctx context.Context, submissionID string) error {
	_, data, err := p.fetch(submissionID)
	if err != nil {
		return p.failSystem(nil, submissionID, constants.MsgMiscellaneous, err)
	}

	tx, err := p.Ledger.BeginTx()
	if err != nil {
		return p.failSystem(nil, submissionID, constants.MsgPersistenceFailure, err)
	}
	txLedger := p.Ledger.WithTx(tx)

	workbook, err := dwca.Read(data)
	if err != nil {
		group := service.NewErrorGroup(constants.StatusFailedValidation)
		group.Add(constants.MsgFailedParseSubmission, err.Error())
		p.failData(tx, submissionID, group)
		return nil
	}
	model, err := p.validator.Validate(workbook, dwca.CoreSchema())
	if err != nil {
		return p.failSystem(tx, submissionID, constants.MsgFailedDarwinCoreValidation, err)
	}
	if !model.IsValid() {
		p.failData(tx, submissionID,
			service.ErrorGroupFromIssues(constants.StatusFailedValidation, model.Issues))
		return nil
	}
	if _, err = txLedger.RecordStatus(submissionID, constants.StatusDarwinCoreValidated); err != nil {
		return p.failSystem(tx, submissionID, constants.MsgPersistenceFailure, err)
	}

	archive := dwca.ArchiveFromWorkbook(workbook, submissionID)
	return p.persistAndScrape(ctx, tx, txLedger, submissionID, archive)
}

func (p *Pipeline) persistAndScrape(ctx context.Context, tx *sql.Tx, txLedger *ledger.Ledger, submissionID string, archive *service.CanonicalArchive) error {
	if err := ctx.Err(); err != nil {
		return p.failSystem(tx, submissionID, constants.MsgMiscellaneous, err)
	}

	generationID, err := txLedger.NewGeneration(submissionID)
	if err != nil {
		return p.failSystem(tx, submissionID, constants.MsgPersistenceFailure, err)
	}

	archiveBytes, err := dwca.Write(archive)
	if err != nil {
		return p.failSystem(tx, submissionID, constants.MsgMiscellaneous, err)
	}
	key := fmt.Sprintf("%s/dwca-%s.zip", submissionID, generationID)
	if err = p.Store.PutObject(p.ArchiveBucket, key, archiveBytes); err != nil {
		return p.failSystem(tx, submissionID, constants.MsgMiscellaneous, err)
	}
	if err = txLedger.SaveArchiveKey(submissionID, generationID, p.ArchiveBucket, key); err != nil {
		return p.failSystem(tx, submissionID, constants.MsgPersistenceFailure, err)
	}

	scraper := NewOccurrenceScraper(txLedger)
	occurrences, err := scraper.Scrape(archive, generationID)
	if err != nil {
		var scrapeErr *common.ScrapeError
		if errors.As(err, &scrapeErr) {
			p.rollback(tx, submissionID)
			p.recordFailure(submissionID, constants.StatusFailedScrape,
				constants.MsgFailedScrapeOccurrence, err.Error())
			return err
		}
		return p.failSystem(tx, submissionID, constants.MsgPersistenceFailure, err)
	}

	if err = txLedger.SetCurrentGeneration(submissionID, generationID); err != nil {
		return p.failSystem(tx, submissionID, constants.MsgPersistenceFailure, err)
	}
	if _, err = txLedger.RecordStatus(submissionID, constants.StatusScrapeComplete); err != nil {
		return p.failSystem(tx, submissionID, constants.MsgPersistenceFailure, err)
	}
	if err = tx.Commit(); err != nil {
		return p.failSystem(nil, submissionID, constants.MsgPersistenceFailure, err)
	}

	p.Logger.Infof("Submission %s: scraped %d occurrences in generation %s",
		submissionID, len(occurrences), generationID)
	return nil
}

func (p *Pipeline) fetch(submissionID string) (*service.Submission, []byte, error) {
	sub, err := p.Ledger.GetSubmission(submissionID)
	if err != nil {
		return nil, nil, err
	}
	data, err := p.Store.GetObject(sub.S3Bucket, sub.S3Key)
	if err != nil {
		return nil, nil, err
	}
	return sub, data, nil
}

// failData handles an expected data-quality failure: roll back the
// substantive work, then durably record the failure status and its
// diagnostics outside the rolled-back scope.
func (p *Pipeline) failData(tx *sql.Tx, submissionID string, group *service.ErrorGroup) {
	p.rollback(tx, submissionID)
	if _, err := p.Ledger.RecordError(submissionID, group); err != nil {
		p.Logger.Errorf(
			"CRITICAL: could not record %s for submission %s, failure may be invisible: %v",
			group.StatusType, submissionID, err)
	}
}

// failSystem handles an infrastructure failure: roll back, make one
// best-effort SystemError record outside the rolled-back scope, and
// hand the original error back for the caller to surface.
func (p *Pipeline) failSystem(tx *sql.Tx, submissionID, msgType string, cause error) error {
	p.rollback(tx, submissionID)
	p.recordFailure(submissionID, constants.StatusSystemError, msgType, cause.Error())
	return cause
}

func (p *Pipeline) recordFailure(submissionID, statusType, msgType, description string) {
	if _, err := p.Ledger.RecordStatusAndMessage(submissionID, statusType, msgType, description); err != nil {
		p.Logger.Errorf(
			"CRITICAL: could not record %s for submission %s, failure may be invisible: %v",
			statusType, submissionID, err)
	}
}

func (p *Pipeline) rollback(tx *sql.Tx, submissionID string) {
	if tx == nil {
		return
	}
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		p.Logger.Errorf("Rollback failed for submission %s: %v", submissionID, err)
	}
}

// Package rules resolves the versioned validation and transformation
// schemas that govern a template. It is the only component aware of
// the versioning and species-fallback policy, so rule authors can
// publish new documents without redeploying the pipeline.
package rules

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/wildobs/submission-services/models/common"
	"github.com/wildobs/submission-services/models/service"
)

type Provider struct {
	db *sql.DB

	// Rule documents are immutable once published, so cached entries
	// never expire. The cache is shared across concurrent pipeline
	// invocations.
	mutex           sync.RWMutex
	validationCache map[string]*service.ValidationSchema
	transformCache  map[string]*service.TransformationSchema
}

func NewProvider(db *sql.DB) *Provider {
	return &Provider{
		db:              db,
		validationCache: make(map[string]*service.ValidationSchema),
		transformCache:  make(map[string]*service.TransformationSchema),
	}
}

// GetValidationSchema resolves the validation schema for a template.
// A species-specific document takes precedence when one of speciesIDs
// matches; otherwise the generic per-template document is used.
// Returns NotFoundError when not even the generic fallback exists.
func (p *Provider) GetValidationSchema(templateName, templateVersion string, speciesIDs []string) (*service.ValidationSchema, error) {
	cacheKey := fmt.Sprintf("%s|%s|%v", templateName, templateVersion, speciesIDs)
	p.mutex.RLock()
	cached := p.validationCache[cacheKey]
	p.mutex.RUnlock()
	if cached != nil {
		return cached, nil
	}

	var doc []byte
	found := false
	for _, speciesID := range speciesIDs {
		err := p.db.QueryRow(`
			SELECT document FROM validation_schemas
			WHERE template_name = $1 AND template_version = $2 AND species_id = $3
		`, templateName, templateVersion, speciesID).Scan(&doc)
		if err == nil {
			found = true
			break
		}
		if err != sql.ErrNoRows {
			return nil, common.NewPersistenceError("GetValidationSchema", err)
		}
	}
	if !found {
		err := p.db.QueryRow(`
			SELECT document FROM validation_schemas
			WHERE template_name = $1 AND template_version = $2 AND species_id IS NULL
		`, templateName, templateVersion).Scan(&doc)
		if err == sql.ErrNoRows {
			return nil, common.NewNotFoundError("validation schema",
				fmt.Sprintf("%s/%s", templateName, templateVersion))
		}
		if err != nil {
			return nil, common.NewPersistenceError("GetValidationSchema", err)
		}
	}

	schema, err := service.ValidationSchemaFromJSON(doc)
	if err != nil {
		return nil, common.NewMalformedInputError(
			fmt.Sprintf("validation schema %s/%s is unreadable", templateName, templateVersion), err)
	}
	p.mutex.Lock()
	p.validationCache[cacheKey] = schema
	p.mutex.Unlock()
	return schema, nil
}

// GetTransformationSchema resolves the transformation schema for a
// template. There is no species specialization on this path.
func (p *Provider) GetTransformationSchema(templateName, templateVersion string) (*service.TransformationSchema, error) {
	cacheKey := fmt.Sprintf("%s|%s", templateName, templateVersion)
	p.mutex.RLock()
	cached := p.transformCache[cacheKey]
	p.mutex.RUnlock()
	if cached != nil {
		return cached, nil
	}

	var doc []byte
	err := p.db.QueryRow(`
		SELECT document FROM transformation_schemas
		WHERE template_name = $1 AND template_version = $2
	`, templateName, templateVersion).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, common.NewNotFoundError("transformation schema",
			fmt.Sprintf("%s/%s", templateName, templateVersion))
	}
	if err != nil {
		return nil, common.NewPersistenceError("GetTransformationSchema", err)
	}

	schema, err := service.TransformationSchemaFromJSON(doc)
	if err != nil {
		return nil, common.NewMalformedInputError(
			fmt.Sprintf("transformation schema %s/%s is unreadable", templateName, templateVersion), err)
	}
	p.mutex.Lock()
	p.transformCache[cacheKey] = schema
	p.mutex.Unlock()
	return schema, nil
}

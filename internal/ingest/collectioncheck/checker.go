// internal/ingest/collectioncheck/checker.go
package collectioncheck

import (
	"context"

	"stac-ingestor/internal/common/errors"
	"stac-ingestor/internal/common/logger"
	"stac-ingestor/internal/models"
)

// Checker confirms a record's declared parent collection is registered.
type Checker struct {
	registry Registry
	logger   logger.Logger
}

func NewChecker(registry Registry, log logger.Logger) *Checker {
	return &Checker{
		registry: registry,
		logger:   log.WithFields(map[string]interface{}{"component": "collection-checker"}),
	}
}

// CheckCollection returns a partial verdict covering collection existence only.
// A registry outage surfaces as a lookup-failure reason rather than a silent
// pass: records are never admitted on an unverified collection.
func (c *Checker) CheckCollection(ctx context.Context, record models.Record) models.ValidationVerdict {
	exists, err := c.registry.Exists(ctx, record.Collection)
	if err != nil {
		stdErr := errors.Normalize(err)
		c.logger.Error("collection lookup failed", map[string]interface{}{
			"itemId":       record.ID,
			"collectionId": record.Collection,
			"error":        stdErr.Details,
		})
		return models.InvalidVerdict(models.Reason{
			Check:   models.CheckCollection,
			Field:   "collection",
			Code:    string(stdErr.Code),
			Message: stdErr.Message,
		})
	}

	if !exists {
		return models.InvalidVerdict(models.Reason{
			Check:   models.CheckCollection,
			Field:   "collection",
			Code:    string(errors.ErrCodeCollectionMissing),
			Message: "collection " + record.Collection + " is not registered in the catalog",
		})
	}

	return models.ValidVerdict()
}

// internal/ingest/pipeline/pipeline.go
package pipeline

import (
	"context"

	"stac-ingestor/internal/common/logger"
	"stac-ingestor/internal/common/metrics"
	"stac-ingestor/internal/models"
)

// SpecChecker is the synchronous, I/O-free specification check.
type SpecChecker interface {
	Validate(record models.Record) models.ValidationVerdict
}

// AssetChecker probes asset reachability.
type AssetChecker interface {
	CheckAssets(ctx context.Context, record models.Record) models.ValidationVerdict
}

// CollectionChecker confirms the declared parent collection exists.
type CollectionChecker interface {
	CheckCollection(ctx context.Context, record models.Record) models.ValidationVerdict
}

// Pipeline composes the three checkers into one verdict per record.
type Pipeline struct {
	spec        SpecChecker
	assets      AssetChecker
	collections CollectionChecker
	logger      logger.Logger
}

func New(spec SpecChecker, assets AssetChecker, collections CollectionChecker, log logger.Logger) *Pipeline {
	return &Pipeline{
		spec:        spec,
		assets:      assets,
		collections: collections,
		logger:      log.WithFields(map[string]interface{}{"component": "validation-pipeline"}),
	}
}

// Process runs the spec check first; if it fails, the two I/O-bound checks
// are skipped entirely so invalid payloads never generate probe traffic.
// Otherwise the asset and collection checks run concurrently and their
// reasons merge in the fixed order spec, collection, asset.
func (p *Pipeline) Process(ctx context.Context, record models.Record) models.ValidationVerdict {
	specVerdict := p.spec.Validate(record)
	if !specVerdict.Valid {
		p.countReasons(specVerdict)
		metrics.RecordsValidated.WithLabelValues("invalid").Inc()
		return specVerdict
	}

	collectionCh := make(chan models.ValidationVerdict, 1)
	assetCh := make(chan models.ValidationVerdict, 1)

	go func() {
		collectionCh <- p.collections.CheckCollection(ctx, record)
	}()
	go func() {
		assetCh <- p.assets.CheckAssets(ctx, record)
	}()

	collectionVerdict := <-collectionCh
	assetVerdict := <-assetCh

	verdict := models.Merge(specVerdict, collectionVerdict, assetVerdict)
	if verdict.Valid {
		metrics.RecordsValidated.WithLabelValues("valid").Inc()
	} else {
		p.countReasons(verdict)
		metrics.RecordsValidated.WithLabelValues("invalid").Inc()
		p.logger.Info("record failed validation", map[string]interface{}{
			"itemId":      record.ID,
			"reasonCount": len(verdict.Reasons),
		})
	}
	return verdict
}

func (p *Pipeline) countReasons(verdict models.ValidationVerdict) {
	for _, reason := range verdict.Reasons {
		metrics.ValidationReasons.WithLabelValues(string(reason.Check), reason.Code).Inc()
	}
}

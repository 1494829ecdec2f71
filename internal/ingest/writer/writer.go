// internal/ingest/writer/writer.go
package writer

import (
	"context"
	"time"

	"stac-ingestor/internal/common/logger"
	"stac-ingestor/internal/common/metrics"
	"stac-ingestor/internal/models"
)

// Config controls the bounded retry loop around bulk writes.
type Config struct {
	MaxCommitRetries int
	RetryBackoff     time.Duration
	RetryBackoffMax  time.Duration
}

// Writer commits sealed batches to the catalog store. Transient store
// failures retry the whole batch with exponential backoff; once the retry
// budget is exhausted every record in the batch is deferred so callers can
// dead-letter it instead of losing it.
type Writer struct {
	config Config
	store  Store
	logger logger.Logger
}

func New(config Config, store Store, log logger.Logger) *Writer {
	if config.MaxCommitRetries < 1 {
		config.MaxCommitRetries = 1
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = 500 * time.Millisecond
	}
	if config.RetryBackoffMax <= 0 {
		config.RetryBackoffMax = 10 * time.Second
	}
	return &Writer{
		config: config,
		store:  store,
		logger: log,
	}
}

// Commit writes the batch and returns one outcome per record, in batch
// order. The returned slice is never nil for a non-empty batch.
func (w *Writer) Commit(ctx context.Context, batch *models.Batch) []models.CommitOutcome {
	if batch == nil || len(batch.Records) == 0 {
		return nil
	}

	start := time.Now()
	backoff := w.config.RetryBackoff

	var lastErr error
	for attempt := 1; attempt <= w.config.MaxCommitRetries; attempt++ {
		outcomes, err := w.store.BulkWrite(ctx, batch.Records)
		if err == nil {
			metrics.CommitAttempts.WithLabelValues("success").Inc()
			metrics.CommitDuration.Observe(time.Since(start).Seconds())
			for _, o := range outcomes {
				metrics.RecordOutcomes.WithLabelValues(string(o.Status)).Inc()
			}
			w.logger.Info("Batch committed", map[string]interface{}{
				"batch_id": batch.ID,
				"records":  len(batch.Records),
				"attempt":  attempt,
			})
			return outcomes
		}

		lastErr = err
		metrics.CommitAttempts.WithLabelValues("transient_error").Inc()
		w.logger.Warn("Bulk write failed, will retry", map[string]interface{}{
			"batch_id": batch.ID,
			"attempt":  attempt,
			"error":    err.Error(),
		})

		if attempt == w.config.MaxCommitRetries {
			break
		}

		select {
		case <-ctx.Done():
			w.logger.Warn("Commit cancelled during backoff", map[string]interface{}{
				"batch_id": batch.ID,
			})
			return w.deferAll(batch, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > w.config.RetryBackoffMax {
			backoff = w.config.RetryBackoffMax
		}
	}

	metrics.CommitDuration.Observe(time.Since(start).Seconds())
	w.logger.Error("Commit retry budget exhausted, deferring batch", map[string]interface{}{
		"batch_id": batch.ID,
		"records":  len(batch.Records),
		"attempts": w.config.MaxCommitRetries,
		"error":    lastErr.Error(),
	})
	return w.deferAll(batch, lastErr)
}

func (w *Writer) deferAll(batch *models.Batch, cause error) []models.CommitOutcome {
	msg := "catalog store unavailable"
	if cause != nil {
		msg = cause.Error()
	}
	outcomes := make([]models.CommitOutcome, len(batch.Records))
	for i, record := range batch.Records {
		outcomes[i] = models.CommitOutcome{
			ItemID: record.ID,
			Status: models.OutcomeDeferred,
			Reasons: []models.Reason{{
				Check:   models.CheckStore,
				Code:    "STORE_UNAVAILABLE",
				Message: msg,
			}},
		}
		metrics.RecordOutcomes.WithLabelValues(string(models.OutcomeDeferred)).Inc()
	}
	return outcomes
}

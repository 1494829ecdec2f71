// internal/ingest/deadletter/deadletter.go
package deadletter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"stac-ingestor/internal/common/errors"
	"stac-ingestor/internal/common/logger"
	"stac-ingestor/internal/common/metrics"
	"stac-ingestor/internal/models"
)

// Entry is the document persisted for a batch the catalog refused to take.
// It carries the full records so the batch can be replayed once the store
// recovers.
type Entry struct {
	BatchID    string                `json:"batch_id"`
	Records    []models.Record       `json:"records"`
	Outcomes   []models.CommitOutcome `json:"outcomes"`
	Cause      string                `json:"cause"`
	SealedAt   time.Time             `json:"sealed_at"`
	DeadLetter time.Time             `json:"dead_lettered_at"`
}

// Store indexes deferred batches into Elasticsearch so operators can
// inspect and replay them.
type Store struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewStore(client *elasticsearch.Client, index string, log logger.Logger) *Store {
	return &Store{
		client: client,
		index:  index,
		logger: log,
	}
}

// Record persists the batch with its outcomes. Failure to dead-letter is
// surfaced to the caller; it must not be silently dropped.
func (s *Store) Record(ctx context.Context, batch *models.Batch, outcomes []models.CommitOutcome, cause string) error {
	entry := Entry{
		BatchID:    batch.ID,
		Records:    batch.Records,
		Outcomes:   outcomes,
		Cause:      cause,
		SealedAt:   batch.SealedAt,
		DeadLetter: time.Now().UTC(),
	}

	body, err := json.Marshal(entry)
	if err != nil {
		return errors.NewDeadLetterFailedError(err)
	}

	res, err := s.client.Index(
		s.index,
		bytes.NewReader(body),
		s.client.Index.WithContext(ctx),
		s.client.Index.WithDocumentID(batch.ID),
	)
	if err != nil {
		return errors.NewDeadLetterFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.NewDeadLetterFailedError(fmt.Errorf("index %s: %s", s.index, res.Status()))
	}

	metrics.DeadLetteredBatches.Inc()
	s.logger.Warn("Batch dead-lettered", map[string]interface{}{
		"batch_id": batch.ID,
		"records":  len(batch.Records),
		"index":    s.index,
	})
	return nil
}

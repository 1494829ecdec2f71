// internal/ingest/writer/writer_test.go
package writer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stac-ingestor/internal/common/errors"
	"stac-ingestor/internal/common/logger"
	"stac-ingestor/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type scriptedStore struct {
	calls     int
	failUntil int
	outcomes  []models.CommitOutcome
}

func (s *scriptedStore) BulkWrite(ctx context.Context, records []models.Record) ([]models.CommitOutcome, error) {
	s.calls++
	if s.calls <= s.failUntil {
		return nil, errors.NewStoreUnavailableError(context.DeadlineExceeded)
	}
	if s.outcomes != nil {
		return s.outcomes, nil
	}
	outcomes := make([]models.CommitOutcome, len(records))
	for i, r := range records {
		outcomes[i] = models.CommitOutcome{ItemID: r.ID, Status: models.OutcomeCommitted}
	}
	return outcomes, nil
}

func testBatch(ids ...string) *models.Batch {
	records := make([]models.Record, 0, len(ids))
	for _, id := range ids {
		records = append(records, models.Record{ID: id, Collection: "c", SubmissionID: "sub-" + id})
	}
	return &models.Batch{
		ID:       "batch-1",
		Records:  records,
		SealedAt: time.Now().UTC(),
		Trigger:  models.FlushTriggerSize,
	}
}

func fastConfig(retries int) Config {
	return Config{
		MaxCommitRetries: retries,
		RetryBackoff:     time.Millisecond,
		RetryBackoffMax:  5 * time.Millisecond,
	}
}

// ==========================
// Writer Tests
// ==========================

func TestWriter_Commit_Success(t *testing.T) {
	store := &scriptedStore{}
	w := New(fastConfig(3), store, logger.NewTestLogger(t))

	outcomes := w.Commit(context.Background(), testBatch("a", "b"))

	require.Len(t, outcomes, 2)
	assert.Equal(t, models.OutcomeCommitted, outcomes[0].Status)
	assert.Equal(t, models.OutcomeCommitted, outcomes[1].Status)
	assert.Equal(t, 1, store.calls)
}

func TestWriter_Commit_RetriesTransientFailure(t *testing.T) {
	store := &scriptedStore{failUntil: 2}
	w := New(fastConfig(3), store, logger.NewTestLogger(t))

	outcomes := w.Commit(context.Background(), testBatch("a"))

	require.Len(t, outcomes, 1)
	assert.Equal(t, models.OutcomeCommitted, outcomes[0].Status)
	assert.Equal(t, 3, store.calls)
}

func TestWriter_Commit_ExhaustedRetriesDefersWholeBatch(t *testing.T) {
	store := &scriptedStore{failUntil: 100}
	w := New(fastConfig(3), store, logger.NewTestLogger(t))

	outcomes := w.Commit(context.Background(), testBatch("a", "b", "c"))

	assert.Equal(t, 3, store.calls, "attempts must stop at the configured budget")
	require.Len(t, outcomes, 3)
	for i, outcome := range outcomes {
		assert.Equal(t, models.OutcomeDeferred, outcome.Status)
		assert.Equal(t, testBatch("a", "b", "c").Records[i].ID, outcome.ItemID)
		require.Len(t, outcome.Reasons, 1)
		assert.Equal(t, models.CheckStore, outcome.Reasons[0].Check)
		assert.Equal(t, "STORE_UNAVAILABLE", outcome.Reasons[0].Code)
	}
}

func TestWriter_Commit_PartialFailureIsPerRecord(t *testing.T) {
	store := &scriptedStore{
		outcomes: []models.CommitOutcome{
			{ItemID: "a", Status: models.OutcomeCommitted},
			{ItemID: "b", Status: models.OutcomeRejected, Reasons: []models.Reason{{
				Check: models.CheckStore, Code: "DUPLICATE_ITEM", Message: "item b already exists",
			}}},
			{ItemID: "c", Status: models.OutcomeCommitted},
		},
	}
	w := New(fastConfig(3), store, logger.NewTestLogger(t))

	outcomes := w.Commit(context.Background(), testBatch("a", "b", "c"))

	require.Len(t, outcomes, 3)
	assert.Equal(t, models.OutcomeCommitted, outcomes[0].Status)
	assert.Equal(t, models.OutcomeRejected, outcomes[1].Status)
	assert.Equal(t, models.OutcomeCommitted, outcomes[2].Status)
	assert.Equal(t, 1, store.calls, "a duplicate never triggers a batch retry")
}

func TestWriter_Commit_CancelledContextDefersRemainder(t *testing.T) {
	store := &scriptedStore{failUntil: 100}
	w := New(Config{MaxCommitRetries: 5, RetryBackoff: 50 * time.Millisecond, RetryBackoffMax: time.Second},
		store, logger.NewTestLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	outcomes := w.Commit(ctx, testBatch("a"))

	require.Len(t, outcomes, 1)
	assert.Equal(t, models.OutcomeDeferred, outcomes[0].Status)
	assert.Less(t, store.calls, 5)
}

func TestWriter_Commit_EmptyBatch(t *testing.T) {
	w := New(fastConfig(3), &scriptedStore{}, logger.NewTestLogger(t))

	assert.Nil(t, w.Commit(context.Background(), nil))
	assert.Nil(t, w.Commit(context.Background(), &models.Batch{ID: "empty"}))
}

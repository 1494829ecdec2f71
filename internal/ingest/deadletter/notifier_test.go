// internal/ingest/deadletter/notifier_test.go
package deadletter

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stac-ingestor/internal/common/logger"
	"stac-ingestor/internal/models"
)

type fakePublisher struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakePublisher) Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{}, nil
}

func alertBatch() *models.Batch {
	return &models.Batch{
		ID: "batch-1",
		Records: []models.Record{
			{ID: "a", Collection: "c"},
			{ID: "b", Collection: "c"},
		},
	}
}

func TestNotifier_BatchDeadLettered(t *testing.T) {
	publisher := &fakePublisher{}
	notifier := NewNotifier(publisher, "arn:aws:sns:us-west-2:123:ingest-alerts", logger.NewTestLogger(t))

	notifier.BatchDeadLettered(context.Background(), alertBatch(), "store unavailable", "ingest-dead-letter")

	require.Len(t, publisher.inputs, 1)
	input := publisher.inputs[0]
	assert.Equal(t, "arn:aws:sns:us-west-2:123:ingest-alerts", *input.TopicArn)

	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(*input.Message), &msg))
	assert.Equal(t, "batch-1", msg["batch_id"])
	assert.Equal(t, float64(2), msg["records"])
	assert.Equal(t, "store unavailable", msg["cause"])
	assert.Equal(t, "ingest-dead-letter", msg["dead_letter_index"])
}

func TestNotifier_PublishFailureIsBestEffort(t *testing.T) {
	publisher := &fakePublisher{err: stderrors.New("throttled")}
	notifier := NewNotifier(publisher, "arn:aws:sns:us-west-2:123:ingest-alerts", logger.NewTestLogger(t))

	// Must not panic or propagate; the batch outcome is already decided.
	notifier.BatchDeadLettered(context.Background(), alertBatch(), "store unavailable", "ingest-dead-letter")

	assert.Len(t, publisher.inputs, 1)
}

func TestNotifier_DisabledWithoutTopic(t *testing.T) {
	publisher := &fakePublisher{}
	notifier := NewNotifier(publisher, "", logger.NewTestLogger(t))

	notifier.BatchDeadLettered(context.Background(), alertBatch(), "store unavailable", "ingest-dead-letter")

	assert.Empty(t, publisher.inputs)
}

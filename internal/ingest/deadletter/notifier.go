// internal/ingest/deadletter/notifier.go
package deadletter

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"stac-ingestor/internal/common/logger"
	"stac-ingestor/internal/models"
)

// Publisher is the slice of the SNS client the notifier needs.
type Publisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// Notifier raises an operational alert whenever a batch lands in the
// dead-letter index. Alerting is best effort; a failed publish is logged
// and does not affect the batch's outcome.
type Notifier struct {
	publisher Publisher
	topicARN  string
	logger    logger.Logger
}

func NewNotifier(publisher Publisher, topicARN string, log logger.Logger) *Notifier {
	return &Notifier{
		publisher: publisher,
		topicARN:  topicARN,
		logger:    log,
	}
}

type alertMessage struct {
	BatchID string `json:"batch_id"`
	Records int    `json:"records"`
	Cause   string `json:"cause"`
	Index   string `json:"dead_letter_index"`
}

func (n *Notifier) BatchDeadLettered(ctx context.Context, batch *models.Batch, cause, index string) {
	if n.publisher == nil || n.topicARN == "" {
		return
	}

	msg, err := json.Marshal(alertMessage{
		BatchID: batch.ID,
		Records: len(batch.Records),
		Cause:   cause,
		Index:   index,
	})
	if err != nil {
		n.logger.Error("Failed to marshal dead-letter alert", map[string]interface{}{
			"batch_id": batch.ID,
			"error":    err.Error(),
		})
		return
	}

	_, err = n.publisher.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String("Ingest batch dead-lettered"),
		Message:  aws.String(string(msg)),
	})
	if err != nil {
		n.logger.Error("Failed to publish dead-letter alert", map[string]interface{}{
			"batch_id": batch.ID,
			"topic":    n.topicARN,
			"error":    err.Error(),
		})
		return
	}

	n.logger.Info("Dead-letter alert published", map[string]interface{}{
		"batch_id": batch.ID,
		"topic":    n.topicARN,
	})
}

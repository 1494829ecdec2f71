// internal/ingest/coordinator/coordinator.go
package coordinator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"stac-ingestor/internal/common/logger"
	"stac-ingestor/internal/common/observability"
	"stac-ingestor/internal/models"
)

var (
	ErrNotAccepting      = errors.New("coordinator is shutting down")
	ErrUnknownSubmission = errors.New("unknown submission id")
)

type Config struct {
	ValidationWorkers   int
	SubmissionQueueSize int
	DeadLetterIndex     string

	// SubmissionRetention bounds how long resolved submissions stay
	// queryable through Get and List. Zero means the tracker default.
	SubmissionRetention time.Duration
}

// Validator produces one verdict per record.
type Validator interface {
	Process(ctx context.Context, record models.Record) models.ValidationVerdict
}

// Batcher accumulates validated records into sealed batches.
type Batcher interface {
	Offer(record models.Record)
	Flush() *models.Batch
	Drain()
	Sealed() <-chan *models.Batch
}

// Committer writes a sealed batch and reports per-record outcomes.
type Committer interface {
	Commit(ctx context.Context, batch *models.Batch) []models.CommitOutcome
}

// DeadLetterer persists batches the store refused to take.
type DeadLetterer interface {
	Record(ctx context.Context, batch *models.Batch, outcomes []models.CommitOutcome, cause string) error
}

// Alerter raises an operational alert for a dead-lettered batch.
type Alerter interface {
	BatchDeadLettered(ctx context.Context, batch *models.Batch, cause, index string)
}

// Coordinator owns the end-to-end flow of a submission: intake queue,
// validation worker pool, batch accumulation and the single commit loop.
// Submissions resolve exactly once; Wait blocks until the terminal status.
type Coordinator struct {
	config     Config
	tracker    *Tracker
	validator  Validator
	batcher    Batcher
	committer  Committer
	deadLetter DeadLetterer
	alerter    Alerter
	obs        *observability.Observability
	logger     logger.Logger

	intake chan models.Record

	mu        sync.RWMutex
	accepting bool

	workerWG sync.WaitGroup
	commitWG sync.WaitGroup
}

func New(
	config Config,
	validator Validator,
	batcher Batcher,
	committer Committer,
	deadLetter DeadLetterer,
	alerter Alerter,
	obs *observability.Observability,
	log logger.Logger,
) *Coordinator {
	if config.ValidationWorkers < 1 {
		config.ValidationWorkers = 1
	}
	if config.SubmissionQueueSize < 1 {
		config.SubmissionQueueSize = 1
	}
	return &Coordinator{
		config:     config,
		tracker:    NewTracker(config.SubmissionRetention),
		validator:  validator,
		batcher:    batcher,
		committer:  committer,
		deadLetter: deadLetter,
		alerter:    alerter,
		obs:        obs,
		logger:     log.WithFields(map[string]interface{}{"component": "ingest-coordinator"}),
		intake:     make(chan models.Record, config.SubmissionQueueSize),
		accepting:  true,
	}
}

// Start launches the validation workers and the commit loop. The context
// bounds in-flight probe and store calls, not the coordinator's lifetime;
// use Stop for shutdown.
func (c *Coordinator) Start(ctx context.Context) {
	for i := 0; i < c.config.ValidationWorkers; i++ {
		c.workerWG.Add(1)
		go c.validationWorker(ctx, i)
	}

	c.commitWG.Add(1)
	go c.commitLoop(ctx)

	c.logger.Info("Coordinator started", map[string]interface{}{
		"validationWorkers": c.config.ValidationWorkers,
		"queueSize":         c.config.SubmissionQueueSize,
	})
}

// Submit enqueues one record for ingestion and returns its submission in
// the received state. It blocks while the intake queue is full; the
// context bounds that wait.
func (c *Coordinator) Submit(ctx context.Context, record models.Record, createdBy string) (models.Submission, error) {
	// The read lock spans the send so Stop cannot close the intake channel
	// underneath an in-flight Submit.
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.accepting {
		return models.Submission{}, ErrNotAccepting
	}

	now := time.Now().UTC()
	record.SubmissionID = uuid.NewString()
	sub := models.Submission{
		ID:        record.SubmissionID,
		Record:    record,
		Status:    models.StatusReceived,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.tracker.register(sub)

	select {
	case c.intake <- record:
		return sub, nil
	case <-ctx.Done():
		c.tracker.Cancel(sub.ID)
		return models.Submission{}, ctx.Err()
	}
}

// Wait blocks until the submission reaches a terminal status.
func (c *Coordinator) Wait(ctx context.Context, id string) (models.Submission, error) {
	done := c.tracker.doneChannel(id)
	if done == nil {
		return models.Submission{}, ErrUnknownSubmission
	}

	select {
	case <-done:
		sub, _ := c.tracker.Get(id)
		return sub, nil
	case <-ctx.Done():
		return models.Submission{}, ctx.Err()
	}
}

// Get returns the current snapshot of a submission.
func (c *Coordinator) Get(id string) (models.Submission, bool) {
	return c.tracker.Get(id)
}

// List returns submissions filtered by status, newest first.
func (c *Coordinator) List(status models.SubmissionStatus, limit int) []models.Submission {
	return c.tracker.List(status, limit)
}

// Cancel withdraws a submission that has not started validating yet.
func (c *Coordinator) Cancel(id string) bool {
	return c.tracker.Cancel(id)
}

// Flush seals the open batch immediately instead of waiting for the size
// or timeout trigger.
func (c *Coordinator) Flush() {
	c.batcher.Flush()
}

// Stop drains the pipeline: no new submissions, pending validations run to
// completion, the open batch seals and commits. Returns once every
// accepted submission has resolved or the context expires.
func (c *Coordinator) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.accepting {
		c.mu.Unlock()
		return nil
	}
	c.accepting = false
	c.mu.Unlock()

	// No Submit can be past the accepting guard now; safe to close.
	close(c.intake)
	c.workerWG.Wait()

	c.batcher.Drain()

	done := make(chan struct{})
	go func() {
		c.commitWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Coordinator drained", nil)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) validationWorker(ctx context.Context, id int) {
	defer c.workerWG.Done()

	for record := range c.intake {
		// Cancelled submissions are skipped; transition fails for them.
		if !c.tracker.transition(record.SubmissionID, models.StatusValidating) {
			continue
		}

		verdict := c.validator.Process(ctx, record)
		if !verdict.Valid {
			sub, ok := c.tracker.resolveRejected(record.SubmissionID, verdict)
			if ok {
				c.recordResolution(ctx, sub)
			}
			continue
		}

		if c.tracker.markAccumulating(record.SubmissionID, verdict) {
			c.batcher.Offer(record)
		}
	}

	c.logger.Debug("Validation worker exiting", map[string]interface{}{"worker": id})
}

func (c *Coordinator) commitLoop(ctx context.Context) {
	defer c.commitWG.Done()

	for batch := range c.batcher.Sealed() {
		for _, record := range batch.Records {
			c.tracker.transition(record.SubmissionID, models.StatusBatched)
		}
		for _, record := range batch.Records {
			c.tracker.transition(record.SubmissionID, models.StatusCommitting)
		}

		outcomes := c.committer.Commit(ctx, batch)
		c.handleDeferred(ctx, batch, outcomes)

		for i, outcome := range outcomes {
			sub, ok := c.tracker.resolveOutcome(batch.Records[i].SubmissionID, outcome)
			if ok {
				c.recordResolution(ctx, sub)
			}
		}
	}
}

func (c *Coordinator) handleDeferred(ctx context.Context, batch *models.Batch, outcomes []models.CommitOutcome) {
	deferred := false
	for _, outcome := range outcomes {
		if outcome.Status == models.OutcomeDeferred {
			deferred = true
			break
		}
	}
	if !deferred || c.deadLetter == nil {
		return
	}

	cause := "catalog store unavailable after retry budget"
	if err := c.deadLetter.Record(ctx, batch, outcomes, cause); err != nil {
		c.logger.Error("Failed to dead-letter batch", map[string]interface{}{
			"batch_id": batch.ID,
			"error":    err.Error(),
		})
		return
	}
	if c.alerter != nil {
		c.alerter.BatchDeadLettered(ctx, batch, cause, c.config.DeadLetterIndex)
	}
}

func (c *Coordinator) recordResolution(ctx context.Context, sub models.Submission) {
	if c.obs == nil {
		return
	}
	c.obs.RecordSubmissionResolved(ctx, string(sub.Status))
	c.obs.RecordSubmissionDuration(ctx, sub.UpdatedAt.Sub(sub.CreatedAt), string(sub.Status))
}

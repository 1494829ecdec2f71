// internal/ingest/coordinator/tracker.go
package coordinator

import (
	"sort"
	"sync"
	"time"

	"stac-ingestor/internal/common/metrics"
	"stac-ingestor/internal/models"
)

// defaultRetention bounds how long a terminal submission stays queryable
// through Get and List before it is evicted.
const defaultRetention = time.Hour

type trackedSubmission struct {
	submission models.Submission
	done       chan struct{}
}

type resolvedEntry struct {
	id         string
	resolvedAt time.Time
}

// Tracker holds the in-flight and recently resolved submissions keyed by
// submission id. All transitions go through it so the state machine stays
// consistent under concurrent workers. Terminal submissions are kept for
// the retention window and evicted afterwards so the map stays bounded;
// eviction is amortized over register and List calls.
type Tracker struct {
	mu          sync.RWMutex
	retention   time.Duration
	submissions map[string]*trackedSubmission
	resolved    []resolvedEntry
}

func NewTracker(retention time.Duration) *Tracker {
	if retention <= 0 {
		retention = defaultRetention
	}
	return &Tracker{
		retention:   retention,
		submissions: make(map[string]*trackedSubmission),
	}
}

func (t *Tracker) register(sub models.Submission) *trackedSubmission {
	tracked := &trackedSubmission{
		submission: sub,
		done:       make(chan struct{}),
	}

	t.mu.Lock()
	t.evictExpiredLocked(time.Now().UTC())
	t.submissions[sub.ID] = tracked
	t.mu.Unlock()

	metrics.SubmissionsInFlight.Inc()
	return tracked
}

// evictExpiredLocked drops terminal submissions whose retention window has
// passed. The resolved queue is in resolution order, so eviction stops at
// the first entry still inside the window.
func (t *Tracker) evictExpiredLocked(now time.Time) {
	cutoff := now.Add(-t.retention)
	for len(t.resolved) > 0 && t.resolved[0].resolvedAt.Before(cutoff) {
		delete(t.submissions, t.resolved[0].id)
		t.resolved = t.resolved[1:]
	}
}

// markResolvedLocked queues a terminal submission for eviction once its
// retention window passes.
func (t *Tracker) markResolvedLocked(id string, at time.Time) {
	t.resolved = append(t.resolved, resolvedEntry{id: id, resolvedAt: at})
}

// Get returns a snapshot of the submission, or false if unknown.
func (t *Tracker) Get(id string) (models.Submission, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	tracked, ok := t.submissions[id]
	if !ok {
		return models.Submission{}, false
	}
	return tracked.submission, true
}

// List returns submissions matching the status filter, newest first.
// An empty status matches everything. Limit <= 0 means no limit.
func (t *Tracker) List(status models.SubmissionStatus, limit int) []models.Submission {
	t.mu.Lock()
	t.evictExpiredLocked(time.Now().UTC())
	out := make([]models.Submission, 0, len(t.submissions))
	for _, tracked := range t.submissions {
		if status != "" && tracked.submission.Status != status {
			continue
		}
		out = append(out, tracked.submission)
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Cancel moves a submission to cancelled. Only submissions still waiting
// in the intake queue can be cancelled; anything already validating or
// later is past the point of no return.
func (t *Tracker) Cancel(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	tracked, ok := t.submissions[id]
	if !ok || tracked.submission.Status != models.StatusReceived {
		return false
	}

	tracked.submission.Status = models.StatusCancelled
	tracked.submission.UpdatedAt = time.Now().UTC()
	t.markResolvedLocked(id, tracked.submission.UpdatedAt)
	close(tracked.done)
	metrics.SubmissionsInFlight.Dec()
	return true
}

// transition advances a non-terminal submission to the given status and
// reports whether the move happened. Terminal states are never overwritten.
func (t *Tracker) transition(id string, status models.SubmissionStatus) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	tracked, ok := t.submissions[id]
	if !ok || tracked.submission.Status.IsTerminal() {
		return false
	}

	tracked.submission.Status = status
	tracked.submission.UpdatedAt = time.Now().UTC()
	return true
}

// markAccumulating stores the passing verdict and hands the submission to
// the batch accumulator.
func (t *Tracker) markAccumulating(id string, verdict models.ValidationVerdict) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	tracked, ok := t.submissions[id]
	if !ok || tracked.submission.Status.IsTerminal() {
		return false
	}

	tracked.submission.Status = models.StatusAccumulating
	tracked.submission.Verdict = verdict
	tracked.submission.UpdatedAt = time.Now().UTC()
	return true
}

// resolveRejected finishes a submission that failed validation.
func (t *Tracker) resolveRejected(id string, verdict models.ValidationVerdict) (models.Submission, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tracked, ok := t.submissions[id]
	if !ok || tracked.submission.Status.IsTerminal() {
		return models.Submission{}, false
	}

	tracked.submission.Status = models.StatusRejected
	tracked.submission.Verdict = verdict
	tracked.submission.UpdatedAt = time.Now().UTC()
	t.markResolvedLocked(id, tracked.submission.UpdatedAt)
	close(tracked.done)
	metrics.SubmissionsInFlight.Dec()
	return tracked.submission, true
}

// resolveOutcome finishes a submission with its commit outcome.
func (t *Tracker) resolveOutcome(id string, outcome models.CommitOutcome) (models.Submission, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tracked, ok := t.submissions[id]
	if !ok || tracked.submission.Status.IsTerminal() {
		return models.Submission{}, false
	}

	switch outcome.Status {
	case models.OutcomeCommitted:
		tracked.submission.Status = models.StatusCommitted
	case models.OutcomeDeferred:
		tracked.submission.Status = models.StatusDeferred
	default:
		tracked.submission.Status = models.StatusRejected
	}
	o := outcome
	tracked.submission.Outcome = &o
	tracked.submission.UpdatedAt = time.Now().UTC()
	t.markResolvedLocked(id, tracked.submission.UpdatedAt)
	close(tracked.done)
	metrics.SubmissionsInFlight.Dec()
	return tracked.submission, true
}

func (t *Tracker) doneChannel(id string) <-chan struct{} {
	t.mu.RLock()
	defer t.mu.RUnlock()

	tracked, ok := t.submissions[id]
	if !ok {
		return nil
	}
	return tracked.done
}

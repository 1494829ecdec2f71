// internal/models/batch.go
package models

import "time"

// FlushTrigger says why a batch was sealed.
type FlushTrigger string

const (
	FlushTriggerSize     FlushTrigger = "size"
	FlushTriggerTimeout  FlushTrigger = "timeout"
	FlushTriggerManual   FlushTrigger = "manual"
	FlushTriggerShutdown FlushTrigger = "shutdown"
)

// Batch is a bounded, ordered group of validated records awaiting commit.
// Once sealed it is never mutated.
type Batch struct {
	ID        string       `json:"id"`
	Records   []Record     `json:"records"`
	CreatedAt time.Time    `json:"createdAt"`
	SealedAt  time.Time    `json:"sealedAt"`
	Trigger   FlushTrigger `json:"trigger"`
}

// Size returns the number of records in the batch.
func (b *Batch) Size() int {
	return len(b.Records)
}

// OutcomeStatus is the per-record result of a write attempt.
type OutcomeStatus string

const (
	OutcomeCommitted OutcomeStatus = "committed"
	OutcomeRejected  OutcomeStatus = "rejected"
	OutcomeDeferred  OutcomeStatus = "deferred"
)

// CommitOutcome is one record's result from a bulk write, in batch order.
type CommitOutcome struct {
	ItemID  string        `json:"itemId"`
	Status  OutcomeStatus `json:"status"`
	Reasons []Reason      `json:"reasons,omitempty"`
}

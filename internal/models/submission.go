// internal/models/submission.go
package models

import "time"

// SubmissionStatus tracks one record through the ingestion state machine:
// received -> validating -> {rejected | accumulating} -> batched ->
// committing -> {committed | rejected | deferred}. Cancelled is reachable
// only from received.
type SubmissionStatus string

const (
	StatusReceived     SubmissionStatus = "received"
	StatusValidating   SubmissionStatus = "validating"
	StatusAccumulating SubmissionStatus = "accumulating"
	StatusBatched      SubmissionStatus = "batched"
	StatusCommitting   SubmissionStatus = "committing"
	StatusCommitted    SubmissionStatus = "committed"
	StatusRejected     SubmissionStatus = "rejected"
	StatusDeferred     SubmissionStatus = "deferred"
	StatusCancelled    SubmissionStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are possible.
func (s SubmissionStatus) IsTerminal() bool {
	switch s {
	case StatusCommitted, StatusRejected, StatusDeferred, StatusCancelled:
		return true
	}
	return false
}

// Submission is the caller-visible view of one submitted record.
type Submission struct {
	ID        string            `json:"id"`
	Record    Record            `json:"record"`
	Status    SubmissionStatus  `json:"status"`
	Verdict   ValidationVerdict `json:"verdict"`
	Outcome   *CommitOutcome    `json:"outcome,omitempty"`
	CreatedBy string            `json:"createdBy,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

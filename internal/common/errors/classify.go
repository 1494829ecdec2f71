// internal/common/errors/classify.go
package errors

import (
	"context"
	stderrors "errors"
	"net"
	"time"

	"github.com/lib/pq"
)

// Postgres error classes relevant to bulk catalog writes.
const (
	pqClassIntegrityViolation    = "23"
	pqClassInsufficientResources = "53"
	pqClassOperatorIntervention  = "57"
	pqCodeUniqueViolation        = "23505"
)

// Normalize ensures any error coming out of a store call is a StandardError,
// so the writer can decide between per-record rejection and batch retry.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}

	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return classifyPQ(pqErr)
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return NewStoreUnavailableError(err)
	}

	if stderrors.Is(err, context.DeadlineExceeded) {
		return NewStoreUnavailableError(err)
	}

	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func classifyPQ(pqErr *pq.Error) *StandardError {
	code := string(pqErr.Code)
	class := string(pqErr.Code.Class())

	switch {
	case code == pqCodeUniqueViolation:
		return NewDuplicateItemError(pqErr.Detail)
	case class == pqClassIntegrityViolation:
		return NewStoreRejectedError("", pqErr)
	case class == pqClassInsufficientResources:
		return NewStoreThrottledError(pqErr)
	case class == pqClassOperatorIntervention:
		return NewStoreUnavailableError(pqErr)
	default:
		return NewStoreRejectedError("", pqErr)
	}
}

// IsTransient reports whether an error should cause a whole-batch retry
// rather than a per-record rejection.
func IsTransient(err error) bool {
	stdErr := Normalize(err)
	if stdErr == nil {
		return false
	}
	return stdErr.Retryable
}

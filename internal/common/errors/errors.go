// Package errors provides standardized error handling for the ingestion pipeline.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Validation errors: returned to the submitter, never retried automatically.
const (
	ErrCodeSpecViolation     ErrorCode = "SPEC_VIOLATION"
	ErrCodeAssetUnreachable  ErrorCode = "ASSET_UNREACHABLE"
	ErrCodeAssetProbeTimeout ErrorCode = "ASSET_PROBE_TIMEOUT"
	ErrCodeAssetAccessDenied ErrorCode = "ASSET_ACCESS_DENIED"
	ErrCodeCollectionMissing ErrorCode = "COLLECTION_MISSING"
)

// Store errors: per-record rejections and transient system failures.
const (
	ErrCodeDuplicateItem    ErrorCode = "DUPLICATE_ITEM"
	ErrCodeStoreRejected    ErrorCode = "STORE_REJECTED"
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeStoreThrottled   ErrorCode = "STORE_THROTTLED"

	ErrCodeRegistryLookupFailed ErrorCode = "REGISTRY_LOOKUP_FAILED"
	ErrCodeDeadLetterFailed     ErrorCode = "DEAD_LETTER_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewSpecViolationError creates a non-retryable item specification error.
func NewSpecViolationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSpecViolation,
		Message:   "Item does not conform to the catalog item specification",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAssetUnreachableError creates a non-retryable asset reachability error.
func NewAssetUnreachableError(href string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAssetUnreachable,
		Message:   "Asset location is not reachable",
		Details:   fmt.Sprintf("href: %s, error: %s", href, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAssetProbeTimeoutError creates a non-retryable probe timeout error.
func NewAssetProbeTimeoutError(href string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAssetProbeTimeout,
		Message:   "Asset probe exceeded timeout threshold",
		Details:   fmt.Sprintf("href: %s", href),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAssetAccessDeniedError creates a non-retryable asset permission error.
func NewAssetAccessDeniedError(href string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAssetAccessDenied,
		Message:   "Access to asset location was denied",
		Details:   fmt.Sprintf("href: %s", href),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCollectionMissingError creates a non-retryable missing collection error.
func NewCollectionMissingError(collectionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCollectionMissing,
		Message:   "Declared collection is not registered in the catalog",
		Details:   fmt.Sprintf("collectionId: %s", collectionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateItemError creates a non-retryable duplicate item error.
func NewDuplicateItemError(itemID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateItem,
		Message:   "Item already exists in the catalog",
		Details:   fmt.Sprintf("itemId: %s", itemID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreRejectedError creates a non-retryable record-level store rejection.
func NewStoreRejectedError(itemID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreRejected,
		Message:   "Catalog store rejected the item",
		Details:   fmt.Sprintf("itemId: %s, error: %s", itemID, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreUnavailableError creates a retryable store availability error.
func NewStoreUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreUnavailable,
		Message:   "Catalog store is unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreThrottledError creates a retryable store throttling error.
func NewStoreThrottledError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreThrottled,
		Message:   "Catalog store throttled the write",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRegistryLookupFailedError creates a retryable collection registry error.
func NewRegistryLookupFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRegistryLookupFailed,
		Message:   "Collection registry lookup failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDeadLetterFailedError creates a retryable dead-letter write error.
func NewDeadLetterFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDeadLetterFailed,
		Message:   "Dead-letter index write failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStoreUnavailable,
		ErrCodeStoreThrottled,
		ErrCodeRegistryLookupFailed,
		ErrCodeDeadLetterFailed:
		return 3 // Retryable technical errors

	default:
		return 0 // Validation and record-level errors: no retry
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "SPEC"):
		return "SPEC"
	case strings.Contains(codeStr, "ASSET"):
		return "ASSET"
	case strings.Contains(codeStr, "COLLECTION") || strings.Contains(codeStr, "REGISTRY"):
		return "COLLECTION"
	case strings.Contains(codeStr, "STORE") || strings.Contains(codeStr, "DUPLICATE"):
		return "STORE"
	default:
		return "OTHER"
	}
}

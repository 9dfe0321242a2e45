// Package errors provides the standardized error taxonomy of the recruiting pipeline
// and its mapping onto BPMN errors for Zeebe job workers.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Caller errors: invalid requests or lost races the caller must handle.
const (
	ErrCodeInvalidStage           ErrorCode = "INVALID_STAGE"
	ErrCodeTerminalStateViolation ErrorCode = "TERMINAL_STATE_VIOLATION"
	ErrCodeIllegalTransition      ErrorCode = "ILLEGAL_TRANSITION"
	ErrCodeConcurrentModification ErrorCode = "CONCURRENT_MODIFICATION"
	ErrCodeDuplicateDraft         ErrorCode = "DUPLICATE_DRAFT"
	ErrCodeInvalidOfferState      ErrorCode = "INVALID_OFFER_STATE"
	ErrCodeLocked                 ErrorCode = "LOCKED"
	ErrCodeNotFound               ErrorCode = "NOT_FOUND"
	ErrCodeValidationFailed       ErrorCode = "VALIDATION_FAILED"
)

// Infrastructure errors.
const (
	ErrCodeDatabaseOperationFailed ErrorCode = "DATABASE_OPERATION_FAILED"
	ErrCodeStoreTimeout            ErrorCode = "STORE_TIMEOUT"
	ErrCodeExternalService         ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeInternal                ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any StandardError carrying the same code, so sentinels work with errors.Is.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Unwrap exposes the underlying driver error, if any.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidStage           = &StandardError{Code: ErrCodeInvalidStage, Message: "unknown stage"}
	ErrTerminalStateViolation = &StandardError{Code: ErrCodeTerminalStateViolation, Message: "candidate is in a terminal stage"}
	ErrIllegalTransition      = &StandardError{Code: ErrCodeIllegalTransition, Message: "transition not allowed"}
	ErrConcurrentModification = &StandardError{Code: ErrCodeConcurrentModification, Message: "record changed concurrently"}
	ErrDuplicateDraft         = &StandardError{Code: ErrCodeDuplicateDraft, Message: "an open offer already exists"}
	ErrInvalidOfferState      = &StandardError{Code: ErrCodeInvalidOfferState, Message: "offer is not in the required state"}
	ErrLocked                 = &StandardError{Code: ErrCodeLocked, Message: "record is locked"}
	ErrNotFound               = &StandardError{Code: ErrCodeNotFound, Message: "record not found"}
	ErrValidationFailed       = &StandardError{Code: ErrCodeValidationFailed, Message: "input validation failed"}
	ErrDatabaseOperation      = &StandardError{Code: ErrCodeDatabaseOperationFailed, Message: "database operation failed"}
	ErrStoreTimeout           = &StandardError{Code: ErrCodeStoreTimeout, Message: "store call timed out"}
)

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Zeebe workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Zeebe job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidStageError reports a stage outside the stage graph.
func NewInvalidStageError(stage string) *StandardError {
	e := newError(ErrCodeInvalidStage, "unknown stage", fmt.Sprintf("stage: %q", stage), false)
	e.Metadata = map[string]interface{}{"stage": stage}
	return e
}

// NewTerminalStateViolationError reports a transition attempted from a terminal stage.
func NewTerminalStateViolationError(candidateID, current string) *StandardError {
	e := newError(ErrCodeTerminalStateViolation, "candidate is in a terminal stage",
		fmt.Sprintf("candidateId: %s, stage: %s", candidateID, current), false)
	e.Metadata = map[string]interface{}{"candidateId": candidateID, "stage": current}
	return e
}

// NewIllegalTransitionError reports a target that is not an edge of the current stage.
func NewIllegalTransitionError(candidateID, from, to string) *StandardError {
	e := newError(ErrCodeIllegalTransition, "transition not allowed",
		fmt.Sprintf("candidateId: %s, from: %s, to: %s", candidateID, from, to), false)
	e.Metadata = map[string]interface{}{"candidateId": candidateID, "from": from, "to": to}
	return e
}

// NewConcurrentModificationError reports a lost optimistic-concurrency race. Callers retry by re-reading.
func NewConcurrentModificationError(resource, id string) *StandardError {
	e := newError(ErrCodeConcurrentModification, "record changed concurrently",
		fmt.Sprintf("%s: %s", resource, id), true)
	e.Metadata = map[string]interface{}{"resource": resource, "id": id}
	return e
}

// NewDuplicateDraftError reports an open offer already present for the candidate.
func NewDuplicateDraftError(candidateID string) *StandardError {
	e := newError(ErrCodeDuplicateDraft, "an open offer already exists",
		fmt.Sprintf("candidateId: %s", candidateID), false)
	e.Metadata = map[string]interface{}{"candidateId": candidateID}
	return e
}

// NewInvalidOfferStateError reports an offer operation attempted from the wrong status.
func NewInvalidOfferStateError(offerID, status, required string) *StandardError {
	e := newError(ErrCodeInvalidOfferState, "offer is not in the required state",
		fmt.Sprintf("offerId: %s, status: %s, required: %s", offerID, status, required), false)
	e.Metadata = map[string]interface{}{"offerId": offerID, "status": status, "required": required}
	return e
}

// NewLockedError reports a write refused because the record or field is locked.
func NewLockedError(resource, id string) *StandardError {
	e := newError(ErrCodeLocked, "record is locked", fmt.Sprintf("%s: %s", resource, id), false)
	e.Metadata = map[string]interface{}{"resource": resource, "id": id}
	return e
}

// NewNotFoundError reports a missing candidate or offer.
func NewNotFoundError(resource, id string) *StandardError {
	e := newError(ErrCodeNotFound, "record not found", fmt.Sprintf("%s: %s", resource, id), false)
	e.Metadata = map[string]interface{}{"resource": resource, "id": id}
	return e
}

// NewValidationError reports malformed caller input.
func NewValidationError(details string) *StandardError {
	return newError(ErrCodeValidationFailed, "input validation failed", details, false)
}

// NewDatabaseError wraps a driver error. Deadline errors become STORE_TIMEOUT.
func NewDatabaseError(operation string, err error) *StandardError {
	if stderrors.Is(err, context.DeadlineExceeded) || strings.Contains(strings.ToLower(err.Error()), "deadline exceeded") {
		e := newError(ErrCodeStoreTimeout, "store call timed out",
			fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
		e.cause = err
		return e
	}
	e := newError(ErrCodeDatabaseOperationFailed, "database operation failed",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
	e.cause = err
	return e
}

// NewExternalServiceError wraps a failure of Zeebe, SES or SNS. These only surface
// from automation hooks, which log and swallow them.
func NewExternalServiceError(service string, err error, transient bool) *StandardError {
	e := newError(ErrCodeExternalService, "external service call failed",
		fmt.Sprintf("service: %s, error: %s", service, err.Error()), transient)
	e.Metadata = map[string]interface{}{"service": service}
	e.cause = err
	return e
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended Zeebe retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeConcurrentModification,
		ErrCodeDatabaseOperationFailed:
		return 3

	case ErrCodeStoreTimeout:
		return 2

	default:
		return 0 // business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Zeebe.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandard normalizes any error into a StandardError.
func AsStandard(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	e := newError(ErrCodeInternal, "unexpected error", err.Error(), false)
	e.cause = err
	return e
}

// CodeOf returns the code of err, INTERNAL_ERROR for foreign errors and "" for nil.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	return AsStandard(err).Code
}

// Outcome is the metrics label for err: "ok" for nil, otherwise the lower-cased code.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return strings.ToLower(string(CodeOf(err)))
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code, used as a metrics label.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeInvalidStage, ErrCodeTerminalStateViolation, ErrCodeIllegalTransition:
		return "TRANSITION"
	case ErrCodeDuplicateDraft, ErrCodeInvalidOfferState:
		return "OFFER"
	case ErrCodeConcurrentModification, ErrCodeLocked:
		return "CONCURRENCY"
	case ErrCodeNotFound, ErrCodeValidationFailed:
		return "REQUEST"
	case ErrCodeDatabaseOperationFailed, ErrCodeStoreTimeout:
		return "DATABASE"
	case ErrCodeExternalService:
		return "EXTERNAL"
	default:
		return "OTHER"
	}
}

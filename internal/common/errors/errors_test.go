package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardError_IsMatchesByCode(t *testing.T) {
	err := NewIllegalTransitionError("c-1", "applied", "offer")

	assert.True(t, stderrors.Is(err, ErrIllegalTransition))
	assert.False(t, stderrors.Is(err, ErrTerminalStateViolation))

	wrapped := fmt.Errorf("transition: %w", err)
	assert.True(t, stderrors.Is(wrapped, ErrIllegalTransition))
	assert.Equal(t, ErrCodeIllegalTransition, CodeOf(wrapped))
}

func TestStandardError_ErrorString(t *testing.T) {
	err := NewNotFoundError("candidate", "c-9")
	assert.Equal(t, "NOT_FOUND: record not found (candidate: c-9)", err.Error())
	assert.Equal(t, "LOCKED: record is locked", ErrLocked.Error())
}

func TestNewDatabaseError(t *testing.T) {
	driverErr := stderrors.New("connection reset by peer")
	err := NewDatabaseError("get candidate", driverErr)

	assert.Equal(t, ErrCodeDatabaseOperationFailed, err.Code)
	assert.True(t, err.Retryable)
	assert.True(t, stderrors.Is(err, driverErr))

	timeout := NewDatabaseError("get candidate", fmt.Errorf("query: %w", context.DeadlineExceeded))
	assert.Equal(t, ErrCodeStoreTimeout, timeout.Code)
	assert.True(t, stderrors.Is(timeout, ErrStoreTimeout))
}

func TestAsStandard_ForeignError(t *testing.T) {
	assert.Nil(t, AsStandard(nil))

	std := AsStandard(stderrors.New("boom"))
	require.NotNil(t, std)
	assert.Equal(t, ErrCodeInternal, std.Code)
	assert.Equal(t, "boom", std.Details)
	assert.False(t, std.Retryable)
}

func TestRetryPolicy(t *testing.T) {
	tests := []struct {
		code      ErrorCode
		retries   int
		retryable bool
		category  string
	}{
		{ErrCodeConcurrentModification, 3, true, "CONCURRENCY"},
		{ErrCodeDatabaseOperationFailed, 3, true, "DATABASE"},
		{ErrCodeStoreTimeout, 2, true, "DATABASE"},
		{ErrCodeIllegalTransition, 0, false, "TRANSITION"},
		{ErrCodeDuplicateDraft, 0, false, "OFFER"},
		{ErrCodeLocked, 0, false, "CONCURRENCY"},
		{ErrCodeNotFound, 0, false, "REQUEST"},
		{ErrCodeInternal, 0, false, "OTHER"},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.retries, GetRetryCount(tt.code))
			assert.Equal(t, tt.retryable, IsRetryableErrorCode(tt.code))
			assert.Equal(t, tt.category, GetErrorCategory(tt.code))
		})
	}
}

func TestConvertToBPMNError(t *testing.T) {
	err := NewConcurrentModificationError("candidate", "c-1")
	bpmn := ConvertToBPMNError(err)

	assert.Equal(t, "CONCURRENT_MODIFICATION", bpmn.Code)
	assert.Equal(t, 3, bpmn.Retries)

	vars := bpmn.ToErrorVariables()
	assert.Equal(t, "CONCURRENT_MODIFICATION", vars["errorCode"])
	assert.Equal(t, "candidate", vars["resource"])
	assert.Equal(t, "c-1", vars["id"])
	assert.Equal(t, true, vars["retryable"])

	business := ConvertToBPMNError(NewLockedError("offer", "o-1"))
	assert.Equal(t, 0, business.Retries)
	assert.False(t, business.Retryable)
}

func TestRetriesFor(t *testing.T) {
	assert.Equal(t, int32(3), RetriesFor(5, 3))
	assert.Equal(t, int32(1), RetriesFor(1, 3))
	assert.Equal(t, int32(2), RetriesFor(0, 2))
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "locked", Outcome(NewLockedError("offer", "o-1")))
	assert.Equal(t, "internal_error", Outcome(stderrors.New("boom")))
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
}

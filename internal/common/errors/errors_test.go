// internal/common/errors/errors_test.go
package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Constructors
// ==========================

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name      string
		err       *StandardError
		code      ErrorCode
		retryable bool
	}{
		{
			name:      "embedding unavailable is retryable",
			err:       NewEmbeddingUnavailableError(assert.AnError),
			code:      ErrCodeEmbeddingUnavailable,
			retryable: true,
		},
		{
			name:      "vector index unavailable degrades instead of retrying",
			err:       NewVectorIndexUnavailableError(assert.AnError),
			code:      ErrCodeVectorIndexUnavailable,
			retryable: false,
		},
		{
			name:      "no eligible candidates is terminal",
			err:       NewNoEligibleCandidatesError("ticket-1"),
			code:      ErrCodeNoEligibleCandidates,
			retryable: false,
		},
		{
			name:      "persistence conflict is retryable",
			err:       NewPersistenceConflictError("ticket-1"),
			code:      ErrCodePersistenceConflict,
			retryable: true,
		},
		{
			name:      "ticket not found is terminal",
			err:       NewTicketNotFoundError("ticket-1"),
			code:      ErrCodeTicketNotFound,
			retryable: false,
		},
		{
			name:      "query execution failed is retryable",
			err:       NewQueryExecutionFailedError("get_ticket", assert.AnError),
			code:      ErrCodeQueryExecutionFailed,
			retryable: true,
		},
		{
			name:      "configuration error is terminal",
			err:       NewConfigurationError("bad weights"),
			code:      ErrCodeConfigurationError,
			retryable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.retryable, tt.err.Retryable)
			assert.False(t, tt.err.Timestamp.IsZero())
		})
	}
}

func TestStandardError_Error(t *testing.T) {
	err := NewTicketNotFoundError("ticket-1")
	assert.Equal(t, "StandardError[TICKET_NOT_FOUND]: Ticket not found", err.Error())
}

// ==========================
// Retry policy
// ==========================

func TestGetRetryCount(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrCodeEmbeddingUnavailable, 3},
		{ErrCodeDatabaseConnectionFailed, 3},
		{ErrCodeQueryExecutionFailed, 3},
		{ErrCodePersistenceConflict, 3},
		{ErrCodeNotificationSendFailed, 3},
		{ErrCodeQueryTimeout, 2},
		{ErrCodeSearchTimeout, 2},
		{ErrCodeNoEligibleCandidates, 0},
		{ErrCodeTicketNotFound, 0},
		{ErrCodeVectorIndexUnavailable, 0},
		{ErrCodeConfigurationError, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.expected, GetRetryCount(tt.code))
		})
	}
}

func TestIsRetryableErrorCode(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeEmbeddingUnavailable))
	assert.True(t, IsRetryableErrorCode(ErrCodeQueryTimeout))
	assert.False(t, IsRetryableErrorCode(ErrCodeTicketNotFound))
	assert.False(t, IsRetryableErrorCode(ErrCodeNoEligibleCandidates))
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "EMBEDDING", GetErrorCategory(ErrCodeEmbeddingUnavailable))
	assert.Equal(t, "EMBEDDING", GetErrorCategory(ErrCodeVectorIndexUnavailable))
	assert.Equal(t, "ROUTING", GetErrorCategory(ErrCodeTicketNotFound))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodePersistenceConflict))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeSearchTimeout))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrorCode("SOMETHING_ELSE")))
}

// ==========================
// BPMN conversion
// ==========================

func TestConvertToBPMNError(t *testing.T) {
	stdErr := NewEmbeddingUnavailableError(assert.AnError)
	bpmnErr := ConvertToBPMNError(stdErr)

	assert.Equal(t, "EMBEDDING_UNAVAILABLE", bpmnErr.Code)
	assert.Equal(t, stdErr.Message, bpmnErr.Message)
	assert.True(t, bpmnErr.Retryable)
	assert.Equal(t, 3, bpmnErr.Retries)
	assert.Equal(t, "EMBEDDING_UNAVAILABLE", bpmnErr.ErrorVariables["originalErrorCode"])
}

func TestConvertToBPMNError_NonRetryableZeroesRetries(t *testing.T) {
	bpmnErr := ConvertToBPMNError(NewTicketNotFoundError("ticket-1"))

	assert.Equal(t, "TICKET_NOT_FOUND", bpmnErr.Code)
	assert.False(t, bpmnErr.Retryable)
	assert.Zero(t, bpmnErr.Retries)
}

func TestConvertToBPMNError_UnmappedCodeFallsBack(t *testing.T) {
	stdErr := &StandardError{Code: "CUSTOM_CODE", Message: "custom"}
	bpmnErr := ConvertToBPMNError(stdErr)
	assert.Equal(t, "CUSTOM_CODE", bpmnErr.Code)
}

func TestBPMNError_ToErrorVariables(t *testing.T) {
	bpmnErr := &BPMNError{
		Code:      "TICKET_NOT_FOUND",
		Message:   "Ticket not found",
		Retryable: false,
		ErrorVariables: map[string]interface{}{
			"ticketId": "ticket-1",
		},
	}

	vars := bpmnErr.ToErrorVariables()
	require.Equal(t, "TICKET_NOT_FOUND", vars["errorCode"])
	assert.Equal(t, "Ticket not found", vars["errorMessage"])
	assert.Equal(t, false, vars["retryable"])
	assert.Equal(t, "ticket-1", vars["ticketId"])
}

// Package errors provides standardized error handling for the travel assistant services.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	ErrCodeSessionNotFound   ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeSessionLoadFailed ErrorCode = "SESSION_LOAD_FAILED"
	ErrCodeSessionSaveFailed ErrorCode = "SESSION_SAVE_FAILED"

	ErrCodeRoutingFailed ErrorCode = "ROUTING_FAILED"
	ErrCodeAgentDisabled ErrorCode = "AGENT_DISABLED"

	ErrCodeLLMTimeout       ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMRequestFailed ErrorCode = "LLM_REQUEST_FAILED"
	ErrCodeEmbeddingFailed  ErrorCode = "EMBEDDING_FAILED"

	ErrCodeFlightSearchFailed  ErrorCode = "FLIGHT_SEARCH_FAILED"
	ErrCodeFlightNotFound      ErrorCode = "FLIGHT_NOT_FOUND"
	ErrCodeBookingCreateFailed ErrorCode = "BOOKING_CREATE_FAILED"

	ErrCodeToolCallFailed ErrorCode = "TOOL_CALL_FAILED"
	ErrCodeToolTimeout    ErrorCode = "TOOL_TIMEOUT"
	ErrCodeToolNotFound   ErrorCode = "TOOL_NOT_FOUND"
	ErrCodeQueryRejected  ErrorCode = "QUERY_REJECTED"

	ErrCodeComplaintCreateFailed  ErrorCode = "COMPLAINT_CREATE_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeKnowledgeQueryFailed ErrorCode = "KNOWLEDGE_QUERY_FAILED"
	ErrCodeKnowledgeIndexFailed ErrorCode = "KNOWLEDGE_INDEX_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
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

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationFailedError creates a non-retryable request validation error.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionNotFoundError creates a non-retryable session lookup error.
func NewSessionNotFoundError(sessionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionNotFound,
		Message:   "Session not found",
		Details:   fmt.Sprintf("sessionId: %s", sessionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionLoadFailedError creates a retryable session store error.
func NewSessionLoadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionLoadFailed,
		Message:   "Failed to load session state",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionSaveFailedError creates a retryable session store error.
func NewSessionSaveFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionSaveFailed,
		Message:   "Failed to save session state",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRoutingFailedError creates a retryable intent classification error.
func NewRoutingFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRoutingFailed,
		Message:   "Intent classification failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAgentDisabledError creates a non-retryable configuration error.
func NewAgentDisabledError(agent string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAgentDisabled,
		Message:   "Agent is disabled",
		Details:   fmt.Sprintf("agent: %s", agent),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMTimeoutError creates a retryable LLM timeout error.
func NewLLMTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMTimeout,
		Message:   "LLM call timed out",
		Details:   "API call exceeded timeout threshold",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMRequestFailedError creates a retryable LLM API error.
func NewLLMRequestFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMRequestFailed,
		Message:   "LLM API error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmbeddingFailedError creates a retryable embedding API error.
func NewEmbeddingFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmbeddingFailed,
		Message:   "Embedding API error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewFlightSearchFailedError creates a retryable flight search error.
func NewFlightSearchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeFlightSearchFailed,
		Message:   "Flight search failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewFlightNotFoundError creates a non-retryable flight lookup error.
func NewFlightNotFoundError(flightID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeFlightNotFound,
		Message:   "Flight not found",
		Details:   fmt.Sprintf("flightId: %s", flightID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBookingCreateFailedError creates a retryable booking persistence error.
func NewBookingCreateFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBookingCreateFailed,
		Message:   "Booking record creation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewToolCallFailedError creates a retryable MCP tool error.
func NewToolCallFailedError(tool string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeToolCallFailed,
		Message:   "MCP tool call failed",
		Details:   fmt.Sprintf("tool: %s, error: %s", tool, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewToolTimeoutError creates a retryable MCP tool timeout error.
func NewToolTimeoutError(tool string) *StandardError {
	return &StandardError{
		Code:      ErrCodeToolTimeout,
		Message:   "MCP tool call timed out",
		Details:   fmt.Sprintf("tool: %s", tool),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewToolNotFoundError creates a non-retryable unknown tool error.
func NewToolNotFoundError(tool string) *StandardError {
	return &StandardError{
		Code:      ErrCodeToolNotFound,
		Message:   "Unknown MCP tool",
		Details:   fmt.Sprintf("tool: %s", tool),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryRejectedError creates a non-retryable read-only guard error.
func NewQueryRejectedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryRejected,
		Message:   "Query rejected by read-only guard",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewComplaintCreateFailedError creates a retryable complaint persistence error.
func NewComplaintCreateFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeComplaintCreateFailed,
		Message:   "Complaint record creation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewKnowledgeQueryFailedError creates a retryable knowledge retrieval error.
func NewKnowledgeQueryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeKnowledgeQueryFailed,
		Message:   "Knowledge index query failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewKnowledgeIndexFailedError creates a retryable knowledge indexing error.
func NewKnowledgeIndexFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeKnowledgeIndexFailed,
		Message:   "Knowledge index write failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Retry Policy
// ==========================

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeSessionLoadFailed,
		ErrCodeSessionSaveFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeBookingCreateFailed,
		ErrCodeComplaintCreateFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeKnowledgeQueryFailed,
		ErrCodeKnowledgeIndexFailed,
		ErrCodeLLMRequestFailed,
		ErrCodeEmbeddingFailed,
		ErrCodeFlightSearchFailed,
		ErrCodeToolCallFailed:
		return 3 // Retryable technical errors

	case ErrCodeRoutingFailed,
		ErrCodeToolTimeout:
		return 2 // Partial retry for timeouts

	case ErrCodeLLMTimeout:
		return 1

	default:
		return 0 // Business errors: no retry
	}
}

// ==========================
// 4. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "SESSION"):
		return "SESSION"
	case strings.Contains(codeStr, "FLIGHT") || strings.Contains(codeStr, "BOOKING"):
		return "BOOKING"
	case strings.Contains(codeStr, "TOOL") || strings.Contains(codeStr, "QUERY_REJECTED"):
		return "MCP"
	case strings.Contains(codeStr, "KNOWLEDGE"):
		return "KNOWLEDGE"
	case strings.Contains(codeStr, "COMPLAINT") || strings.Contains(codeStr, "NOTIFICATION"):
		return "COMPLAINT"
	case strings.Contains(codeStr, "LLM") || strings.Contains(codeStr, "EMBEDDING") || strings.Contains(codeStr, "ROUTING"):
		return "AI"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

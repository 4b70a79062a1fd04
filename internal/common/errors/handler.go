// internal/common/errors/handler.go
package errors

import (
	stderrors "errors"
	"net/http"
)

// HTTPStatus maps a StandardError code to the HTTP status the chat API returns.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed, ErrCodeQueryRejected:
		return http.StatusBadRequest
	case ErrCodeSessionNotFound, ErrCodeFlightNotFound, ErrCodeToolNotFound:
		return http.StatusNotFound
	case ErrCodeAgentDisabled:
		return http.StatusServiceUnavailable
	}

	if IsRetryableErrorCode(code) {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}

// AsStandardError extracts a *StandardError from an error chain. Unknown errors
// are wrapped as a non-retryable internal failure so every HTTP response has a
// stable envelope.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrorCode("INTERNAL_ERROR"),
		Message:   "Internal error",
		Details:   err.Error(),
		Retryable: false,
	}
}

// StatusFor returns the HTTP status for any error.
func StatusFor(err error) int {
	stdErr := AsStandardError(err)
	if string(stdErr.Code) == "INTERNAL_ERROR" {
		return http.StatusInternalServerError
	}
	return HTTPStatus(stdErr.Code)
}

package providers

import (
	"errors"
	"fmt"
)

// ErrorCategory defines the normalized failure taxonomy for verifier calls.
type ErrorCategory string

const (
	// ErrorTimeout indicates the authority took too long to respond
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorBadData indicates the authority returned invalid/malformed data
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorProviderOutage indicates the authority is unavailable
	ErrorProviderOutage ErrorCategory = "provider_outage"

	// ErrorNotFound indicates the requested record doesn't exist
	ErrorNotFound ErrorCategory = "not_found"

	// ErrorInternal indicates an unexpected internal error
	ErrorInternal ErrorCategory = "internal"
)

// VerifierError wraps verifier failures with normalized categorization.
// Timeout and outage categories surface as OutcomeUnavailable; they are
// retried on the next run, never inside the same one.
type VerifierError struct {
	Category   ErrorCategory
	Provider   string
	Message    string
	Underlying error
	Retryable  bool // Whether this error is worth retrying
}

func (e *VerifierError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("verifier %s [%s]: %s: %v", e.Provider, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("verifier %s [%s]: %s", e.Provider, e.Category, e.Message)
}

func (e *VerifierError) Unwrap() error {
	return e.Underlying
}

// NewVerifierError creates a new normalized verifier error.
func NewVerifierError(category ErrorCategory, provider, message string, underlying error) *VerifierError {
	retryable := category == ErrorTimeout || category == ErrorProviderOutage

	return &VerifierError{
		Category:   category,
		Provider:   provider,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var ve *VerifierError
	if errors.As(err, &ve) {
		return ve.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error.
func GetCategory(err error) ErrorCategory {
	var ve *VerifierError
	if errors.As(err, &ve) {
		return ve.Category
	}
	return ErrorInternal
}

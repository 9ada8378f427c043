package errors

import (
	"errors"
	"fmt"
)

// Error codes for programmatic handling.
const (
	CodeConfigInvalid      = "CONFIG_INVALID"
	CodeAPIKeyMissing      = "API_KEY_MISSING"
	CodeProviderError      = "PROVIDER_ERROR"
	CodeTimeout            = "TIMEOUT"
	CodeMaxIterations      = "MAX_ITERATIONS"
	CodeRoutingAmbiguity   = "ROUTING_AMBIGUITY"
	CodeCorrelationFailure = "CORRELATION_FAILURE"
	CodeStoreError         = "STORE_ERROR"
	CodeSearchError        = "SEARCH_ERROR"
)

// AideError is a structured error with a code and actionable suggestion.
type AideError struct {
	Code       string // machine-readable code (e.g. ROUTING_AMBIGUITY)
	Message    string // human-readable description
	Suggestion string // actionable fix
	Err        error  // wrapped underlying error
}

// Error implements the error interface.
func (e *AideError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap supports errors.Is / errors.As.
func (e *AideError) Unwrap() error {
	return e.Err
}

// New creates an AideError with the given code and message.
func New(code, message string) *AideError {
	return &AideError{Code: code, Message: message}
}

// Wrap creates an AideError wrapping an existing error.
func Wrap(code, message string, err error) *AideError {
	return &AideError{Code: code, Message: message, Err: err}
}

// WithSuggestion returns a copy with the suggestion set.
func (e *AideError) WithSuggestion(suggestion string) *AideError {
	e.Suggestion = suggestion
	return e
}

// Is checks whether target matches this error's code.
func (e *AideError) Is(target error) bool {
	var ae *AideError
	if errors.As(target, &ae) {
		return e.Code == ae.Code
	}
	return false
}

// AsCode extracts the AideError code from an error, or "" if not an AideError.
func AsCode(err error) string {
	var ae *AideError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// Suggestion extracts the suggestion from an error, or "" if not an AideError.
func Suggestion(err error) string {
	var ae *AideError
	if errors.As(err, &ae) {
		return ae.Suggestion
	}
	return ""
}

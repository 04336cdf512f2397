package searcherr

import (
	"fmt"
)

// Error is the structured error type for the search core. It carries
// enough context for callers to decide whether to retry (trigram
// fallback), surface a user message, or escalate to bootstrap (schema
// repair failure).
type Error struct {
	// Code is the unique error code (e.g., "ERR_202_SCHEMA_ERROR").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Compiler, Schema, Store, ...).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs, e.g.
	// the plan's raw_query_text attached as diagnostic metadata.
	Details map[string]string

	// Cause is the underlying error that produced this one.
	Cause error

	// Retryable indicates whether the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by code, so errors.Is works against sentinel
// *Error values built with New.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error and returns it for
// chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion sets an actionable suggestion for the user and
// returns the error for chaining.
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestion = suggestion
	return e
}

// New creates an Error with the given code and message. Category,
// severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates an Error from an existing error, using the wrapped
// error's message. Returns nil if err is nil.
func Wrap(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// InvalidQuery reports an empty MATCH and empty trigram expression
// (spec.md §7): the plan invariant could not be satisfied.
func InvalidQuery(message string) *Error {
	return New(ErrCodeInvalidQuery, message, nil)
}

// InvalidArgument reports an unsafe SQL fragment or other rejected
// input (spec.md §6 SQL safety rules).
func InvalidArgument(message string) *Error {
	return New(ErrCodeInvalidArgument, message, nil)
}

// FeatureUnavailable reports that the FTS module or a required
// tokenizer option is not available in the host engine.
func FeatureUnavailable(message string, cause error) *Error {
	return New(ErrCodeFeatureUnavailable, message, cause)
}

// SchemaError reports that schema repair failed, or that the schema
// is still invalid after repair.
func SchemaError(message string, cause error) *Error {
	return New(ErrCodeSchemaError, message, cause)
}

// Cancelled wraps a caller cancellation so it can still be
// distinguished from a genuine store failure.
func Cancelled(cause error) *Error {
	return New(ErrCodeCancelled, "operation cancelled", cause)
}

// StoreError reports an underlying store failure, propagated with
// context.
func StoreError(message string, cause error) *Error {
	return New(ErrCodeStoreError, message, cause)
}

// IsRetryable reports whether err is a retryable *Error.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := err.(*Error); ok {
		return e.Retryable
	}
	return false
}

// IsFatal reports whether err is a fatal-severity *Error.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := err.(*Error); ok {
		return e.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from err, or "" if it isn't an
// *Error.
func GetCode(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// GetCategory extracts the category from err, or "" if it isn't an
// *Error.
func GetCategory(err error) Category {
	if e, ok := err.(*Error); ok {
		return e.Category
	}
	return ""
}

// Package searcherr provides the structured error taxonomy for the
// search core (spec.md §7). Error codes follow the pattern
// ERR_XXX_DESCRIPTION where:
//   - 1XX: query-compiler errors (caller-recoverable)
//   - 2XX: schema/capability errors
//   - 3XX: store/execution errors
//   - 4XX: cancellation
//   - 5XX: reserved for the ingestion/write-path boundary (never
//     produced by this module; listed for completeness of the
//     plan↔store boundary per spec.md §7)
package searcherr

// Category defines error categories for classification.
type Category string

const (
	// CategoryCompiler indicates a query-compiler-local error the
	// caller can recover from (e.g. by showing zero results).
	CategoryCompiler Category = "COMPILER"
	// CategorySchema indicates an FTS schema/capability error.
	CategorySchema Category = "SCHEMA"
	// CategoryStore indicates an underlying database store failure.
	CategoryStore Category = "STORE"
	// CategoryCancellation indicates the operation was cancelled.
	CategoryCancellation Category = "CANCELLATION"
	// CategoryIngestion indicates an error reserved for the
	// ingestion/write path, never raised by the search core itself.
	CategoryIngestion Category = "INGESTION"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates the query path is unusable until the
	// next successful schema repair.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates the current operation failed but the
	// caller can continue (e.g. retry via trigram fallback).
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category, per spec.md §7.
const (
	// Query-compiler errors (100-199)
	ErrCodeInvalidQuery    = "ERR_101_INVALID_QUERY"
	ErrCodeInvalidArgument = "ERR_102_INVALID_ARGUMENT"

	// Schema/capability errors (200-299)
	ErrCodeFeatureUnavailable = "ERR_201_FEATURE_UNAVAILABLE"
	ErrCodeSchemaError        = "ERR_202_SCHEMA_ERROR"

	// Store/execution errors (300-399)
	ErrCodeStoreError = "ERR_301_STORE_ERROR"

	// Cancellation (400-499)
	ErrCodeCancelled = "ERR_401_CANCELLED"

	// Ingestion/write-path boundary (500-599); never returned by this
	// module, declared so the taxonomy is complete at the plan↔store
	// boundary per spec.md §7.
	ErrCodeConcurrencyConflict = "ERR_501_CONCURRENCY_CONFLICT"
	ErrCodeDuplicateContent    = "ERR_502_DUPLICATE_CONTENT"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryStore
	}

	numStr := code[4:7]
	switch numStr[0] {
	case '1':
		return CategoryCompiler
	case '2':
		return CategorySchema
	case '3':
		return CategoryStore
	case '4':
		return CategoryCancellation
	case '5':
		return CategoryIngestion
	default:
		return CategoryStore
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeSchemaError:
		return SeverityFatal
	case ErrCodeStoreError:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// isRetryableCode reports whether an error code represents a
// retryable error: trigram fallback stands in for lexical undershoot,
// and schema repair is retried at most once per health-check cycle
// (enforced by the schema manager, not by this helper).
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeSchemaError, ErrCodeStoreError:
		return true
	default:
		return false
	}
}

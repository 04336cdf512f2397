package searcherr

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForUser_BasicError(t *testing.T) {
	err := New(ErrCodeInvalidQuery, "match and trigram both empty", nil)

	result := FormatForUser(err, false)

	assert.Contains(t, result, "match and trigram both empty")
	assert.Contains(t, result, "[ERR_101_INVALID_QUERY]")
}

func TestFormatForUser_WithSuggestion(t *testing.T) {
	err := New(ErrCodeFeatureUnavailable, "fts5 module not available", nil).
		WithSuggestion("rebuild the host engine with FTS5 support")

	result := FormatForUser(err, false)

	assert.Contains(t, result, "Suggestion:")
	assert.Contains(t, result, "rebuild the host engine")
}

func TestFormatForUser_StandardError(t *testing.T) {
	err := errors.New("something went wrong")

	result := FormatForUser(err, false)

	assert.Contains(t, result, "something went wrong")
}

func TestFormatForUser_NilError(t *testing.T) {
	assert.Empty(t, FormatForUser(nil, false))
}

func TestFormatJSON_BasicError(t *testing.T) {
	err := New(ErrCodeStoreError, "query failed", nil).
		WithDetail("raw_query_text", "title:report").
		WithSuggestion("retry with trigram fallback")

	data, jsonErr := FormatJSON(err)
	require.NoError(t, jsonErr)

	var result map[string]any
	require.NoError(t, json.Unmarshal(data, &result))

	assert.Equal(t, ErrCodeStoreError, result["code"])
	assert.Equal(t, "query failed", result["message"])
	assert.Equal(t, string(CategoryStore), result["category"])
	assert.Equal(t, string(SeverityWarning), result["severity"])
	assert.Equal(t, "retry with trigram fallback", result["suggestion"])

	details, ok := result["details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "title:report", details["raw_query_text"])
}

func TestFormatJSON_StandardError(t *testing.T) {
	err := errors.New("generic error")

	data, jsonErr := FormatJSON(err)
	require.NoError(t, jsonErr)

	var result map[string]any
	require.NoError(t, json.Unmarshal(data, &result))

	assert.Equal(t, ErrCodeStoreError, result["code"])
	assert.Equal(t, "generic error", result["message"])
}

func TestFormatJSON_NilError(t *testing.T) {
	data, err := FormatJSON(nil)
	assert.NoError(t, err)
	assert.Equal(t, "null", strings.TrimSpace(string(data)))
}

func TestFormatJSON_WithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := New(ErrCodeStoreError, "operation failed", cause)

	data, jsonErr := FormatJSON(err)
	require.NoError(t, jsonErr)

	var result map[string]any
	require.NoError(t, json.Unmarshal(data, &result))

	assert.Equal(t, "underlying error", result["cause"])
}

func TestFormatForCLI_IncludesSuggestionAndCode(t *testing.T) {
	err := New(ErrCodeSchemaError, "schema still invalid after repair", nil).
		WithSuggestion("run enforce_unified_schema again")

	result := FormatForCLI(err)

	assert.Contains(t, result, "schema still invalid after repair")
	assert.Contains(t, result, "ERR_202_SCHEMA_ERROR")
}

func TestFormatForCLI_ShortFormat(t *testing.T) {
	err := New(ErrCodeInvalidQuery, "empty query", nil)

	result := FormatForCLI(err)

	lines := strings.Split(strings.TrimSpace(result), "\n")
	assert.LessOrEqual(t, len(lines), 5, "should be concise")
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_ReturnsSpecDefaults(t *testing.T) {
	cfg := NewConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, "standard", cfg.Analyzer.DefaultProfile)
	assert.Equal(t, 2048, cfg.Analyzer.MaxTrigramTokens)

	assert.Equal(t, 4.0, cfg.Scoring.FieldWeights["title"])
	assert.Equal(t, 2.0, cfg.Scoring.FieldWeights["author"])
	assert.Equal(t, 0.8, cfg.Scoring.FieldWeights["metadata_text"])
	assert.Equal(t, 0.2, cfg.Scoring.FieldWeights["metadata"])
	assert.Equal(t, 0.1, cfg.Scoring.FieldWeights["mime"])
	assert.Equal(t, 1.0, cfg.Scoring.ScoreMultiplier)
	assert.False(t, cfg.Scoring.UseTFIDFAlternative)
	assert.Equal(t, 0.5, cfg.Scoring.TFIDFDamping)
	assert.False(t, cfg.Scoring.HigherIsBetter)
	assert.Equal(t, "weighted", cfg.Scoring.MergeMode)
	assert.Equal(t, 0.7, cfg.Scoring.LuceneWeight)
	assert.Equal(t, 3, cfg.Scoring.OversampleMultiplier)
	assert.Equal(t, 0.45, cfg.Scoring.DefaultTrigramScale)
	assert.Equal(t, 0.30, cfg.Scoring.TrigramFloor)

	assert.True(t, cfg.Fallback.EnableHeuristicFuzzy)
	assert.Equal(t, 5, cfg.Fallback.PrefixMinResults)
	assert.Equal(t, 5, cfg.Fallback.FuzzyMinResults)
	assert.Equal(t, 0.35, cfg.Fallback.FuzzyScoreThreshold)

	assert.Equal(t, 30, cfg.Schema.SnapshotTTLSeconds)
	assert.Equal(t, 200, cfg.History.MaxEntries)
	assert.Equal(t, 100, cfg.History.MaxFavorites)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "weighted", cfg.Scoring.MergeMode)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "searchcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
scoring:
  merge_mode: max
  lucene_weight: 0.9
fallback:
  prefix_min_results: 10
log_level: debug
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "max", cfg.Scoring.MergeMode)
	assert.Equal(t, 0.9, cfg.Scoring.LuceneWeight)
	assert.Equal(t, 10, cfg.Fallback.PrefixMinResults)
	assert.Equal(t, "debug", cfg.LogLevel)
	// Unset fields keep their defaults.
	assert.Equal(t, 5, cfg.Fallback.FuzzyMinResults)
}

func TestLoad_FieldWeightOverrideMergesRatherThanReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "searchcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
scoring:
  field_weights:
    title: 6.0
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 6.0, cfg.Scoring.FieldWeights["title"])
	assert.Equal(t, 2.0, cfg.Scoring.FieldWeights["author"])
}

func TestLoad_EnvOverridesTakePrecedenceOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "searchcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scoring:\n  merge_mode: sum\n"), 0644))

	t.Setenv("SEARCHCORE_MERGE_MODE", "max")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "max", cfg.Scoring.MergeMode)
}

func TestLoad_InvalidYAMLReturnsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "searchcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scoring: [this is not a map"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSchemaLockPath_DerivedFromDatabasePath(t *testing.T) {
	cfg := NewConfig()
	cfg.Schema.DatabasePath = "/var/lib/searchcore/search.db"
	cfg.Schema.LockPath = ""
	cfg.applyDerivedDefaults()

	assert.Equal(t, "/var/lib/searchcore/search.db.lock", cfg.Schema.LockPath)
}

func TestSchemaLockPath_NotDerivedForInMemoryDatabase(t *testing.T) {
	cfg := NewConfig()
	cfg.Schema.DatabasePath = ":memory:"
	cfg.Schema.LockPath = ""
	cfg.applyDerivedDefaults()

	assert.Empty(t, cfg.Schema.LockPath)
}

func TestValidate_RejectsNegativeFieldWeight(t *testing.T) {
	cfg := NewConfig()
	cfg.Scoring.FieldWeights["title"] = -1
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsOutOfRangeLuceneWeight(t *testing.T) {
	cfg := NewConfig()
	cfg.Scoring.LuceneWeight = 1.5
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsUnknownMergeMode(t *testing.T) {
	cfg := NewConfig()
	cfg.Scoring.MergeMode = "average"
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsOversampleMultiplierBelowOne(t *testing.T) {
	cfg := NewConfig()
	cfg.Scoring.OversampleMultiplier = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsTrigramFloorOutOfRange(t *testing.T) {
	cfg := NewConfig()
	cfg.Scoring.TrigramFloor = 1.2
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsUnknownLogLevel(t *testing.T) {
	cfg := NewConfig()
	cfg.LogLevel = "verbose"
	assert.Error(t, cfg.Validate())
}

func TestValidate_AcceptsDefaults(t *testing.T) {
	cfg := NewConfig()
	assert.NoError(t, cfg.Validate())
}

func TestWriteYAML_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.yaml")

	cfg := NewConfig()
	cfg.Scoring.MergeMode = "sum"
	require.NoError(t, cfg.WriteYAML(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sum", loaded.Scoring.MergeMode)
}

// Package config loads the search core's configuration: analyzer
// defaults, scoring defaults, the fallback-heuristic policy, FTS
// schema manager paths, and history/favorites limits. Loading follows
// a layered precedence of hardcoded defaults, a YAML file, then
// environment variable overrides, matching the convention the rest of
// the AstraidLabs tooling uses.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the complete search core configuration.
type Config struct {
	Version  int            `yaml:"version" json:"version"`
	Analyzer AnalyzerConfig `yaml:"analyzer" json:"analyzer"`
	Scoring  ScoringConfig  `yaml:"scoring" json:"scoring"`
	Fallback FallbackConfig `yaml:"fallback" json:"fallback"`
	Schema   SchemaConfig   `yaml:"schema" json:"schema"`
	History  HistoryConfig  `yaml:"history" json:"history"`
	LogLevel string         `yaml:"log_level" json:"log_level"`
}

// AnalyzerConfig configures the default analyzer profile and the
// trigram fallback's token budget.
type AnalyzerConfig struct {
	// DefaultProfile names the registry profile used when a field has
	// no language- or field-specific override (default: "standard").
	DefaultProfile string `yaml:"default_profile" json:"default_profile"`
	// MaxTrigramTokens is loaded, merged and validated (default: 2048)
	// but not read by internal/trigram, which caps collected trigram
	// entries at its own MaxTokens constant (also 2048).
	MaxTrigramTokens int `yaml:"max_trigram_tokens" json:"max_trigram_tokens"`
}

// ScoringConfig configures the per-field BM25 weights and the hybrid
// merge parameters (spec.md §4.2).
type ScoringConfig struct {
	FieldWeights        map[string]float64 `yaml:"field_weights" json:"field_weights"`
	ScoreMultiplier      float64            `yaml:"score_multiplier" json:"score_multiplier"`
	UseTFIDFAlternative  bool               `yaml:"use_tfidf_alternative" json:"use_tfidf_alternative"`
	TFIDFDamping         float64            `yaml:"tfidf_damping" json:"tfidf_damping"`
	HigherIsBetter       bool               `yaml:"higher_is_better" json:"higher_is_better"`
	MergeMode            string             `yaml:"merge_mode" json:"merge_mode"`
	LuceneWeight         float64            `yaml:"lucene_weight" json:"lucene_weight"`
	OversampleMultiplier int                `yaml:"oversample_multiplier" json:"oversample_multiplier"`
	DefaultTrigramScale  float64            `yaml:"default_trigram_scale" json:"default_trigram_scale"`
	TrigramFloor         float64            `yaml:"trigram_floor" json:"trigram_floor"`
}

// FallbackConfig configures the heuristic-fuzzy fallback policy
// (spec.md §4.5).
type FallbackConfig struct {
	EnableHeuristicFuzzy bool    `yaml:"enable_heuristic_fuzzy" json:"enable_heuristic_fuzzy"`
	PrefixMinResults     int     `yaml:"prefix_min_results" json:"prefix_min_results"`
	FuzzyMinResults      int     `yaml:"fuzzy_min_results" json:"fuzzy_min_results"`
	FuzzyScoreThreshold  float64 `yaml:"fuzzy_score_threshold" json:"fuzzy_score_threshold"`
}

// SchemaConfig configures where the FTS schema manager finds its
// database and lock file, and how long it trusts a cached snapshot.
type SchemaConfig struct {
	// DatabasePath is the path to the SQLite database file. Use
	// ":memory:" for an in-memory database (tests, ephemeral runs).
	DatabasePath string `yaml:"database_path" json:"database_path"`
	// LockPath is the path to the advisory lock file used to
	// serialize schema repair across processes. Defaults to
	// DatabasePath + ".lock".
	LockPath string `yaml:"lock_path" json:"lock_path"`
	// SnapshotTTLSeconds is how long an inspected schema snapshot is
	// trusted before the schema manager inspects again (default: 30).
	// The capability probe result is not subject to this TTL.
	SnapshotTTLSeconds int `yaml:"snapshot_ttl_seconds" json:"snapshot_ttl_seconds"`
}

// HistoryConfig configures the search history and favorites limits
// (spec.md §3, §6).
type HistoryConfig struct {
	// MaxEntries caps the number of retained history rows; the oldest
	// entries are evicted beyond this limit (default: 200).
	MaxEntries int `yaml:"max_entries" json:"max_entries"`
	// MaxFavorites caps the number of named saved queries (default:
	// 100).
	MaxFavorites int `yaml:"max_favorites" json:"max_favorites"`
}

// NewConfig returns a Config populated with the defaults from
// spec.md §4.2 and §4.5.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Analyzer: AnalyzerConfig{
			DefaultProfile:   "standard",
			MaxTrigramTokens: 2048,
		},
		Scoring: ScoringConfig{
			FieldWeights: map[string]float64{
				"title":         4.0,
				"author":        2.0,
				"metadata_text": 0.8,
				"metadata":      0.2,
				"mime":          0.1,
			},
			ScoreMultiplier:      1.0,
			UseTFIDFAlternative:  false,
			TFIDFDamping:         0.5,
			HigherIsBetter:       false,
			MergeMode:            "weighted",
			LuceneWeight:         0.7,
			OversampleMultiplier: 3,
			DefaultTrigramScale:  0.45,
			TrigramFloor:         0.30,
		},
		Fallback: FallbackConfig{
			EnableHeuristicFuzzy: true,
			PrefixMinResults:     5,
			FuzzyMinResults:      5,
			FuzzyScoreThreshold:  0.35,
		},
		Schema: SchemaConfig{
			DatabasePath:       defaultDatabasePath(),
			LockPath:           "",
			SnapshotTTLSeconds: 30,
		},
		History: HistoryConfig{
			MaxEntries:   200,
			MaxFavorites: 100,
		},
		LogLevel: "info",
	}
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "searchcore", "search.db")
	}
	return filepath.Join(home, ".searchcore", "search.db")
}

// Load loads configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. YAML file at path, if it exists
//  3. Environment variable overrides (SEARCHCORE_*)
//  4. Validation
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cfg.loadYAML(path); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.applyDerivedDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Analyzer.DefaultProfile != "" {
		c.Analyzer.DefaultProfile = other.Analyzer.DefaultProfile
	}
	if other.Analyzer.MaxTrigramTokens != 0 {
		c.Analyzer.MaxTrigramTokens = other.Analyzer.MaxTrigramTokens
	}

	if len(other.Scoring.FieldWeights) > 0 {
		for field, weight := range other.Scoring.FieldWeights {
			c.Scoring.FieldWeights[field] = weight
		}
	}
	if other.Scoring.ScoreMultiplier != 0 {
		c.Scoring.ScoreMultiplier = other.Scoring.ScoreMultiplier
	}
	c.Scoring.UseTFIDFAlternative = other.Scoring.UseTFIDFAlternative || c.Scoring.UseTFIDFAlternative
	if other.Scoring.TFIDFDamping != 0 {
		c.Scoring.TFIDFDamping = other.Scoring.TFIDFDamping
	}
	c.Scoring.HigherIsBetter = other.Scoring.HigherIsBetter || c.Scoring.HigherIsBetter
	if other.Scoring.MergeMode != "" {
		c.Scoring.MergeMode = other.Scoring.MergeMode
	}
	if other.Scoring.LuceneWeight != 0 {
		c.Scoring.LuceneWeight = other.Scoring.LuceneWeight
	}
	if other.Scoring.OversampleMultiplier != 0 {
		c.Scoring.OversampleMultiplier = other.Scoring.OversampleMultiplier
	}
	if other.Scoring.DefaultTrigramScale != 0 {
		c.Scoring.DefaultTrigramScale = other.Scoring.DefaultTrigramScale
	}
	if other.Scoring.TrigramFloor != 0 {
		c.Scoring.TrigramFloor = other.Scoring.TrigramFloor
	}

	c.Fallback.EnableHeuristicFuzzy = other.Fallback.EnableHeuristicFuzzy || c.Fallback.EnableHeuristicFuzzy
	if other.Fallback.PrefixMinResults != 0 {
		c.Fallback.PrefixMinResults = other.Fallback.PrefixMinResults
	}
	if other.Fallback.FuzzyMinResults != 0 {
		c.Fallback.FuzzyMinResults = other.Fallback.FuzzyMinResults
	}
	if other.Fallback.FuzzyScoreThreshold != 0 {
		c.Fallback.FuzzyScoreThreshold = other.Fallback.FuzzyScoreThreshold
	}

	if other.Schema.DatabasePath != "" {
		c.Schema.DatabasePath = other.Schema.DatabasePath
	}
	if other.Schema.LockPath != "" {
		c.Schema.LockPath = other.Schema.LockPath
	}
	if other.Schema.SnapshotTTLSeconds != 0 {
		c.Schema.SnapshotTTLSeconds = other.Schema.SnapshotTTLSeconds
	}

	if other.History.MaxEntries != 0 {
		c.History.MaxEntries = other.History.MaxEntries
	}
	if other.History.MaxFavorites != 0 {
		c.History.MaxFavorites = other.History.MaxFavorites
	}

	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}

// applyDerivedDefaults fills in fields computed from other fields
// once the rest of the config has settled (e.g. the lock file path
// defaults to alongside the database).
func (c *Config) applyDerivedDefaults() {
	if c.Schema.LockPath == "" && c.Schema.DatabasePath != ":memory:" && c.Schema.DatabasePath != "" {
		c.Schema.LockPath = c.Schema.DatabasePath + ".lock"
	}
}

// applyEnvOverrides applies SEARCHCORE_* environment variable
// overrides, highest precedence.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SEARCHCORE_DATABASE_PATH"); v != "" {
		c.Schema.DatabasePath = v
	}
	if v := os.Getenv("SEARCHCORE_LOCK_PATH"); v != "" {
		c.Schema.LockPath = v
	}
	if v := os.Getenv("SEARCHCORE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("SEARCHCORE_MERGE_MODE"); v != "" {
		c.Scoring.MergeMode = v
	}
	if v := os.Getenv("SEARCHCORE_LUCENE_WEIGHT"); v != "" {
		if w, err := parseFloat64(v); err == nil && w >= 0 && w <= 1 {
			c.Scoring.LuceneWeight = w
		}
	}
	if v := os.Getenv("SEARCHCORE_OVERSAMPLE_MULTIPLIER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Scoring.OversampleMultiplier = n
		}
	}
	if v := os.Getenv("SEARCHCORE_ENABLE_HEURISTIC_FUZZY"); v != "" {
		c.Fallback.EnableHeuristicFuzzy = strings.ToLower(v) == "true" || v == "1"
	}
}

func parseFloat64(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// Validate reports whether the configuration is internally
// consistent.
func (c *Config) Validate() error {
	for field, weight := range c.Scoring.FieldWeights {
		if weight < 0 {
			return fmt.Errorf("scoring.field_weights[%s] must be non-negative, got %f", field, weight)
		}
	}

	if c.Scoring.LuceneWeight < 0 || c.Scoring.LuceneWeight > 1 {
		return fmt.Errorf("scoring.lucene_weight must be between 0 and 1, got %f", c.Scoring.LuceneWeight)
	}

	validMergeModes := map[string]bool{"max": true, "sum": true, "weighted": true}
	if !validMergeModes[strings.ToLower(c.Scoring.MergeMode)] {
		return fmt.Errorf("scoring.merge_mode must be 'max', 'sum', or 'weighted', got %s", c.Scoring.MergeMode)
	}

	if c.Scoring.OversampleMultiplier < 1 {
		return fmt.Errorf("scoring.oversample_multiplier must be at least 1, got %d", c.Scoring.OversampleMultiplier)
	}

	if c.Scoring.TrigramFloor < 0 || c.Scoring.TrigramFloor > 1 {
		return fmt.Errorf("scoring.trigram_floor must be between 0 and 1, got %f", c.Scoring.TrigramFloor)
	}

	if c.Fallback.PrefixMinResults < 0 {
		return fmt.Errorf("fallback.prefix_min_results must be non-negative, got %d", c.Fallback.PrefixMinResults)
	}
	if c.Fallback.FuzzyMinResults < 0 {
		return fmt.Errorf("fallback.fuzzy_min_results must be non-negative, got %d", c.Fallback.FuzzyMinResults)
	}
	if math.IsNaN(c.Fallback.FuzzyScoreThreshold) {
		return fmt.Errorf("fallback.fuzzy_score_threshold must not be NaN")
	}

	if c.Analyzer.MaxTrigramTokens < 1 {
		return fmt.Errorf("analyzer.max_trigram_tokens must be at least 1, got %d", c.Analyzer.MaxTrigramTokens)
	}

	if c.History.MaxEntries < 0 {
		return fmt.Errorf("history.max_entries must be non-negative, got %d", c.History.MaxEntries)
	}
	if c.History.MaxFavorites < 0 {
		return fmt.Errorf("history.max_favorites must be non-negative, got %d", c.History.MaxFavorites)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.LogLevel)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

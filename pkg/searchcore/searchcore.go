// Package searchcore is the facade wiring the search core's twelve
// components (internal/normalize, internal/trigram, internal/analyzer,
// internal/synonym, internal/query, internal/scoring, internal/hybrid,
// internal/schema, internal/policy, internal/history) into a single
// library entry point, the way the teacher's pkg/searcher and
// pkg/indexer wrap its internal/store and internal/search packages
// behind a small functional-options constructor.
package searchcore

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/astraidlabs/veriado-searchcore/internal/config"
	"github.com/astraidlabs/veriado-searchcore/internal/executor"
	"github.com/astraidlabs/veriado-searchcore/internal/history"
	"github.com/astraidlabs/veriado-searchcore/internal/obslog"
	"github.com/astraidlabs/veriado-searchcore/internal/policy"
	"github.com/astraidlabs/veriado-searchcore/internal/query"
	"github.com/astraidlabs/veriado-searchcore/internal/schema"
	"github.com/astraidlabs/veriado-searchcore/internal/scoring"
	"github.com/astraidlabs/veriado-searchcore/internal/synonym"
)

// Core is an opened search core: a database connection with its
// schema enforced, ready to compile and run queries and to track
// search history and favorites.
type Core struct {
	db        *sql.DB
	ownsDB    bool
	cfg       *config.Config
	logger    *slog.Logger
	schemaMgr *schema.Manager
	exec      *executor.Executor
	synonyms  *synonym.Provider
	history   *history.Store
}

type options struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *sql.DB
}

// Option configures Open.
type Option func(*options)

// WithConfig overrides the default configuration.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger overrides the package-default obslog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithDB reuses an already-open database handle instead of having
// Open dial cfg.Schema.DatabasePath itself. The caller retains
// ownership and Close will not close it.
func WithDB(db *sql.DB) Option {
	return func(o *options) { o.db = db }
}

// Open wires a Core: opens (or reuses) the database, enforces the FTS
// schema, and prepares the history store. Callers must Close the
// returned Core when done.
func Open(ctx context.Context, opts ...Option) (*Core, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.cfg == nil {
		o.cfg = config.NewConfig()
	}
	if o.logger == nil {
		o.logger = obslog.Logger()
	}

	db := o.db
	ownsDB := false
	if db == nil {
		var err error
		db, err = sql.Open("sqlite", o.cfg.Schema.DatabasePath)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(1)
		ownsDB = true
	}

	mgr := schema.NewManager(db, o.cfg.Schema.LockPath, time.Duration(o.cfg.Schema.SnapshotTTLSeconds)*time.Second)
	if err := mgr.Enforce(ctx, nil); err != nil {
		if ownsDB {
			_ = db.Close()
		}
		return nil, err
	}

	historyStore, err := history.NewStore(ctx, db, o.cfg.History)
	if err != nil {
		if ownsDB {
			_ = db.Close()
		}
		return nil, err
	}

	return &Core{
		db:        db,
		ownsDB:    ownsDB,
		cfg:       o.cfg,
		logger:    o.logger,
		schemaMgr: mgr,
		exec:      executor.New(db),
		synonyms:  synonym.NewProvider(),
		history:   historyStore,
	}, nil
}

// Close releases the database connection if Core opened it itself.
func (c *Core) Close() error {
	if c.ownsDB {
		return c.db.Close()
	}
	return nil
}

// NewBuilder returns a fresh query.Builder seeded from the Core's
// configured scoring defaults and synonym dictionary. language
// selects the synonym dictionary's language tag; pass "" for the
// language-agnostic entries.
func (c *Core) NewBuilder(language string) *query.Builder {
	return query.NewBuilder(scoring.FromConfig(c.cfg.Scoring), c.synonyms, language)
}

// SearchParams bounds a Search call's result window.
type SearchParams struct {
	Skip int
	Take int
}

// Search runs plan against the store. It first executes the lexical
// query alone (unless the plan already knows up front that it needs
// the trigram fallback too), then consults internal/policy against
// the outcome to decide whether a second pass with the trigram
// fallback merged in is required (spec.md §4.5), before recording the
// query in search history.
func (c *Core) Search(ctx context.Context, plan *query.Plan, params SearchParams) ([]*executor.Hit, error) {
	execParams := executor.Params{Skip: params.Skip, Take: params.Take}

	runTrigram := plan.RequiresTrigramFallback
	hits, err := c.exec.Execute(ctx, plan, runTrigram, execParams)
	if err != nil {
		return nil, err
	}

	if !runTrigram {
		outcome := policy.ExecutionOutcome{Hits: len(hits)}
		if len(hits) > 0 {
			outcome.TopNormalizedScore = hits[0].Rank
		}
		signals := policy.PlanSignals{
			RequiresTrigramFallback: plan.RequiresTrigramFallback,
			HasPrefix:               plan.HasPrefix,
			HasExplicitFuzzy:        plan.HasExplicitFuzzy,
			HasHeuristicFuzzy:       plan.HasHeuristicFuzzy,
		}
		if policy.RequiresTrigramFallback(signals, outcome, c.cfg.Fallback) {
			hits, err = c.exec.Execute(ctx, plan, true, execParams)
			if err != nil {
				return nil, err
			}
		}
	}

	if err := c.history.Record(ctx, plan.RawQueryText, plan.MatchExpr, len(hits), plan.HasExplicitFuzzy || plan.HasHeuristicFuzzy); err != nil {
		c.logger.WarnContext(ctx, "failed to record search history", "error", err)
	}

	return hits, nil
}

// HealthCheck reports the schema's current health.
func (c *Core) HealthCheck(ctx context.Context) (*schema.HealthReport, error) {
	return c.schemaMgr.HealthCheck(ctx)
}

// Reindex rebuilds the FTS index in place.
func (c *Core) Reindex(ctx context.Context) error {
	return c.schemaMgr.Reindex(ctx)
}

// ApplyFullReset drops and recreates the schema unconditionally.
func (c *Core) ApplyFullReset(ctx context.Context, populate func(ctx context.Context, db *sql.DB) error) error {
	return c.schemaMgr.ApplyFullReset(ctx, populate)
}

// History returns the Core's search history and favorites store.
func (c *Core) History() *history.Store {
	return c.history
}


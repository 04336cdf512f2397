// Package history implements Search History & Favorites (spec.md §3,
// §6, C12): persisting recently run MATCH queries, capped at a
// configurable limit with oldest-first eviction, and named saved
// queries, capped at a configurable limit beyond which new favorites
// are rejected.
//
// The mutex-guarded *sql.DB wrapper and CRUD shape are grounded in
// the teacher's internal/store/sqlite_bm25.go connection handling;
// row identity (google/uuid) and the nullable-field scan pattern are
// grounded in the MycelicMemory-MycelicMemory example repo's
// internal/database/operations.go, the only repo in the retrieval
// pack that persists user-facing records with uuid-keyed rows.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/astraidlabs/veriado-searchcore/internal/config"
	"github.com/astraidlabs/veriado-searchcore/internal/searcherr"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS search_history (
	id TEXT PRIMARY KEY,
	query_text TEXT,
	match TEXT NOT NULL,
	created_utc TEXT NOT NULL,
	executions INTEGER NOT NULL DEFAULT 1,
	last_total_hits INTEGER NOT NULL DEFAULT 0,
	is_fuzzy INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS search_favorite (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	query_text TEXT,
	match TEXT NOT NULL,
	position INTEGER NOT NULL,
	created_utc TEXT NOT NULL,
	is_fuzzy INTEGER NOT NULL DEFAULT 0
);
`

// Entry is one recent-search history row.
type Entry struct {
	ID            string
	QueryText     string
	Match         string
	CreatedUTC    time.Time
	Executions    int
	LastTotalHits int
	IsFuzzy       bool
}

// Favorite is one named saved query.
type Favorite struct {
	ID         string
	Name       string
	QueryText  string
	Match      string
	Position   int
	CreatedUTC time.Time
	IsFuzzy    bool
}

// Store persists history and favorites against db, serializing writes
// under a single mutex like the teacher's single-writer SQLite
// wrapper.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	limits config.HistoryConfig
}

// NewStore creates the history/favorites tables if missing and
// returns a Store bounded by limits.
func NewStore(ctx context.Context, db *sql.DB, limits config.HistoryConfig) (*Store, error) {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return nil, searcherr.SchemaError("failed to initialize history schema", err)
	}
	return &Store{db: db, limits: limits}, nil
}

// Record adds a history entry for a just-run MATCH query, or, if an
// entry with the same match expression already exists, bumps its
// execution count and last_total_hits instead of duplicating it.
// Oldest entries beyond MaxEntries are evicted.
func (s *Store) Record(ctx context.Context, queryText, match string, totalHits int, isFuzzy bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existingID string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM search_history WHERE match = ?`, match,
	).Scan(&existingID)
	switch {
	case err == sql.ErrNoRows:
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO search_history (id, query_text, match, created_utc, executions, last_total_hits, is_fuzzy)
			 VALUES (?, ?, ?, ?, 1, ?, ?)`,
			uuid.New().String(), nullable(queryText), match, nowUTC(), totalHits, boolToInt(isFuzzy),
		); err != nil {
			return searcherr.StoreError("failed to insert history entry", err)
		}
	case err != nil:
		return searcherr.StoreError("failed to look up history entry", err)
	default:
		if _, err := s.db.ExecContext(ctx,
			`UPDATE search_history SET executions = executions + 1, last_total_hits = ?, created_utc = ? WHERE id = ?`,
			totalHits, nowUTC(), existingID,
		); err != nil {
			return searcherr.StoreError("failed to update history entry", err)
		}
	}

	return s.evictOldest(ctx)
}

func (s *Store) evictOldest(ctx context.Context) error {
	if s.limits.MaxEntries <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM search_history WHERE id NOT IN (
			SELECT id FROM search_history ORDER BY created_utc DESC LIMIT ?
		)`, s.limits.MaxEntries)
	if err != nil {
		return searcherr.StoreError("failed to evict old history entries", err)
	}
	return nil
}

// List returns the most recent history entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = s.limits.MaxEntries
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query_text, match, created_utc, executions, last_total_hits, is_fuzzy
		 FROM search_history ORDER BY created_utc DESC LIMIT ?`, limit)
	if err != nil {
		return nil, searcherr.StoreError("failed to list history", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		e := &Entry{}
		var queryText sql.NullString
		var createdUTC string
		var isFuzzy int
		if err := rows.Scan(&e.ID, &queryText, &e.Match, &createdUTC, &e.Executions, &e.LastTotalHits, &isFuzzy); err != nil {
			return nil, searcherr.StoreError("failed to scan history row", err)
		}
		e.QueryText = queryText.String
		e.IsFuzzy = isFuzzy != 0
		e.CreatedUTC = parseUTC(createdUTC)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, searcherr.StoreError("history row iteration failed", err)
	}
	return out, nil
}

// AddFavorite saves a named query at the end of the favorites list.
// Returns InvalidArgument if name is already taken or the favorites
// limit has been reached.
func (s *Store) AddFavorite(ctx context.Context, name, queryText, match string, isFuzzy bool) (*Favorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM search_favorite`).Scan(&count); err != nil {
		return nil, searcherr.StoreError("failed to count favorites", err)
	}
	if s.limits.MaxFavorites > 0 && count >= s.limits.MaxFavorites {
		return nil, searcherr.InvalidArgument(fmt.Sprintf("favorites limit of %d reached", s.limits.MaxFavorites))
	}

	var taken int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM search_favorite WHERE name = ?`, name).Scan(&taken); err != nil {
		return nil, searcherr.StoreError("failed to look up favorite name", err)
	}
	if taken > 0 {
		return nil, searcherr.InvalidArgument(fmt.Sprintf("favorite name %q is already taken", name))
	}

	fav := &Favorite{
		ID:         uuid.New().String(),
		Name:       name,
		QueryText:  queryText,
		Match:      match,
		Position:   count,
		CreatedUTC: time.Now().UTC(),
		IsFuzzy:    isFuzzy,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO search_favorite (id, name, query_text, match, position, created_utc, is_fuzzy)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		fav.ID, fav.Name, nullable(fav.QueryText), fav.Match, fav.Position, formatUTC(fav.CreatedUTC), boolToInt(fav.IsFuzzy),
	)
	if err != nil {
		return nil, searcherr.StoreError("failed to insert favorite", err)
	}
	return fav, nil
}

// ListFavorites returns favorites ordered by their saved position.
func (s *Store) ListFavorites(ctx context.Context) ([]*Favorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, query_text, match, position, created_utc, is_fuzzy
		 FROM search_favorite ORDER BY position ASC`)
	if err != nil {
		return nil, searcherr.StoreError("failed to list favorites", err)
	}
	defer rows.Close()

	var out []*Favorite
	for rows.Next() {
		f := &Favorite{}
		var queryText sql.NullString
		var createdUTC string
		var isFuzzy int
		if err := rows.Scan(&f.ID, &f.Name, &queryText, &f.Match, &f.Position, &createdUTC, &isFuzzy); err != nil {
			return nil, searcherr.StoreError("failed to scan favorite row", err)
		}
		f.QueryText = queryText.String
		f.IsFuzzy = isFuzzy != 0
		f.CreatedUTC = parseUTC(createdUTC)
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, searcherr.StoreError("favorite row iteration failed", err)
	}
	return out, nil
}

// RemoveFavorite deletes a favorite by id.
func (s *Store) RemoveFavorite(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM search_favorite WHERE id = ?`, id); err != nil {
		return searcherr.StoreError("failed to remove favorite", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nowUTC() string {
	return formatUTC(time.Now().UTC())
}

// formatUTC writes t with fixed-width nanoseconds so that stored
// timestamps sort lexically in time order, including entries recorded
// within the same second.
func formatUTC(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}

func parseUTC(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

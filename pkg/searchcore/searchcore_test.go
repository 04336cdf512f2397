package searchcore

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/astraidlabs/veriado-searchcore/internal/config"
	"github.com/astraidlabs/veriado-searchcore/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCore(t *testing.T) *Core {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.NewConfig()
	core, err := Open(context.Background(), WithConfig(cfg), WithDB(db))
	require.NoError(t, err)
	t.Cleanup(func() { _ = core.Close() })
	return core
}

func insertTestDocument(t *testing.T, core *Core, fileID, title string) {
	t.Helper()
	_, err := core.db.Exec(
		`INSERT INTO search_document (file_id, title, author, mime, metadata_text, metadata_json, created_utc, modified_utc, content_hash)
		 VALUES (?, ?, '', '', '', '{}', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z', 'hash')`,
		[]byte(fileID), title,
	)
	require.NoError(t, err)
}

func TestOpen_EnforcesSchema(t *testing.T) {
	core := openTestCore(t)
	report, err := core.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, schema.HealthHealthy, report.Status)
}

func TestSearch_ReturnsHitsAndRecordsHistory(t *testing.T) {
	core := openTestCore(t)
	insertTestDocument(t, core, "doc-1", "Annual Report")
	insertTestDocument(t, core, "doc-2", "Unrelated Letter")

	b := core.NewBuilder("")
	node := b.Term("title", "report")
	plan, err := b.Build(node, "report")
	require.NoError(t, err)

	hits, err := core.Search(context.Background(), plan, SearchParams{Take: 10})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Annual Report", hits[0].Title)

	entries, err := core.History().List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].LastTotalHits)
}

func TestSearch_NoMatchesStillRecordsHistoryWithZeroHits(t *testing.T) {
	core := openTestCore(t)
	insertTestDocument(t, core, "doc-1", "Annual Report")

	b := core.NewBuilder("")
	node := b.Term("title", "nonexistent")
	plan, err := b.Build(node, "nonexistent")
	require.NoError(t, err)

	hits, err := core.Search(context.Background(), plan, SearchParams{Take: 10})
	require.NoError(t, err)
	assert.Empty(t, hits)

	entries, err := core.History().List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 0, entries[0].LastTotalHits)
}

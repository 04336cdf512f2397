package schema

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestInspect_EmptyDatabaseIsInvalid(t *testing.T) {
	db := openTestDB(t)
	insp, err := Inspect(context.Background(), db)
	require.NoError(t, err)

	assert.False(t, insp.IsValid)
	assert.Empty(t, insp.FTSCreateSQL)
	assert.ElementsMatch(t, ExpectedFTSColumns, insp.MissingFTSColumns)
	assert.ElementsMatch(t, ExpectedDocumentColumns, insp.MissingDocumentColumns)
	assert.ElementsMatch(t, ExpectedTriggers, insp.MissingTriggers)
}

func TestInspect_FullSchemaIsValid(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Exec(createSQL(Tokenizer))
	require.NoError(t, err)

	insp, err := Inspect(context.Background(), db)
	require.NoError(t, err)

	assert.True(t, insp.IsContentless)
	assert.Empty(t, insp.MissingFTSColumns)
	assert.Empty(t, insp.MissingDocumentColumns)
	assert.Empty(t, insp.MissingTriggers)
	assert.True(t, insp.IsValid)
}

func TestInspect_PartiallyDroppedTriggerIsInvalid(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Exec(createSQL(Tokenizer))
	require.NoError(t, err)

	_, err = db.Exec("DROP TRIGGER search_document_ad")
	require.NoError(t, err)

	insp, err := Inspect(context.Background(), db)
	require.NoError(t, err)

	assert.False(t, insp.IsValid)
	assert.Equal(t, []string{"search_document_ad"}, insp.MissingTriggers)
}

func TestIsContentless_DetectsEmptyContentDeclaration(t *testing.T) {
	assert.True(t, isContentless("CREATE VIRTUAL TABLE t USING fts5(a, content='')"))
	assert.True(t, isContentless("CREATE VIRTUAL TABLE t USING fts5(a)"))
	assert.False(t, isContentless("CREATE VIRTUAL TABLE t USING fts5(a, content='source_table')"))
	assert.False(t, isContentless(""))
}

func TestMissing_IsCaseInsensitiveAndSorted(t *testing.T) {
	result := missing([]string{"Title", "Author", "Mime"}, []string{"title"})
	assert.Equal(t, []string{"Author", "Mime"}, result)
}

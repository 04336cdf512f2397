// Package schema implements the FTS Schema Manager (spec.md §4.7):
// inspecting the live SQLite schema against the expected shape,
// repairing drift, running a startup capability probe, and serving a
// process-wide health check.
//
// The SQL lifecycle (pragmas, single-writer connection pool, the
// modernc.org/sqlite pure-Go driver) is grounded in the teacher's
// internal/store/sqlite_bm25.go. The inspect/diff/reset/recreate
// contract itself has no teacher analogue — it is built fresh from
// spec.md §4.7 in the teacher's idiom.
package schema

import "strings"

// Expected column sets, per spec.md §6 "Persisted state".
var (
	ExpectedFTSColumns = []string{"title", "author", "mime", "metadata_text", "metadata"}

	ExpectedDocumentColumns = []string{
		"file_id", "title", "author", "mime", "metadata_text", "metadata_json",
		"created_utc", "modified_utc", "content_hash",
		"stored_content_hash", "stored_token_hash",
	}

	ExpectedTriggers = []string{
		"search_document_ai", "search_document_au", "search_document_ad",
	}
)

// FTSTableName is the contentless FTS5-equivalent virtual table.
const FTSTableName = "search_document_fts"

// DocumentTableName is the mirror table the FTS table tracks.
const DocumentTableName = "search_document"

// TrigramTableName is the trigram virtual table used for the
// wildcard/fuzzy fallback path.
const TrigramTableName = "search_document_trigram"

// TrigramMapTableName maps trigram table rowids back to file_id.
const TrigramMapTableName = "search_document_trigram_map"

// Tokenizer is the tokenizer configuration spec.md §6 requires on the
// FTS table.
const Tokenizer = "unicode61 remove_diacritics=2"

const resetSQL = `
DROP TRIGGER IF EXISTS search_document_ai;
DROP TRIGGER IF EXISTS search_document_au;
DROP TRIGGER IF EXISTS search_document_ad;
DROP TABLE IF EXISTS ` + FTSTableName + `;
`

const createSQLTemplate = `
CREATE VIRTUAL TABLE IF NOT EXISTS ` + FTSTableName + ` USING fts5(
	title, author, mime, metadata_text, metadata,
	content='',
	tokenize='%s'
);

CREATE TABLE IF NOT EXISTS ` + DocumentTableName + ` (
	file_id BLOB PRIMARY KEY,
	title TEXT,
	author TEXT,
	mime TEXT NOT NULL DEFAULT '',
	metadata_text TEXT,
	metadata_json TEXT,
	created_utc TEXT,
	modified_utc TEXT,
	content_hash TEXT,
	stored_content_hash TEXT,
	stored_token_hash TEXT
);

CREATE TABLE IF NOT EXISTS ` + TrigramTableName + `_store (
	file_id BLOB PRIMARY KEY,
	trigrams TEXT NOT NULL
);

CREATE VIRTUAL TABLE IF NOT EXISTS ` + TrigramTableName + ` USING fts5(
	trigrams,
	content='` + TrigramTableName + `_store',
	content_rowid='rowid'
);

CREATE TABLE IF NOT EXISTS ` + TrigramMapTableName + ` (
	trigram_rowid INTEGER PRIMARY KEY,
	file_id BLOB NOT NULL
);

CREATE TRIGGER search_document_ai AFTER INSERT ON ` + DocumentTableName + ` BEGIN
	INSERT INTO ` + FTSTableName + `(rowid, title, author, mime, metadata_text, metadata)
	VALUES (new.rowid, new.title, new.author, new.mime, new.metadata_text, new.metadata_json);
END;

CREATE TRIGGER search_document_au AFTER UPDATE ON ` + DocumentTableName + ` BEGIN
	INSERT INTO ` + FTSTableName + `(` + FTSTableName + `, rowid, title, author, mime, metadata_text, metadata)
	VALUES ('delete', old.rowid, old.title, old.author, old.mime, old.metadata_text, old.metadata_json);
	INSERT INTO ` + FTSTableName + `(rowid, title, author, mime, metadata_text, metadata)
	VALUES (new.rowid, new.title, new.author, new.mime, new.metadata_text, new.metadata_json);
END;

CREATE TRIGGER search_document_ad AFTER DELETE ON ` + DocumentTableName + ` BEGIN
	INSERT INTO ` + FTSTableName + `(` + FTSTableName + `, rowid, title, author, mime, metadata_text, metadata)
	VALUES ('delete', old.rowid, old.title, old.author, old.mime, old.metadata_text, old.metadata_json);
END;
`

// createSQL renders the create statements with the configured
// tokenizer substituted in.
func createSQL(tokenizer string) string {
	return strings.Replace(createSQLTemplate, "%s", tokenizer, 1)
}

const optimizeSQL = `INSERT INTO ` + FTSTableName + `(` + FTSTableName + `) VALUES ('optimize');`

const rebuildSQL = `INSERT INTO ` + FTSTableName + `(` + FTSTableName + `) VALUES ('rebuild');`

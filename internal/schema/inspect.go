package schema

import (
	"context"
	"database/sql"
	"sort"
	"strings"
)

// Inspection is the result of gathering the live schema's shape:
// the FTS table's CREATE SQL, its declared columns, the mirror
// table's columns, and the trigger map (spec.md §4.7).
type Inspection struct {
	FTSCreateSQL    string
	FTSColumns      []string
	DocumentColumns []string
	Triggers        []string

	IsContentless          bool
	MissingFTSColumns      []string
	MissingDocumentColumns []string
	MissingTriggers        []string
	IsValid                bool
}

// Inspect gathers the live schema from db and computes the
// derivations spec.md §4.7 names: is_contentless and the three
// missing-sets, then is_valid as their conjunction.
func Inspect(ctx context.Context, db *sql.DB) (*Inspection, error) {
	insp := &Inspection{}

	createSQL, err := tableCreateSQL(ctx, db, FTSTableName)
	if err != nil {
		return nil, err
	}
	insp.FTSCreateSQL = createSQL
	insp.IsContentless = isContentless(createSQL)

	insp.FTSColumns, err = tableInfoColumns(ctx, db, FTSTableName)
	if err != nil {
		return nil, err
	}

	insp.DocumentColumns, err = tableInfoColumns(ctx, db, DocumentTableName)
	if err != nil {
		return nil, err
	}

	insp.Triggers, err = triggerNames(ctx, db, DocumentTableName)
	if err != nil {
		return nil, err
	}

	insp.MissingFTSColumns = missing(ExpectedFTSColumns, insp.FTSColumns)
	insp.MissingDocumentColumns = missing(ExpectedDocumentColumns, insp.DocumentColumns)
	insp.MissingTriggers = missing(ExpectedTriggers, insp.Triggers)

	insp.IsValid = len(insp.MissingFTSColumns) == 0 &&
		len(insp.MissingDocumentColumns) == 0 &&
		len(insp.MissingTriggers) == 0 &&
		insp.IsContentless

	return insp, nil
}

// isContentless reports whether createSQL either omits content= or
// declares it empty, per spec.md §4.7.
func isContentless(createSQL string) bool {
	if createSQL == "" {
		// Table does not exist yet: treat as not contentless so the
		// missing-table case routes through reset/recreate rather
		// than appearing spuriously valid.
		return false
	}
	lower := strings.ToLower(createSQL)
	if !strings.Contains(lower, "content=") {
		return true
	}
	return strings.Contains(lower, "content=''") || strings.Contains(lower, `content=""`)
}

// missing returns the elements of expected not present in actual
// (case-insensitive), sorted for deterministic diagnostics.
func missing(expected, actual []string) []string {
	have := make(map[string]bool, len(actual))
	for _, a := range actual {
		have[strings.ToLower(a)] = true
	}

	var result []string
	for _, e := range expected {
		if !have[strings.ToLower(e)] {
			result = append(result, e)
		}
	}
	sort.Strings(result)
	return result
}

func tableCreateSQL(ctx context.Context, db *sql.DB, table string) (string, error) {
	var createSQL string
	err := db.QueryRowContext(ctx,
		`SELECT sql FROM sqlite_master WHERE type IN ('table', 'view') AND name = ?`, table,
	).Scan(&createSQL)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return createSQL, nil
}

func tableInfoColumns(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+table+")")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue sql.NullString
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}

func triggerNames(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'trigger' AND tbl_name = ?`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var triggers []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		triggers = append(triggers, name)
	}
	return triggers, rows.Err()
}

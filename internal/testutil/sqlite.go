package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sort"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/calder/driftdoctor/pkg/diff"
	"github.com/calder/driftdoctor/pkg/migrate"
)

// OpenSQLite returns a throwaway file-backed SQLite database for unit tests.
func OpenSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// OpenSQLiteAt opens (or creates) a SQLite database at the given path.
// Used when a test needs to reopen the same database through an OpenFunc.
func OpenSQLiteAt(path string) (*sql.DB, error) {
	return sql.Open("sqlite3", path)
}

// SQLiteInspector introspects a SQLite database through sqlite_master and
// PRAGMA table_info, mirroring what the Postgres inspector does through
// information_schema. Only used by tests.
type SQLiteInspector struct{}

// Inspect reads every user table and its columns.
func (SQLiteInspector) Inspect(ctx context.Context, db *sql.DB) (*diff.DBSchema, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
	`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if name == migrate.VersionTable {
			continue
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(names)

	schema := &diff.DBSchema{}
	for _, name := range names {
		table := diff.DBTable{Name: name}
		cols, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%q)`, name))
		if err != nil {
			return nil, fmt.Errorf("reading columns of %s: %w", name, err)
		}
		for cols.Next() {
			var (
				cid     int
				colName string
				colType string
				notNull int
				dflt    sql.NullString
				pk      int
			)
			if err := cols.Scan(&cid, &colName, &colType, &notNull, &dflt, &pk); err != nil {
				_ = cols.Close()
				return nil, err
			}
			table.Columns = append(table.Columns, diff.DBColumn{
				Name:     colName,
				Type:     colType,
				Nullable: notNull == 0,
				Default:  dflt.String,
			})
		}
		if err := cols.Err(); err != nil {
			_ = cols.Close()
			return nil, err
		}
		_ = cols.Close()
		schema.Tables = append(schema.Tables, table)
	}
	return schema, nil
}

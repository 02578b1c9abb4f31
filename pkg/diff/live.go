package diff

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// DBSchema is the introspected shape of a live database.
type DBSchema struct {
	Tables []DBTable
}

// DBTable is one introspected table.
type DBTable struct {
	Name    string
	Columns []DBColumn
}

// DBColumn is one introspected column.
type DBColumn struct {
	Name     string
	Type     string
	Nullable bool
	Default  string
}

// Table returns the introspected table with the given name.
func (s *DBSchema) Table(name string) (DBTable, bool) {
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return DBTable{}, false
}

// Inspector reads the live schema from a database connection.
type Inspector interface {
	Inspect(ctx context.Context, db *sql.DB) (*DBSchema, error)
}

// PostgresInspector introspects the current schema of a PostgreSQL database
// through information_schema.
type PostgresInspector struct {
	// InternalTables are relation names the tool itself owns and therefore
	// never reports as drift, e.g. the version tracking table.
	InternalTables []string
}

// NewPostgresInspector returns an inspector that skips the given internal
// relations.
func NewPostgresInspector(internalTables ...string) *PostgresInspector {
	return &PostgresInspector{InternalTables: internalTables}
}

// Inspect reads every base table and its columns from the connected
// database's current schema. Output is sorted so repeated runs against an
// unchanged database produce identical results.
func (p *PostgresInspector) Inspect(ctx context.Context, db *sql.DB) (*DBSchema, error) {
	internal := make(map[string]bool, len(p.InternalTables))
	for _, t := range p.InternalTables {
		internal[t] = true
	}

	rows, err := db.QueryContext(ctx, `
		SELECT c.table_name, c.column_name, c.data_type,
		       COALESCE(c.character_maximum_length, 0),
		       c.is_nullable, COALESCE(c.column_default, '')
		FROM information_schema.columns c
		JOIN information_schema.tables t
		  ON t.table_schema = c.table_schema AND t.table_name = c.table_name
		WHERE c.table_schema = current_schema()
		  AND t.table_type = 'BASE TABLE'
		ORDER BY c.table_name, c.ordinal_position
	`)
	if err != nil {
		return nil, fmt.Errorf("introspecting columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	byTable := make(map[string]*DBTable)
	var order []string
	for rows.Next() {
		var (
			table, column, dataType, nullable, dflt string
			charLen                                 int
		)
		if err := rows.Scan(&table, &column, &dataType, &charLen, &nullable, &dflt); err != nil {
			return nil, fmt.Errorf("scanning column row: %w", err)
		}
		if internal[table] {
			continue
		}
		t, ok := byTable[table]
		if !ok {
			t = &DBTable{Name: table}
			byTable[table] = t
			order = append(order, table)
		}
		t.Columns = append(t.Columns, DBColumn{
			Name:     column,
			Type:     renderPostgresType(dataType, charLen),
			Nullable: strings.EqualFold(nullable, "YES"),
			Default:  dflt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading column rows: %w", err)
	}

	sort.Strings(order)
	schema := &DBSchema{Tables: make([]DBTable, 0, len(order))}
	for _, name := range order {
		schema.Tables = append(schema.Tables, *byTable[name])
	}
	return schema, nil
}

// renderPostgresType folds information_schema's verbose type names back into
// the spellings models use, so declared and reflected types compare cleanly.
func renderPostgresType(dataType string, charLen int) string {
	switch dataType {
	case "character varying":
		if charLen > 0 {
			return fmt.Sprintf("varchar(%d)", charLen)
		}
		return "varchar"
	case "character":
		if charLen > 0 {
			return fmt.Sprintf("char(%d)", charLen)
		}
		return "char"
	case "timestamp without time zone":
		return "timestamp"
	case "timestamp with time zone":
		return "timestamptz"
	default:
		return dataType
	}
}

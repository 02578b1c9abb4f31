// Package diff compares a declared schema model against a live database
// schema and produces an ordered list of atomic change operations.
package diff

import (
	"fmt"
	"strings"

	"github.com/calder/driftdoctor/pkg/model"
)

// Kind tags one variant of schema change.
type Kind string

const (
	AddTable        Kind = "add_table"
	DropTable       Kind = "drop_table"
	AddColumn       Kind = "add_column"
	DropColumn      Kind = "drop_column"
	AlterColumnType Kind = "alter_column_type"
	AlterDefault    Kind = "alter_default"
)

// Change is one atomic difference between the declared model and the live
// schema. Which fields are set depends on Kind: table-level changes carry
// the full declared table, column-level changes carry the column and the
// before/after values.
type Change struct {
	Kind   Kind   `json:"kind"`
	Table  string `json:"table"`
	Column string `json:"column,omitempty"`

	// From and To hold the live and declared values for alter changes:
	// column types for AlterColumnType, default expressions for AlterDefault.
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`

	// Decl carries the declared definition for add changes.
	DeclTable  *model.Table  `json:"-"`
	DeclColumn *model.Column `json:"-"`
}

// String renders the change in a stable, human-readable form.
func (c Change) String() string {
	switch c.Kind {
	case AddTable:
		return fmt.Sprintf("add table %s", c.Table)
	case DropTable:
		return fmt.Sprintf("drop table %s", c.Table)
	case AddColumn:
		return fmt.Sprintf("add column %s.%s", c.Table, c.Column)
	case DropColumn:
		return fmt.Sprintf("drop column %s.%s", c.Table, c.Column)
	case AlterColumnType:
		return fmt.Sprintf("alter column %s.%s type %s -> %s", c.Table, c.Column, c.From, c.To)
	case AlterDefault:
		return fmt.Sprintf("alter column %s.%s default %s -> %s", c.Table, c.Column, renderDefault(c.From), renderDefault(c.To))
	default:
		return fmt.Sprintf("unknown change on %s", c.Table)
	}
}

// SQL renders the upgrade DDL statement for the change.
func (c Change) SQL() string {
	switch c.Kind {
	case AddTable:
		return createTableSQL(c.DeclTable)
	case DropTable:
		return fmt.Sprintf("DROP TABLE %s;", c.Table)
	case AddColumn:
		return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", c.Table, columnDef(*c.DeclColumn))
	case DropColumn:
		return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", c.Table, c.Column)
	case AlterColumnType:
		return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s;", c.Table, c.Column, c.To)
	case AlterDefault:
		if c.To == "" {
			return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT;", c.Table, c.Column)
		}
		return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s;", c.Table, c.Column, c.To)
	default:
		return ""
	}
}

// Render joins the change strings into the stable textual projection used by
// reports.
func Render(changes []Change) []string {
	out := make([]string, len(changes))
	for i, c := range changes {
		out[i] = c.String()
	}
	return out
}

func renderDefault(expr string) string {
	if expr == "" {
		return "<none>"
	}
	return expr
}

func createTableSQL(t *model.Table) string {
	var defs []string
	var pks []string
	for _, col := range t.Columns {
		defs = append(defs, "    "+columnDef(col))
		if col.PrimaryKey {
			pks = append(pks, col.Name)
		}
	}
	if len(pks) > 0 {
		defs = append(defs, fmt.Sprintf("    PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n);", t.Name, strings.Join(defs, ",\n"))
}

func columnDef(c model.Column) string {
	def := fmt.Sprintf("%s %s", c.Name, c.Type)
	if !c.Nullable {
		def += " NOT NULL"
	}
	if c.Default != "" {
		def += " DEFAULT " + c.Default
	}
	return def
}

package diff

import (
	"sort"
	"strings"

	"github.com/calder/driftdoctor/pkg/model"
)

// Filter decides whether an object takes part in the comparison. name is the
// table name or "table.column", objectType is "table" or "column", and
// reflected reports whether the object came from the live database rather
// than the declared model. Returning false excludes the object.
type Filter func(name, objectType string, reflected bool) bool

// Options controls the comparison.
type Options struct {
	// CompareTypes enables column type comparison.
	CompareTypes bool

	// CompareServerDefaults enables server-side default expression comparison.
	CompareServerDefaults bool

	// Filter optionally excludes objects from comparison. Nil includes all.
	Filter Filter
}

// DefaultOptions are the comparison options the detectors and the
// autogenerate fixer share, so a generated script always corresponds to the
// reported diff.
func DefaultOptions(filter Filter) Options {
	return Options{
		CompareTypes:          true,
		CompareServerDefaults: true,
		Filter:                filter,
	}
}

// Compare produces the ordered change list that would bring the live schema
// in line with the declared target. The output is deterministic for a fixed
// (target, live) pair: tables and columns are visited in sorted name order.
func Compare(target *model.Schema, live *DBSchema, opts Options) []Change {
	include := opts.Filter
	if include == nil {
		include = func(string, string, bool) bool { return true }
	}

	declared := make(map[string]model.Table)
	var declaredNames []string
	for _, t := range target.Tables {
		if !include(t.Name, "table", false) {
			continue
		}
		declared[t.Name] = t
		declaredNames = append(declaredNames, t.Name)
	}
	sort.Strings(declaredNames)

	reflected := make(map[string]DBTable)
	var reflectedNames []string
	for _, t := range live.Tables {
		if !include(t.Name, "table", true) {
			continue
		}
		reflected[t.Name] = t
		reflectedNames = append(reflectedNames, t.Name)
	}
	sort.Strings(reflectedNames)

	var changes []Change

	for _, name := range declaredNames {
		if _, ok := reflected[name]; !ok {
			t := declared[name]
			changes = append(changes, Change{Kind: AddTable, Table: name, DeclTable: &t})
		}
	}
	for _, name := range reflectedNames {
		if _, ok := declared[name]; !ok {
			changes = append(changes, Change{Kind: DropTable, Table: name})
		}
	}
	for _, name := range declaredNames {
		dbTable, ok := reflected[name]
		if !ok {
			continue
		}
		changes = append(changes, compareColumns(declared[name], dbTable, opts, include)...)
	}

	return changes
}

func compareColumns(decl model.Table, live DBTable, opts Options, include Filter) []Change {
	declared := make(map[string]model.Column)
	var declaredNames []string
	for _, c := range decl.Columns {
		qualified := decl.Name + "." + c.Name
		if !include(qualified, "column", false) {
			continue
		}
		declared[c.Name] = c
		declaredNames = append(declaredNames, c.Name)
	}
	sort.Strings(declaredNames)

	reflected := make(map[string]DBColumn)
	var reflectedNames []string
	for _, c := range live.Columns {
		qualified := live.Name + "." + c.Name
		if !include(qualified, "column", true) {
			continue
		}
		reflected[c.Name] = c
		reflectedNames = append(reflectedNames, c.Name)
	}
	sort.Strings(reflectedNames)

	var changes []Change

	for _, name := range declaredNames {
		if _, ok := reflected[name]; !ok {
			c := declared[name]
			changes = append(changes, Change{Kind: AddColumn, Table: decl.Name, Column: name, DeclColumn: &c})
		}
	}
	for _, name := range reflectedNames {
		if _, ok := declared[name]; !ok {
			changes = append(changes, Change{Kind: DropColumn, Table: decl.Name, Column: name})
		}
	}
	for _, name := range declaredNames {
		dbCol, ok := reflected[name]
		if !ok {
			continue
		}
		declCol := declared[name]
		if opts.CompareTypes && !typesEqual(declCol.Type, dbCol.Type) {
			changes = append(changes, Change{
				Kind: AlterColumnType, Table: decl.Name, Column: name,
				From: dbCol.Type, To: declCol.Type,
			})
		}
		if opts.CompareServerDefaults && !defaultsEqual(declCol.Default, dbCol.Default) {
			changes = append(changes, Change{
				Kind: AlterDefault, Table: decl.Name, Column: name,
				From: dbCol.Default, To: declCol.Default,
			})
		}
	}

	return changes
}

func typesEqual(declared, reflected string) bool {
	return normalizeType(declared) == normalizeType(reflected)
}

func normalizeType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	t = strings.ReplaceAll(t, " ", "")
	switch t {
	case "int8":
		return "bigint"
	case "int4", "int", "integer":
		return "integer"
	case "int2":
		return "smallint"
	case "bool":
		return "boolean"
	case "charactervarying":
		return "varchar"
	}
	return t
}

// defaultsEqual compares default expressions ignoring the type casts the
// server appends when reflecting them (e.g. 'x'::character varying).
func defaultsEqual(declared, reflected string) bool {
	return normalizeDefault(declared) == normalizeDefault(reflected)
}

func normalizeDefault(expr string) string {
	expr = strings.TrimSpace(expr)
	if i := strings.Index(expr, "::"); i >= 0 {
		expr = expr[:i]
	}
	return strings.ToLower(strings.TrimSpace(expr))
}

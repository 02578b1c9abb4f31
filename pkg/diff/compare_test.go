package diff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder/driftdoctor/pkg/model"
)

func declaredUsers() *model.Schema {
	return &model.Schema{Tables: []model.Table{
		{Name: "users", Columns: []model.Column{
			{Name: "id", Type: "bigint", PrimaryKey: true},
			{Name: "email", Type: "varchar(255)", Nullable: true},
		}},
	}}
}

func liveUsers() *DBSchema {
	return &DBSchema{Tables: []DBTable{
		{Name: "users", Columns: []DBColumn{
			{Name: "id", Type: "bigint"},
			{Name: "email", Type: "varchar(255)", Nullable: true},
		}},
	}}
}

func TestCompare_Clean(t *testing.T) {
	changes := Compare(declaredUsers(), liveUsers(), DefaultOptions(nil))
	assert.Empty(t, changes)
}

func TestCompare_MissingTable(t *testing.T) {
	changes := Compare(declaredUsers(), &DBSchema{}, DefaultOptions(nil))
	require.Len(t, changes, 1)
	assert.Equal(t, AddTable, changes[0].Kind)
	assert.Equal(t, "add table users", changes[0].String())
}

func TestCompare_ExtraTable(t *testing.T) {
	live := liveUsers()
	live.Tables = append(live.Tables, DBTable{Name: "scratch"})

	changes := Compare(declaredUsers(), live, DefaultOptions(nil))
	require.Len(t, changes, 1)
	assert.Equal(t, DropTable, changes[0].Kind)
	assert.Equal(t, "scratch", changes[0].Table)
}

func TestCompare_ColumnDrift(t *testing.T) {
	target := declaredUsers()
	target.Tables[0].Columns = append(target.Tables[0].Columns,
		model.Column{Name: "created_at", Type: "timestamptz"})

	live := liveUsers()
	live.Tables[0].Columns = append(live.Tables[0].Columns,
		DBColumn{Name: "legacy_flag", Type: "boolean"})

	changes := Compare(target, live, DefaultOptions(nil))
	require.Len(t, changes, 2)
	assert.Equal(t, "add column users.created_at", changes[0].String())
	assert.Equal(t, "drop column users.legacy_flag", changes[1].String())
}

func TestCompare_TypeChange(t *testing.T) {
	live := liveUsers()
	live.Tables[0].Columns[0].Type = "integer"

	changes := Compare(declaredUsers(), live, DefaultOptions(nil))
	require.Len(t, changes, 1)
	assert.Equal(t, AlterColumnType, changes[0].Kind)
	assert.Equal(t, "integer", changes[0].From)
	assert.Equal(t, "bigint", changes[0].To)
}

func TestCompare_TypeAliasesMatch(t *testing.T) {
	tests := []struct {
		declared, reflected string
	}{
		{"bigint", "int8"},
		{"integer", "int4"},
		{"int", "integer"},
		{"boolean", "bool"},
		{"smallint", "int2"},
		{"BIGINT", "bigint"},
	}
	for _, tt := range tests {
		assert.True(t, typesEqual(tt.declared, tt.reflected),
			"%s vs %s", tt.declared, tt.reflected)
	}
}

func TestCompare_DefaultCastIgnored(t *testing.T) {
	target := &model.Schema{Tables: []model.Table{
		{Name: "users", Columns: []model.Column{
			{Name: "status", Type: "text", Default: "'active'"},
		}},
	}}
	live := &DBSchema{Tables: []DBTable{
		{Name: "users", Columns: []DBColumn{
			{Name: "status", Type: "text", Default: "'active'::text"},
		}},
	}}

	assert.Empty(t, Compare(target, live, DefaultOptions(nil)))
}

func TestCompare_DefaultDrift(t *testing.T) {
	target := &model.Schema{Tables: []model.Table{
		{Name: "users", Columns: []model.Column{
			{Name: "status", Type: "text", Default: "'active'"},
		}},
	}}
	live := &DBSchema{Tables: []DBTable{
		{Name: "users", Columns: []DBColumn{
			{Name: "status", Type: "text"},
		}},
	}}

	changes := Compare(target, live, DefaultOptions(nil))
	require.Len(t, changes, 1)
	assert.Equal(t, AlterDefault, changes[0].Kind)
	assert.Equal(t, "alter column users.status default <none> -> 'active'", changes[0].String())
	assert.Equal(t, "ALTER TABLE users ALTER COLUMN status SET DEFAULT 'active';", changes[0].SQL())
}

func TestCompare_DisabledComparisons(t *testing.T) {
	live := liveUsers()
	live.Tables[0].Columns[0].Type = "integer"
	live.Tables[0].Columns[1].Default = "'x'"

	changes := Compare(declaredUsers(), live, Options{})
	assert.Empty(t, changes)
}

func TestCompare_FilterExcludesObjects(t *testing.T) {
	live := liveUsers()
	live.Tables = append(live.Tables, DBTable{Name: "audit_log"})
	live.Tables[0].Columns = append(live.Tables[0].Columns,
		DBColumn{Name: "shadow", Type: "text"})

	filter := func(name, objectType string, reflected bool) bool {
		if objectType == "table" && name == "audit_log" {
			return false
		}
		return !strings.HasSuffix(name, ".shadow")
	}

	changes := Compare(declaredUsers(), live, DefaultOptions(filter))
	assert.Empty(t, changes)
}

func TestCompare_Deterministic(t *testing.T) {
	target := &model.Schema{Tables: []model.Table{
		{Name: "zeta"}, {Name: "alpha"}, {Name: "mid"},
	}}

	first := Render(Compare(target, &DBSchema{}, DefaultOptions(nil)))
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Render(Compare(target, &DBSchema{}, DefaultOptions(nil))))
	}
	assert.Equal(t, []string{"add table alpha", "add table mid", "add table zeta"}, first)
}

func TestChangeSQL_CreateTable(t *testing.T) {
	table := &model.Table{Name: "users", Columns: []model.Column{
		{Name: "id", Type: "bigint", PrimaryKey: true},
		{Name: "email", Type: "varchar(255)", Nullable: true},
		{Name: "status", Type: "text", Default: "'active'"},
	}}
	c := Change{Kind: AddTable, Table: "users", DeclTable: table}

	want := `CREATE TABLE users (
    id bigint NOT NULL,
    email varchar(255),
    status text NOT NULL DEFAULT 'active',
    PRIMARY KEY (id)
);`
	assert.Equal(t, want, c.SQL())
}

func TestChangeSQL_DropDefault(t *testing.T) {
	c := Change{Kind: AlterDefault, Table: "users", Column: "status", From: "'active'", To: ""}
	assert.Equal(t, "ALTER TABLE users ALTER COLUMN status DROP DEFAULT;", c.SQL())
}

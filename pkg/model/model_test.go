package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tables:
  - name: users
    columns:
      - name: id
        type: bigint
        primary_key: true
      - name: email
        type: varchar(255)
        nullable: true
        default: "''"
`), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	require.Len(t, s.Tables, 1)

	users, ok := s.Table("users")
	require.True(t, ok)
	require.Len(t, users.Columns, 2)
	assert.True(t, users.Columns[0].PrimaryKey)
	assert.False(t, users.Columns[0].Nullable)
	assert.Equal(t, "varchar(255)", users.Columns[1].Type)
	assert.Equal(t, "''", users.Columns[1].Default)
}

func TestLoad_UnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tables:
  - name: users
    colums: []
`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing model fragment")
}

func TestLoadAll_StopsOnFirstError(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("tables: []\n"), 0o644))

	_, err := LoadAll([]string{good, filepath.Join(dir, "missing.yaml")})
	require.Error(t, err)
}

func TestMerge(t *testing.T) {
	a := &Schema{Tables: []Table{
		{Name: "users", Columns: []Column{{Name: "id", Type: "bigint"}}},
		{Name: "orders", Columns: []Column{{Name: "id", Type: "bigint"}}},
	}}
	b := &Schema{Tables: []Table{
		// Redeclares users; the later fragment wins.
		{Name: "users", Columns: []Column{
			{Name: "id", Type: "bigint"},
			{Name: "email", Type: "text"},
		}},
	}}

	merged := Merge(a, b)
	require.Len(t, merged.Tables, 2)
	assert.Equal(t, "orders", merged.Tables[0].Name)
	assert.Equal(t, "users", merged.Tables[1].Name)

	users, ok := merged.Table("users")
	require.True(t, ok)
	assert.Len(t, users.Columns, 2)
}

func TestMerge_NilFragments(t *testing.T) {
	merged := Merge(nil, &Schema{}, nil)
	assert.Empty(t, merged.Tables)
}

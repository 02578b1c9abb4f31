package detect_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder/driftdoctor/internal/testutil"
	"github.com/calder/driftdoctor/pkg/detect"
	"github.com/calder/driftdoctor/pkg/diff"
	"github.com/calder/driftdoctor/pkg/model"
)

// staticInspector serves a fixed live schema.
type staticInspector struct {
	schema *diff.DBSchema
}

func (s staticInspector) Inspect(context.Context, *sql.DB) (*diff.DBSchema, error) {
	return s.schema, nil
}

func TestNewSchemaDiffDetector_RequiresModel(t *testing.T) {
	_, err := detect.NewSchemaDiffDetector(nil, staticInspector{}, nil, nil)
	assert.ErrorIs(t, err, detect.ErrNoModel)
}

func TestSchemaDiffDetector_ReportsDrift(t *testing.T) {
	fragments := []*model.Schema{{Tables: []model.Table{
		{Name: "users", Columns: []model.Column{
			{Name: "id", Type: "bigint", PrimaryKey: true},
			{Name: "email", Type: "text", Nullable: true},
		}},
	}}}
	live := &diff.DBSchema{Tables: []diff.DBTable{
		{Name: "users", Columns: []diff.DBColumn{
			{Name: "id", Type: "bigint"},
		}},
	}}

	d, err := detect.NewSchemaDiffDetector(nil, staticInspector{live}, fragments, nil)
	require.NoError(t, err)

	report, err := d.Detect(context.Background())
	require.NoError(t, err)
	assert.True(t, report.HasChanges())
	assert.Equal(t, []string{"add column users.email"}, report.Operations())
}

func TestSchemaDiffDetector_MergesFragments(t *testing.T) {
	fragments := []*model.Schema{
		{Tables: []model.Table{{Name: "users"}}},
		{Tables: []model.Table{{Name: "orders"}}},
	}

	d, err := detect.NewSchemaDiffDetector(nil, staticInspector{&diff.DBSchema{}}, fragments, nil)
	require.NoError(t, err)

	report, err := d.Detect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"add table orders", "add table users"}, report.Operations())
}

func TestSchemaDiffDetector_Deterministic(t *testing.T) {
	fragments := []*model.Schema{{Tables: []model.Table{
		{Name: "zeta"}, {Name: "alpha"},
	}}}

	d, err := detect.NewSchemaDiffDetector(nil, staticInspector{&diff.DBSchema{}}, fragments, nil)
	require.NoError(t, err)

	first, err := d.Detect(context.Background())
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := d.Detect(context.Background())
		require.NoError(t, err)
		assert.Equal(t, first.Operations(), again.Operations())
	}
}

func TestSchemaDiffDetector_LiveDatabase(t *testing.T) {
	db := testutil.OpenSQLite(t)
	_, err := db.Exec(`CREATE TABLE users (id INTEGER NOT NULL)`)
	require.NoError(t, err)

	fragments := []*model.Schema{{Tables: []model.Table{
		{Name: "users", Columns: []model.Column{
			{Name: "id", Type: "integer"},
			{Name: "email", Type: "text", Nullable: true},
		}},
	}}}

	d, err := detect.NewSchemaDiffDetector(db, testutil.SQLiteInspector{}, fragments, nil)
	require.NoError(t, err)

	report, err := d.Detect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"add column users.email"}, report.Operations())
}

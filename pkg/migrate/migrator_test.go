package migrate_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder/driftdoctor/internal/testutil"
	"github.com/calder/driftdoctor/pkg/migrate"
	"github.com/calder/driftdoctor/pkg/revision"
)

func graphOf(t *testing.T, revs ...*revision.Revision) *revision.Graph {
	t.Helper()
	g, err := revision.NewGraph(revs)
	require.NoError(t, err)
	return g
}

func linearGraph(t *testing.T) *revision.Graph {
	return graphOf(t,
		&revision.Revision{ID: "aaa", Message: "init",
			SQL: "CREATE TABLE users (id INTEGER PRIMARY KEY);"},
		&revision.Revision{ID: "bbb", Parents: []string{"aaa"}, Message: "add email",
			SQL: "ALTER TABLE users ADD COLUMN email TEXT;"},
		&revision.Revision{ID: "ccc", Parents: []string{"bbb"}, Message: "add orders",
			SQL: "CREATE TABLE orders (id INTEGER PRIMARY KEY, user_id INTEGER);"},
	)
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = $1`, name,
	).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestUpgrade_FromScratch(t *testing.T) {
	db := testutil.OpenSQLite(t)
	ctx := context.Background()

	require.NoError(t, migrate.Upgrade(ctx, db, linearGraph(t), migrate.TargetHead))

	assert.True(t, tableExists(t, db, "users"))
	assert.True(t, tableExists(t, db, "orders"))

	versions, err := migrate.FetchVersions(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []string{"ccc"}, versions)
}

func TestUpgrade_Idempotent(t *testing.T) {
	db := testutil.OpenSQLite(t)
	ctx := context.Background()
	graph := linearGraph(t)

	require.NoError(t, migrate.Upgrade(ctx, db, graph, migrate.TargetHead))
	require.NoError(t, migrate.Upgrade(ctx, db, graph, migrate.TargetHead))

	versions, err := migrate.FetchVersions(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []string{"ccc"}, versions)
}

func TestUpgrade_IntermediateTarget(t *testing.T) {
	db := testutil.OpenSQLite(t)
	ctx := context.Background()
	graph := linearGraph(t)

	require.NoError(t, migrate.Upgrade(ctx, db, graph, "bbb"))

	assert.True(t, tableExists(t, db, "users"))
	assert.False(t, tableExists(t, db, "orders"))

	versions, err := migrate.FetchVersions(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []string{"bbb"}, versions)

	// Resuming to head picks up where the tracking table left off.
	require.NoError(t, migrate.Upgrade(ctx, db, graph, migrate.TargetHead))
	versions, err = migrate.FetchVersions(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []string{"ccc"}, versions)
}

func TestUpgrade_MergeRevisionCollapsesHeads(t *testing.T) {
	db := testutil.OpenSQLite(t)
	ctx := context.Background()

	graph := graphOf(t,
		&revision.Revision{ID: "root", SQL: "CREATE TABLE base (id INTEGER);"},
		&revision.Revision{ID: "left", Parents: []string{"root"},
			SQL: "CREATE TABLE lefty (id INTEGER);"},
		&revision.Revision{ID: "right", Parents: []string{"root"},
			SQL: "CREATE TABLE righty (id INTEGER);"},
		&revision.Revision{ID: "merge", Parents: []string{"left", "right"}},
	)

	require.NoError(t, migrate.Upgrade(ctx, db, graph, migrate.TargetHead))

	versions, err := migrate.FetchVersions(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []string{"merge"}, versions)
	assert.True(t, tableExists(t, db, "lefty"))
	assert.True(t, tableExists(t, db, "righty"))
}

func TestUpgrade_MultipleHeadsRejected(t *testing.T) {
	db := testutil.OpenSQLite(t)

	graph := graphOf(t,
		&revision.Revision{ID: "root"},
		&revision.Revision{ID: "left", Parents: []string{"root"}},
		&revision.Revision{ID: "right", Parents: []string{"root"}},
	)

	err := migrate.Upgrade(context.Background(), db, graph, migrate.TargetHead)
	assert.ErrorIs(t, err, revision.ErrMultipleHeads)
}

func TestUpgrade_FailedScriptLeavesPriorRevision(t *testing.T) {
	db := testutil.OpenSQLite(t)
	ctx := context.Background()

	graph := graphOf(t,
		&revision.Revision{ID: "aaa", SQL: "CREATE TABLE users (id INTEGER);"},
		&revision.Revision{ID: "bbb", Parents: []string{"aaa"},
			SQL: "ALTER TABLE nope ADD COLUMN broken TEXT;"},
	)

	err := migrate.Upgrade(ctx, db, graph, migrate.TargetHead)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "applying revision bbb")

	// The failed script's transaction rolled back; tracking stays at aaa.
	versions, verr := migrate.FetchVersions(ctx, db)
	require.NoError(t, verr)
	assert.Equal(t, []string{"aaa"}, versions)
}

func TestFetchVersions_Uninitialized(t *testing.T) {
	db := testutil.OpenSQLite(t)

	versions, err := migrate.FetchVersions(context.Background(), db)
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestParseEnvironment(t *testing.T) {
	env, err := migrate.ParseEnvironment("staging=postgres://db.internal/app")
	require.NoError(t, err)
	assert.Equal(t, "staging", env.Name)
	assert.Equal(t, "postgres://db.internal/app", env.URL)

	_, err = migrate.ParseEnvironment("no-separator")
	assert.Error(t, err)
}

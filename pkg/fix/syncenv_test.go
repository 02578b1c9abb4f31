package fix_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder/driftdoctor/internal/testutil"
	"github.com/calder/driftdoctor/pkg/fix"
	"github.com/calder/driftdoctor/pkg/migrate"
	"github.com/calder/driftdoctor/pkg/revision"
)

func stagingEnv(t *testing.T) migrate.Environment {
	t.Helper()
	return migrate.Environment{
		Name: "staging",
		URL:  filepath.Join(t.TempDir(), "staging.db"),
	}
}

func TestSyncEnvironment_UpgradesToHead(t *testing.T) {
	d := scriptDir(t,
		&revision.Revision{ID: "aaa", Message: "init",
			SQL: "CREATE TABLE users (id INTEGER PRIMARY KEY);"},
		&revision.Revision{ID: "bbb", Parents: []string{"aaa"}, Message: "add email",
			SQL: "ALTER TABLE users ADD COLUMN email TEXT;"},
	)
	env := stagingEnv(t)

	result, err := fix.SyncEnvironment(context.Background(), d, env, "", testutil.OpenSQLiteAt)
	require.NoError(t, err)
	assert.Equal(t, "staging", result.Environment)
	assert.Equal(t, "bbb", result.TargetRevision)

	db, err := testutil.OpenSQLiteAt(env.URL)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	versions, err := migrate.FetchVersions(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, []string{"bbb"}, versions)
}

func TestSyncEnvironment_ExplicitTarget(t *testing.T) {
	d := scriptDir(t,
		&revision.Revision{ID: "aaa", Message: "init",
			SQL: "CREATE TABLE users (id INTEGER PRIMARY KEY);"},
		&revision.Revision{ID: "bbb", Parents: []string{"aaa"}, Message: "add email",
			SQL: "ALTER TABLE users ADD COLUMN email TEXT;"},
	)
	env := stagingEnv(t)

	result, err := fix.SyncEnvironment(context.Background(), d, env, "aaa", testutil.OpenSQLiteAt)
	require.NoError(t, err)
	assert.Equal(t, "aaa", result.TargetRevision)

	db, err := testutil.OpenSQLiteAt(env.URL)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	versions, err := migrate.FetchVersions(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, []string{"aaa"}, versions)
}

func TestSyncEnvironment_Idempotent(t *testing.T) {
	d := scriptDir(t,
		&revision.Revision{ID: "aaa", Message: "init",
			SQL: "CREATE TABLE users (id INTEGER PRIMARY KEY);"},
	)
	env := stagingEnv(t)

	_, err := fix.SyncEnvironment(context.Background(), d, env, "", testutil.OpenSQLiteAt)
	require.NoError(t, err)
	_, err = fix.SyncEnvironment(context.Background(), d, env, "", testutil.OpenSQLiteAt)
	require.NoError(t, err)
}

func TestSyncEnvironment_FailedScript(t *testing.T) {
	d := scriptDir(t,
		&revision.Revision{ID: "aaa", Message: "broken",
			SQL: "ALTER TABLE nope ADD COLUMN x TEXT;"},
	)
	env := stagingEnv(t)

	_, err := fix.SyncEnvironment(context.Background(), d, env, "", testutil.OpenSQLiteAt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upgrading environment staging")
}

// Package migrate applies migration scripts to a database and tracks which
// revisions each database has reached.
//
// The tracking table holds the set of revision ids the database currently
// records as applied; under a healthy linear history it is a singleton, but
// it is modeled as a set so anomalies can be detected rather than hidden.
package migrate

import (
	"context"
	"fmt"
	"sort"
)

// VersionTable is the revision tracking table. One row per current head.
const VersionTable = "driftdoctor_versions"

const versionsDDL = `
CREATE TABLE IF NOT EXISTS ` + VersionTable + ` (
    version_id TEXT NOT NULL PRIMARY KEY
)`

// FetchVersions returns the sorted set of revision ids the database records
// as applied. A missing tracking table means the database has not been
// initialized yet and reads as an empty set, not an error.
func FetchVersions(ctx context.Context, db Execer) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT version_id FROM `+VersionTable)
	if err != nil {
		// Tracking table absent: uninitialized database.
		return nil, nil
	}
	defer func() { _ = rows.Close() }()

	var versions []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning version row: %w", err)
		}
		versions = append(versions, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading version rows: %w", err)
	}
	sort.Strings(versions)
	return versions, nil
}

// ensureVersionTable creates the tracking table if it does not exist.
func ensureVersionTable(ctx context.Context, db Execer) error {
	if _, err := db.ExecContext(ctx, versionsDDL); err != nil {
		return fmt.Errorf("creating version table: %w", err)
	}
	return nil
}

// advanceVersion replaces the applied parents of a revision with the
// revision itself, mirroring how the tracking set moves along the graph.
func advanceVersion(ctx context.Context, db Execer, revisionID string, parents []string) error {
	for _, p := range parents {
		if _, err := db.ExecContext(ctx, `DELETE FROM `+VersionTable+` WHERE version_id = $1`, p); err != nil {
			return fmt.Errorf("retiring parent version %s: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO `+VersionTable+` (version_id) VALUES ($1)`, revisionID); err != nil {
		return fmt.Errorf("recording version %s: %w", revisionID, err)
	}
	return nil
}

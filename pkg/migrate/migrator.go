package migrate

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/calder/driftdoctor/pkg/revision"
)

// TargetHead is the symbolic destination meaning "the graph's single head".
const TargetHead = "head"

// Upgrade applies all pending migrations on db up to target, in an order
// where every revision follows its parents. Idempotent: a database already
// at the target applies nothing.
//
// Each script runs in its own transaction together with its tracking-table
// update, so a failure partway leaves the database at a well-defined earlier
// revision rather than in between two.
func Upgrade(ctx context.Context, db *sql.DB, graph *revision.Graph, target string) error {
	if target == TargetHead || target == "" {
		head, err := graph.Head()
		if err != nil {
			return err
		}
		target = head
	}

	heads, err := FetchVersions(ctx, db)
	if err != nil {
		return err
	}
	applied := graph.Ancestry(heads...)

	pending, err := graph.PendingOrder(applied, target)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	if err := ensureVersionTable(ctx, db); err != nil {
		return err
	}

	for _, id := range pending {
		rev, _ := graph.Get(id)
		if err := applyRevision(ctx, db, rev); err != nil {
			return fmt.Errorf("applying revision %s: %w", id, err)
		}
	}
	return nil
}

func applyRevision(ctx context.Context, db *sql.DB, rev *revision.Revision) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if rev.SQL != "" {
		if _, err := tx.ExecContext(ctx, rev.SQL); err != nil {
			return fmt.Errorf("executing script %s: %w", rev.Path, err)
		}
	}
	if err := advanceVersion(ctx, tx, rev.ID, rev.Parents); err != nil {
		return err
	}
	return tx.Commit()
}

package fix

import (
	"context"
	"fmt"

	"github.com/calder/driftdoctor/pkg/migrate"
	"github.com/calder/driftdoctor/pkg/revision"
)

// SyncResult summarizes one environment upgrade.
type SyncResult struct {
	Environment    string
	TargetRevision string
}

// SyncEnvironment applies all pending migrations on the environment's
// database up to target ("head" or empty means the latest head).
//
// The environment gets its own freshly opened connection derived from its
// URL; the configuration used for the primary and for other environments is
// never touched, so a failed sync cannot leak a redirected target into
// subsequent operations.
func SyncEnvironment(ctx context.Context, dir *revision.Directory, env migrate.Environment,
	target string, open migrate.OpenFunc) (*SyncResult, error) {

	if open == nil {
		open = migrate.OpenPostgres
	}
	if target == "" {
		target = migrate.TargetHead
	}

	graph, err := dir.Load()
	if err != nil {
		return nil, err
	}

	db, err := open(env.URL)
	if err != nil {
		return nil, fmt.Errorf("connecting to environment %s: %w", env.Name, err)
	}
	defer func() { _ = db.Close() }()

	if err := migrate.Upgrade(ctx, db, graph, target); err != nil {
		return nil, fmt.Errorf("upgrading environment %s: %w", env.Name, err)
	}

	resolved := target
	if resolved == migrate.TargetHead {
		if head, err := graph.Head(); err == nil {
			resolved = head
		}
	}
	return &SyncResult{Environment: env.Name, TargetRevision: resolved}, nil
}

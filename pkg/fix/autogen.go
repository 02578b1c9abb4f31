package fix

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/calder/driftdoctor/pkg/diff"
	"github.com/calder/driftdoctor/pkg/model"
	"github.com/calder/driftdoctor/pkg/revision"
)

// AutogenResult summarizes an autogenerate run.
type AutogenResult struct {
	// CreatedRevision and ScriptPath identify the generated script.
	// Both are empty when HadChanges is false.
	CreatedRevision string
	ScriptPath      string

	// HadChanges reports whether the model differed from the live schema.
	HadChanges bool
}

// Autogenerate compares the merged model fragments against the live schema
// and authors a new migration script encoding the difference.
//
// The comparison uses the same fixed options as the schema diff detector
// (types and server defaults, same filter), so the generated script
// corresponds exactly to the reported diff. An empty changeset is decided
// before anything touches disk: no file artifact and no new head are ever
// produced for a clean schema.
func Autogenerate(ctx context.Context, dir *revision.Directory, db *sql.DB, inspector diff.Inspector,
	fragments []*model.Schema, filter diff.Filter, message string) (*AutogenResult, error) {

	if len(fragments) == 0 {
		return nil, fmt.Errorf("autogenerate requires at least one model fragment")
	}

	graph, err := dir.Load()
	if err != nil {
		return nil, err
	}
	before := graph.Heads()

	live, err := inspector.Inspect(ctx, db)
	if err != nil {
		return nil, err
	}
	changes := diff.Compare(model.Merge(fragments...), live, diff.DefaultOptions(filter))
	if len(changes) == 0 {
		return &AutogenResult{HadChanges: false}, nil
	}

	stmts := make([]string, 0, len(changes))
	for _, c := range changes {
		stmts = append(stmts, c.SQL())
	}

	if message == "" {
		message = "autogenerated migration"
	}
	rev, err := dir.CreateRevision(message, before, strings.Join(stmts, "\n\n"))
	if err != nil {
		return nil, fmt.Errorf("authoring generated revision: %w", err)
	}

	return &AutogenResult{
		CreatedRevision: rev.ID,
		ScriptPath:      rev.Path,
		HadChanges:      true,
	}, nil
}

// Package fix implements the corrective actions: merging divergent script
// heads, generating a migration script from a schema diff, and syncing an
// environment's database to a target revision.
package fix

import (
	"fmt"

	"github.com/calder/driftdoctor/pkg/revision"
)

// MergeResult summarizes an automatic head merge.
type MergeResult struct {
	// CreatedRevision is the id of the synthetic merge revision.
	CreatedRevision string

	// MergedHeads are the former heads the new revision subsumes.
	MergedHeads []string
}

// MergeHeads collapses multiple script heads into one by authoring a
// synthetic merge revision whose parents are exactly the current head set.
//
// A graph with zero or one head is the healthy state: MergeHeads returns
// (nil, nil) and touches nothing. After a successful merge the reloaded
// graph has exactly one head, so a second invocation is a guaranteed no-op.
func MergeHeads(dir *revision.Directory, message string) (*MergeResult, error) {
	graph, err := dir.Load()
	if err != nil {
		return nil, err
	}

	heads := graph.Heads()
	if len(heads) <= 1 {
		return nil, nil
	}

	if message == "" {
		message = "merge heads"
	}
	rev, err := dir.CreateRevision(message, heads, "")
	if err != nil {
		return nil, fmt.Errorf("authoring merge revision: %w", err)
	}

	return &MergeResult{CreatedRevision: rev.ID, MergedHeads: heads}, nil
}

// Package detect implements the drift detectors: migration script conflicts,
// declared-model vs live-schema differences, and cross-environment revision
// consistency. Detectors only report; they never mutate anything.
package detect

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/calder/driftdoctor/pkg/migrate"
	"github.com/calder/driftdoctor/pkg/revision"
)

// ConflictReport is the outcome of a migration conflict scan.
type ConflictReport struct {
	// ScriptHeads are the revisions with no children in the script graph.
	ScriptHeads []string

	// DatabaseHeads are the revision ids the database records as applied.
	DatabaseHeads []string

	// MissingLinks are parent references that resolve to no known revision.
	MissingLinks []revision.MissingLink

	// DetachedDatabaseHeads are database-recorded ids absent from the
	// current script heads: the database points at a revision unknown to,
	// or superseded in, the script graph. Informational only; no fixer
	// acts on these without operator intervention.
	DetachedDatabaseHeads []string
}

// HasMultipleHeads reports whether the script graph has diverged.
func (r *ConflictReport) HasMultipleHeads() bool { return len(r.ScriptHeads) > 1 }

// HasMissingLinks reports whether any revision references a missing parent.
func (r *ConflictReport) HasMissingLinks() bool { return len(r.MissingLinks) > 0 }

// HasDetachedHeads reports whether the database tracks a revision outside
// the current script heads.
func (r *ConflictReport) HasDetachedHeads() bool { return len(r.DetachedDatabaseHeads) > 0 }

// IsClean reports whether no conflict of any kind was found.
func (r *ConflictReport) IsClean() bool {
	return !r.HasMultipleHeads() && !r.HasMissingLinks() && !r.HasDetachedHeads()
}

// ConflictDetector scans a revision graph and, optionally, a database's
// recorded versions for structural defects.
type ConflictDetector struct {
	graph *revision.Graph
	db    *sql.DB // nil when no database check is wanted
}

// NewConflictDetector returns a detector over graph. db may be nil, in which
// case database heads read as empty.
func NewConflictDetector(graph *revision.Graph, db *sql.DB) *ConflictDetector {
	return &ConflictDetector{graph: graph, db: db}
}

// Detect computes the conflict report. A missing version table reads as an
// uninitialized database (empty head set); an unreachable database is an
// error, since a connection was explicitly supplied.
func (d *ConflictDetector) Detect(ctx context.Context) (*ConflictReport, error) {
	report := &ConflictReport{
		ScriptHeads:  d.graph.Heads(),
		MissingLinks: d.graph.MissingLinks(),
	}

	if d.db != nil {
		if err := d.db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("connecting to primary database: %w", err)
		}
		heads, err := migrate.FetchVersions(ctx, d.db)
		if err != nil {
			return nil, err
		}
		report.DatabaseHeads = heads
	}

	scriptHeads := make(map[string]bool, len(report.ScriptHeads))
	for _, h := range report.ScriptHeads {
		scriptHeads[h] = true
	}
	for _, h := range report.DatabaseHeads {
		if !scriptHeads[h] {
			report.DetachedDatabaseHeads = append(report.DetachedDatabaseHeads, h)
		}
	}

	return report, nil
}

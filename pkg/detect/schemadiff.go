package detect

import (
	"context"
	"database/sql"
	"errors"

	"github.com/calder/driftdoctor/pkg/diff"
	"github.com/calder/driftdoctor/pkg/model"
)

// ErrNoModel is returned when schema comparison is requested without any
// model fragments. There is no valid default to compare against.
var ErrNoModel = errors.New("schema comparison requires at least one model fragment")

// SchemaDiffReport summarizes the differences between the declared model and
// the live schema.
type SchemaDiffReport struct {
	Changes []diff.Change
}

// HasChanges reports whether the live schema differs from the model.
func (r *SchemaDiffReport) HasChanges() bool { return len(r.Changes) > 0 }

// Operations returns the stable string rendering of each change, in order.
func (r *SchemaDiffReport) Operations() []string { return diff.Render(r.Changes) }

// SchemaDiffDetector compares one or more declared model fragments against a
// live database schema. Comparison options are fixed (types and server
// defaults are always compared) so the report corresponds exactly to what
// the autogenerate fixer would encode.
type SchemaDiffDetector struct {
	db        *sql.DB
	inspector diff.Inspector
	target    *model.Schema
	opts      diff.Options
}

// NewSchemaDiffDetector merges the fragments into a single comparison target.
// Supplying zero fragments is a usage error.
func NewSchemaDiffDetector(db *sql.DB, inspector diff.Inspector, fragments []*model.Schema, filter diff.Filter) (*SchemaDiffDetector, error) {
	if len(fragments) == 0 {
		return nil, ErrNoModel
	}
	return &SchemaDiffDetector{
		db:        db,
		inspector: inspector,
		target:    model.Merge(fragments...),
		opts:      diff.DefaultOptions(filter),
	}, nil
}

// Detect introspects the live schema and computes the change list.
// Deterministic: re-running without intervening changes yields the same
// ordered list.
func (d *SchemaDiffDetector) Detect(ctx context.Context) (*SchemaDiffReport, error) {
	live, err := d.inspector.Inspect(ctx, d.db)
	if err != nil {
		return nil, err
	}
	return &SchemaDiffReport{Changes: diff.Compare(d.target, live, d.opts)}, nil
}

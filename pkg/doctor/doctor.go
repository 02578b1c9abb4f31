// Package doctor sequences drift detection and repair: migration conflict
// scanning, schema diffing, environment consistency checking, and the three
// fixers, all under an auto-fix policy.
//
// The pipeline is synchronous and strictly ordered; later steps depend on
// earlier reports, and the fixers mutate the revision graph that the
// detectors read. Callers on a cooperatively scheduled loop should run the
// whole pipeline on its own goroutine, and first-use initialization should
// go through InitGate so racing triggers execute it exactly once.
package doctor

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/calder/driftdoctor/pkg/detect"
	"github.com/calder/driftdoctor/pkg/diff"
	"github.com/calder/driftdoctor/pkg/fix"
	"github.com/calder/driftdoctor/pkg/migrate"
	"github.com/calder/driftdoctor/pkg/model"
	"github.com/calder/driftdoctor/pkg/revision"
)

// Options configures one pipeline run.
type Options struct {
	// ScriptsDir is the migration script directory.
	ScriptsDir string

	// DatabaseURL is the primary connection target. Ignored when DB is set.
	DatabaseURL string

	// DB is an optional pre-opened primary connection. When nil, one is
	// opened from DatabaseURL and closed when the run finishes.
	DB *sql.DB

	// ModelPaths are YAML model-fragment files to load.
	ModelPaths []string

	// Models are pre-constructed model fragments. Appended after ModelPaths.
	Models []*model.Schema

	// Environments are additional databases to check and, under auto-fix,
	// sync to the primary's revision.
	Environments []migrate.Environment

	// Policy flags. AutoFix is the master switch; the others gate the
	// individual fixers. Detection always runs.
	AutoFix        bool
	AutoMergeHeads bool
	AutoGenerate   bool
	AutoUpgrade    bool

	// Filter optionally excludes objects from schema comparison.
	Filter diff.Filter

	// Inspector reads the live schema. Defaults to the Postgres
	// information_schema inspector.
	Inspector diff.Inspector

	// Open opens connections to environment databases. Defaults to the
	// postgres opener.
	Open migrate.OpenFunc

	// Logger receives structured step logging. Defaults to a nop logger.
	Logger *zap.Logger
}

// Result aggregates everything one pipeline run found and did.
// Immutable once returned.
type Result struct {
	Conflicts  *detect.ConflictReport
	SchemaDiff *detect.SchemaDiffReport // nil when no model was supplied
	EnvReport  *detect.EnvReport        // nil when no environments were supplied

	Merge   *fix.MergeResult    // nil unless heads were merged
	Autogen *fix.AutogenResult  // nil unless autogenerate ran
	Syncs   []fix.SyncResult    // per-environment sync outcomes, in order
}

// Run executes the pipeline. It fails fast, before any detection work, when
// neither model fragments nor fragment paths are supplied: schema comparison
// has no valid default.
//
// A fixer failure aborts the remaining steps but the reports computed before
// the failing step are returned alongside the error.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if len(opts.ModelPaths) == 0 && len(opts.Models) == 0 {
		return nil, detect.ErrNoModel
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	inspector := opts.Inspector
	if inspector == nil {
		inspector = diff.NewPostgresInspector(migrate.VersionTable)
	}
	open := opts.Open
	if open == nil {
		open = migrate.OpenPostgres
	}

	fragments, err := model.LoadAll(opts.ModelPaths)
	if err != nil {
		return nil, err
	}
	fragments = append(fragments, opts.Models...)

	db := opts.DB
	if db == nil {
		if opts.DatabaseURL == "" {
			return nil, fmt.Errorf("no primary database configured")
		}
		db, err = open(opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to primary database: %w", err)
		}
		defer func() { _ = db.Close() }()
	}

	dir := revision.NewDirectory(opts.ScriptsDir)
	result := &Result{}

	// Detection is unconditional; only fixing is gated.
	graph, err := dir.Load()
	if err != nil {
		return nil, err
	}
	logger.Info("scanning migration scripts",
		zap.String("dir", opts.ScriptsDir), zap.Int("revisions", graph.Len()))

	result.Conflicts, err = detect.NewConflictDetector(graph, db).Detect(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("conflict scan complete",
		zap.Strings("script_heads", result.Conflicts.ScriptHeads),
		zap.Bool("clean", result.Conflicts.IsClean()))

	diffDetector, err := detect.NewSchemaDiffDetector(db, inspector, fragments, opts.Filter)
	if err != nil {
		return nil, err
	}
	result.SchemaDiff, err = diffDetector.Detect(ctx)
	if err != nil {
		return result, err
	}
	logger.Info("schema diff complete",
		zap.Int("changes", len(result.SchemaDiff.Changes)))

	if len(opts.Environments) > 0 {
		checker := detect.NewEnvConsistencyChecker(db, opts.Environments, open)
		result.EnvReport, err = checker.Check(ctx)
		if err != nil {
			return result, err
		}
		logger.Info("environment check complete",
			zap.Int("environments", len(opts.Environments)),
			zap.Bool("consistent", result.EnvReport.IsConsistent()))
	}

	if !opts.AutoFix {
		return result, nil
	}

	if opts.AutoMergeHeads && result.Conflicts.HasMultipleHeads() {
		result.Merge, err = fix.MergeHeads(dir, "")
		if err != nil {
			return result, err
		}
		if result.Merge != nil {
			logger.Info("merged divergent heads",
				zap.Strings("merged", result.Merge.MergedHeads),
				zap.String("created", result.Merge.CreatedRevision))
		}
	}

	if opts.AutoGenerate && result.SchemaDiff.HasChanges() {
		result.Autogen, err = fix.Autogenerate(ctx, dir, db, inspector, fragments, opts.Filter, "")
		if err != nil {
			return result, err
		}
		if result.Autogen.HadChanges {
			logger.Info("generated migration script",
				zap.String("revision", result.Autogen.CreatedRevision),
				zap.String("path", result.Autogen.ScriptPath))
		}

		if result.Autogen.HadChanges && opts.AutoUpgrade {
			// the graph changed; reload before applying
			graph, err = dir.Load()
			if err != nil {
				return result, err
			}
			if err := migrate.Upgrade(ctx, db, graph, migrate.TargetHead); err != nil {
				return result, err
			}
			logger.Info("upgraded primary database to head")
		}
	}

	if result.EnvReport != nil && !result.EnvReport.IsConsistent() {
		for _, env := range opts.Environments {
			if _, mismatched := result.EnvReport.Mismatched[env.Name]; !mismatched {
				continue
			}
			sync, err := fix.SyncEnvironment(ctx, dir, env, migrate.TargetHead, open)
			if err != nil {
				return result, err
			}
			result.Syncs = append(result.Syncs, *sync)
			logger.Info("synced environment",
				zap.String("environment", sync.Environment),
				zap.String("target", sync.TargetRevision))
		}
	}

	return result, nil
}

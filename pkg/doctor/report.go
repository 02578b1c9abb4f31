package doctor

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Status classifies one finding in the rendered report.
type Status int

const (
	// StatusPass indicates no drift.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical finding.
	StatusWarn
	// StatusFail indicates detected drift or a conflict.
	StatusFail
)

// Symbol returns a status indicator for terminal output.
func (s Status) Symbol() string {
	switch s {
	case StatusPass:
		return "✓"
	case StatusWarn:
		return "⚠"
	case StatusFail:
		return "✗"
	default:
		return "?"
	}
}

type finding struct {
	category string
	status   Status
	message  string
	details  []string
}

// Print writes a categoried summary of the result. verbose includes the
// individual change operations and per-environment head lists.
func (r *Result) Print(w io.Writer, verbose bool) {
	var findings []finding

	c := r.Conflicts
	if c.IsClean() {
		findings = append(findings, finding{"Migration Conflicts", StatusPass, "no conflicts detected", nil})
	} else {
		if c.HasMultipleHeads() {
			findings = append(findings, finding{"Migration Conflicts", StatusFail,
				fmt.Sprintf("multiple heads: %s", strings.Join(c.ScriptHeads, ", ")), nil})
		}
		if c.HasMissingLinks() {
			var links []string
			for _, l := range c.MissingLinks {
				links = append(links, fmt.Sprintf("%s -> %s", l.Revision, l.MissingParent))
			}
			findings = append(findings, finding{"Migration Conflicts", StatusFail,
				fmt.Sprintf("missing parent links: %s", strings.Join(links, ", ")), nil})
		}
		if c.HasDetachedHeads() {
			findings = append(findings, finding{"Migration Conflicts", StatusWarn,
				fmt.Sprintf("database tracks unknown revisions: %s", strings.Join(c.DetachedDatabaseHeads, ", ")), nil})
		}
	}

	if r.SchemaDiff != nil {
		if r.SchemaDiff.HasChanges() {
			findings = append(findings, finding{"Schema Diff", StatusFail,
				fmt.Sprintf("%d pending changes", len(r.SchemaDiff.Changes)),
				r.SchemaDiff.Operations()})
		} else {
			findings = append(findings, finding{"Schema Diff", StatusPass, "schema matches declared model", nil})
		}
	}

	if r.EnvReport != nil {
		if r.EnvReport.IsConsistent() {
			findings = append(findings, finding{"Environments", StatusPass, "all environments at primary revision", nil})
		} else {
			names := make([]string, 0, len(r.EnvReport.Mismatched))
			for name := range r.EnvReport.Mismatched {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				heads := r.EnvReport.Mismatched[name]
				msg := fmt.Sprintf("%s diverged (heads: %s)", name, strings.Join(heads, ", "))
				if len(heads) == 0 {
					msg = fmt.Sprintf("%s diverged (no recorded revisions)", name)
				}
				findings = append(findings, finding{"Environments", StatusFail, msg, nil})
			}
		}
	}

	if r.Merge != nil {
		findings = append(findings, finding{"Fixes Applied", StatusPass,
			fmt.Sprintf("merged heads %s -> %s", strings.Join(r.Merge.MergedHeads, ", "), r.Merge.CreatedRevision), nil})
	}
	if r.Autogen != nil && r.Autogen.HadChanges {
		findings = append(findings, finding{"Fixes Applied", StatusPass,
			fmt.Sprintf("generated %s (%s)", r.Autogen.CreatedRevision, r.Autogen.ScriptPath), nil})
	}
	for _, s := range r.Syncs {
		findings = append(findings, finding{"Fixes Applied", StatusPass,
			fmt.Sprintf("environment %s upgraded to %s", s.Environment, s.TargetRevision), nil})
	}

	var lastCategory string
	var pass, warn, fail int
	for _, f := range findings {
		if f.category != lastCategory {
			fmt.Fprintf(w, "\n%s\n", f.category)
			lastCategory = f.category
		}
		fmt.Fprintf(w, "  %s %s\n", f.status.Symbol(), f.message)
		if verbose {
			for _, d := range f.details {
				fmt.Fprintf(w, "      %s\n", d)
			}
		}
		switch f.status {
		case StatusPass:
			pass++
		case StatusWarn:
			warn++
		case StatusFail:
			fail++
		}
	}

	fmt.Fprintf(w, "\nSummary: %d passed, %d warnings, %d errors\n", pass, warn, fail)
}

// Unclean reports whether the result contains any conflict or schema diff,
// the condition under which detection-only commands exit non-zero.
func (r *Result) Unclean() bool {
	if !r.Conflicts.IsClean() {
		return true
	}
	if r.SchemaDiff != nil && r.SchemaDiff.HasChanges() {
		return true
	}
	return false
}

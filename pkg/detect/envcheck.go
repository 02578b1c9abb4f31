package detect

import (
	"context"
	"database/sql"

	"github.com/calder/driftdoctor/pkg/migrate"
)

// EnvState is the recorded revision state of one database.
type EnvState struct {
	Name  string
	Heads []string
}

// EnvReport compares each additional environment against the primary.
type EnvReport struct {
	Primary EnvState
	Others  []EnvState

	// Mismatched maps each out-of-sync environment name to the heads that
	// environment actually records.
	Mismatched map[string][]string
}

// IsConsistent reports whether every environment matches the primary.
func (r *EnvReport) IsConsistent() bool { return len(r.Mismatched) == 0 }

// EnvConsistencyChecker fetches the version state of N additional databases
// and compares each to the primary's state.
type EnvConsistencyChecker struct {
	primary *sql.DB
	envs    []migrate.Environment
	open    migrate.OpenFunc
}

// NewEnvConsistencyChecker returns a checker over the given environments.
// open defaults to the postgres opener when nil.
func NewEnvConsistencyChecker(primary *sql.DB, envs []migrate.Environment, open migrate.OpenFunc) *EnvConsistencyChecker {
	if open == nil {
		open = migrate.OpenPostgres
	}
	return &EnvConsistencyChecker{primary: primary, envs: envs, open: open}
}

// Check fetches the primary's recorded versions, then each environment's.
// Mismatch is a set comparison, order-independent. A failure reaching one
// environment never aborts the others: that environment reads as an empty
// head set, which surfaces as a mismatch unless the primary is also empty.
func (c *EnvConsistencyChecker) Check(ctx context.Context) (*EnvReport, error) {
	primaryHeads, err := migrate.FetchVersions(ctx, c.primary)
	if err != nil {
		return nil, err
	}

	report := &EnvReport{
		Primary:    EnvState{Name: "primary", Heads: primaryHeads},
		Mismatched: make(map[string][]string),
	}

	for _, env := range c.envs {
		state := EnvState{Name: env.Name, Heads: c.fetchEnvHeads(ctx, env)}
		report.Others = append(report.Others, state)
		if !sameSet(state.Heads, primaryHeads) {
			report.Mismatched[env.Name] = state.Heads
		}
	}
	return report, nil
}

// fetchEnvHeads degrades every per-environment failure to an empty head set.
func (c *EnvConsistencyChecker) fetchEnvHeads(ctx context.Context, env migrate.Environment) []string {
	db, err := c.open(env.URL)
	if err != nil {
		return nil
	}
	defer func() { _ = db.Close() }()

	heads, err := migrate.FetchVersions(ctx, db)
	if err != nil {
		return nil
	}
	return heads
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	for _, v := range b {
		if !set[v] {
			return false
		}
	}
	return true
}

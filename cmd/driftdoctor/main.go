// Package main provides the driftdoctor CLI for detecting and repairing
// database schema drift.
//
// The CLI supports:
//   - check: detect migration conflicts, schema diffs, and environment skew
//   - fix: detect and repair (merge heads, generate scripts, upgrade)
//   - sync: upgrade named environments to the latest head
//   - autogen: generate a migration from the model diff and upgrade
//   - config show: print the effective configuration
//   - version: print version information
//
// Commands that need database access take --db or read the configured
// database URL from driftdoctor.yaml / DRIFTDOCTOR_* environment variables.
package main

func main() {
	Execute()
}

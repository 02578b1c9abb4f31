package main

import (
	"github.com/spf13/cobra"

	"github.com/calder/driftdoctor/internal/cli"
)

var (
	checkScriptsDir string
	checkDB         string
	checkModels     []string
	checkEnvs       []string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Detect drift without fixing",
	Long:  `Detect migration conflicts, schema diffs, and environment skew without applying any fix.`,
	Example: `  # Check the primary database against the model
  driftdoctor check --db postgres://localhost/mydb -m model.yaml

  # Also compare a staging environment
  driftdoctor check --db postgres://localhost/mydb -m model.yaml --env staging=postgres://staging/mydb`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := buildOptions(checkScriptsDir, checkDB, checkModels, checkEnvs)
		if err != nil {
			return err
		}
		// detection only
		opts.AutoFix = false

		result, err := runPipeline(opts)
		if err != nil {
			return err
		}
		if result.Unclean() {
			return cli.GeneralError("drift detected", nil)
		}
		return nil
	},
}

func init() {
	f := checkCmd.Flags()
	f.StringVar(&checkScriptsDir, "scripts-dir", "", "migration script directory")
	f.StringVar(&checkDB, "db", "", "primary database URL")
	f.StringArrayVarP(&checkModels, "model", "m", nil, "model fragment file (repeatable)")
	f.StringArrayVar(&checkEnvs, "env", nil, "additional environment as name=url (repeatable)")
}

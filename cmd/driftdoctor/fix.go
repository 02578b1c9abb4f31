package main

import (
	"github.com/spf13/cobra"
)

var (
	fixScriptsDir string
	fixDB         string
	fixModels     []string
	fixEnvs       []string
)

var fixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Detect and repair drift",
	Long: `Detect drift and repair it: merge divergent heads, generate a migration
script from the model diff, upgrade the primary database, and sync
out-of-date environments.`,
	Example: `  # Detect and fix everything
  driftdoctor fix --db postgres://localhost/mydb -m model.yaml

  # Fix the primary and sync staging
  driftdoctor fix --db postgres://localhost/mydb -m model.yaml --env staging=postgres://staging/mydb`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := buildOptions(fixScriptsDir, fixDB, fixModels, fixEnvs)
		if err != nil {
			return err
		}
		opts.AutoFix = true
		opts.AutoMergeHeads = cfg.AutoFix.MergeHeads
		opts.AutoGenerate = cfg.AutoFix.Generate
		opts.AutoUpgrade = cfg.AutoFix.Upgrade

		_, err = runPipeline(opts)
		return err
	},
}

func init() {
	f := fixCmd.Flags()
	f.StringVar(&fixScriptsDir, "scripts-dir", "", "migration script directory")
	f.StringVar(&fixDB, "db", "", "primary database URL")
	f.StringArrayVarP(&fixModels, "model", "m", nil, "model fragment file (repeatable)")
	f.StringArrayVar(&fixEnvs, "env", nil, "additional environment as name=url (repeatable)")
}

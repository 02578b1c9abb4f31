package main

import (
	"github.com/spf13/cobra"

	"github.com/calder/driftdoctor/internal/cli"
)

var (
	syncScriptsDir string
	syncDB         string
	syncModels     []string
	syncEnvs       []string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Upgrade environments to the latest head",
	Long: `Upgrade the named environments to the latest head. Heads are merged first
if the script graph has diverged; no migration script is generated.`,
	Example: `  # Bring staging up to the primary's revision
  driftdoctor sync --db postgres://localhost/mydb -m model.yaml --env staging=postgres://staging/mydb`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := buildOptions(syncScriptsDir, syncDB, syncModels, syncEnvs)
		if err != nil {
			return err
		}
		if len(opts.Environments) == 0 {
			return cli.ConfigError("sync requires at least one environment, e.g. --env staging=postgres://...", nil)
		}
		opts.AutoFix = true
		opts.AutoMergeHeads = true
		opts.AutoGenerate = false
		opts.AutoUpgrade = true

		_, err = runPipeline(opts)
		return err
	},
}

func init() {
	f := syncCmd.Flags()
	f.StringVar(&syncScriptsDir, "scripts-dir", "", "migration script directory")
	f.StringVar(&syncDB, "db", "", "primary database URL")
	f.StringArrayVarP(&syncModels, "model", "m", nil, "model fragment file (repeatable)")
	f.StringArrayVar(&syncEnvs, "env", nil, "environment to sync as name=url (repeatable)")
}

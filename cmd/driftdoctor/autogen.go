package main

import (
	"github.com/spf13/cobra"
)

var (
	autogenScriptsDir string
	autogenDB         string
	autogenModels     []string
)

var autogenCmd = &cobra.Command{
	Use:   "autogen",
	Short: "Generate a migration from the model diff and upgrade",
	Long: `Compare the declared model against the live schema, generate a migration
script encoding the difference, and upgrade the primary database to it.
No environment checks run; the script graph is not merged.`,
	Example: `  # Generate and apply a migration for pending model changes
  driftdoctor autogen --db postgres://localhost/mydb -m model.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := buildOptions(autogenScriptsDir, autogenDB, autogenModels, nil)
		if err != nil {
			return err
		}
		opts.Environments = nil
		opts.AutoFix = true
		opts.AutoMergeHeads = false
		opts.AutoGenerate = true
		opts.AutoUpgrade = true

		_, err = runPipeline(opts)
		return err
	},
}

func init() {
	f := autogenCmd.Flags()
	f.StringVar(&autogenScriptsDir, "scripts-dir", "", "migration script directory")
	f.StringVar(&autogenDB, "db", "", "primary database URL")
	f.StringArrayVarP(&autogenModels, "model", "m", nil, "model fragment file (repeatable)")
}

package main

import (
	"context"
	"errors"
	"os"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/calder/driftdoctor/internal/cli"
	"github.com/calder/driftdoctor/pkg/detect"
	"github.com/calder/driftdoctor/pkg/doctor"
	"github.com/calder/driftdoctor/pkg/migrate"
)

// buildOptions assembles pipeline options from flags and config with
// flag-over-config precedence.
func buildOptions(scriptsDir string, dbURL string, modelPaths []string, envArgs []string) (doctor.Options, error) {
	var opts doctor.Options

	opts.ScriptsDir = resolveString(scriptsDir, cfg.ScriptsDir)
	opts.ModelPaths = resolveStrings(modelPaths, cfg.Models)

	dsn := dbURL
	if dsn == "" {
		var err error
		dsn, err = cfg.DSN()
		if err != nil {
			return opts, cli.ConfigError("database URL is required (use --db or configure database in driftdoctor.yaml)", err)
		}
	}
	opts.DatabaseURL = dsn

	envs, err := parseEnvironments(envArgs)
	if err != nil {
		return opts, cli.ConfigError("environment arguments", err)
	}
	if len(envs) == 0 {
		for _, e := range cfg.Environments {
			envs = append(envs, migrate.Environment{Name: e.Name, URL: e.URL})
		}
	}
	opts.Environments = envs

	opts.Logger, err = buildLogger()
	if err != nil {
		return opts, cli.GeneralError("building logger", err)
	}

	return opts, nil
}

func parseEnvironments(args []string) ([]migrate.Environment, error) {
	envs := make([]migrate.Environment, 0, len(args))
	for _, arg := range args {
		env, err := migrate.ParseEnvironment(arg)
		if err != nil {
			return nil, err
		}
		envs = append(envs, env)
	}
	return envs, nil
}

func buildLogger() (*zap.Logger, error) {
	if quiet {
		return zap.NewNop(), nil
	}
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewNop(), nil
}

// runPipeline executes the pipeline and renders whatever was computed,
// including the partial result when a fixer step failed.
func runPipeline(opts doctor.Options) (*doctor.Result, error) {
	result, err := doctor.Run(context.Background(), opts)
	if result != nil && !quiet {
		result.Print(os.Stdout, verbose)
	}
	if err != nil {
		if errors.Is(err, detect.ErrNoModel) {
			return result, cli.ConfigError("at least one --model fragment is required", err)
		}
		return result, cli.GeneralError("pipeline failed", err)
	}
	return result, nil
}


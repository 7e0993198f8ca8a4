package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/anicka-net/ossuary/core"
	"github.com/anicka-net/ossuary/internal/contract"
	"github.com/anicka-net/ossuary/internal/forge"
	"github.com/anicka-net/ossuary/internal/gitsrc"
	"github.com/anicka-net/ossuary/internal/iocache"
	"github.com/anicka-net/ossuary/schema"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Exit codes per the CLI contract.
const (
	ExitOK         = 0
	ExitUnresolved = 1
	ExitTransient  = 2
	ExitInput      = 3
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg holds the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file,
// env, flags). Viper unmarshals into this struct.
var input = &contract.ConfigRawInput{}

// scorer is the shared pipeline instance built by sharedSetup.
var scorer *core.Scorer

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "ossuary",
	Short:              "Score the governance risk of open-source packages.",
	Long:               `Ossuary combines git history, forge metadata and registry data into a deterministic 0-100 governance risk score tuned for maintainer abandonment, concentration, frustration and stealth takeover.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".ossuary") // Name of config file (without extension)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	viper.SetEnvPrefix("OSSUARY")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// The documented raw environment variables take effect when the flag
	// and config file are silent.
	_ = viper.BindEnv("database-url", "OSSUARY_DATABASE_URL", "DATABASE_URL")
	_ = viper.BindEnv("repos-path", "OSSUARY_REPOS_PATH", "REPOS_PATH")
	_ = viper.BindEnv("github-token", "OSSUARY_GITHUB_TOKEN", "GITHUB_TOKEN")
	_ = viper.BindEnv("cache-days", "OSSUARY_CACHE_DAYS")

	viper.SetDefault("database-url", contract.DefaultDatabaseURL)
	viper.SetDefault("repos-path", contract.DefaultReposPath)
	viper.SetDefault("cache-days", contract.DefaultCacheDays)
	viper.SetDefault("workers", contract.DefaultBatchWorkers)
	viper.SetDefault("color", "yes")
}

// sharedSetup unmarshals config, validates it and builds the pipeline.
func sharedSetup(_ *cobra.Command, _ []string) error {
	// 1. Read config file. This merges defaults, file, env and flags.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Not found is fine; defaults/env/flags apply.
	}

	// 2. Unmarshal all resolved values into the raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Run validation and complex parsing.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}

	// 4. Open the score store; commands that need no store skip this setup.
	store, err := iocache.Open(cfg.Backend, cfg.ConnStr)
	if err != nil {
		return fmt.Errorf("failed to open score cache (run 'ossuary init'?): %w", err)
	}

	scorer = core.NewScorer(gitsrc.NewSource(cfg.ReposPath), forge.NewClient(cfg.Token), store, schema.DefaultScoreConfig())
	scorer.CacheAge = cfg.CacheAge
	scorer.Deadline = cfg.Deadline
	return nil
}

// exitCodeFor maps the error taxonomy to CLI exit codes.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, schema.ErrInput):
		return ExitInput
	case errors.Is(err, schema.ErrTransientCollect):
		return ExitTransient
	default: // UnresolvedRepo, RepoGone, invariant violations
		return ExitUnresolved
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

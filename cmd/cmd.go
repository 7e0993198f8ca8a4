// Package cmd defines the command-line interface for ossuary.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/anicka-net/ossuary/internal/contract"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(moversCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Persistent flags shared by every command.
	rootCmd.PersistentFlags().String("database-url", contract.DefaultDatabaseURL, "Cache backend URL: sqlite://, postgres:// or mysql://")
	rootCmd.PersistentFlags().String("repos-path", contract.DefaultReposPath, "Directory for bare blobless repository mirrors")
	rootCmd.PersistentFlags().String("github-token", "", "GitHub token for higher forge rate limits")
	rootCmd.PersistentFlags().Int("cache-days", contract.DefaultCacheDays, "Cache freshness bound in days")
	rootCmd.PersistentFlags().Bool("json", false, "Emit JSON instead of tables")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Cannot bind root flags", err, ExitInput)
	}

	scoreCmd.Flags().String("ecosystem", "", "Package ecosystem: npm, pypi, cargo, rubygems, packagist, nuget, go, github")
	scoreCmd.Flags().String("cutoff", "", "Historical as-of date (YYYY-MM-DD)")
	scoreCmd.Flags().String("repo-url", "", "Override upstream repository URL discovery")
	scoreCmd.Flags().Bool("force", false, "Skip the cache read and re-score")

	historyCmd.Flags().String("ecosystem", "", "Package ecosystem")
	historyCmd.Flags().Int("months", contract.DefaultHistoryMonths, "Number of monthly points to recompute")

	moversCmd.Flags().Int("limit", contract.DefaultMoversLimit, "Number of movers to show")
	moversCmd.Flags().Int("since", 30, "Window size in days")

	refreshCmd.Flags().Int("max-age", contract.DefaultCacheDays, "Re-score packages older than this many days")
	refreshCmd.Flags().String("ecosystem", "", "Only refresh one ecosystem")
	refreshCmd.Flags().Int("workers", contract.DefaultBatchWorkers, "Concurrent scoring tasks")

	exportCmd.Flags().String("ecosystem", "", "Package ecosystem")
	exportCmd.Flags().String("output-file", "score_history.parquet", "Parquet output path")
	exportCmd.Flags().Int("limit", 1000, "Maximum history rows to export")
}

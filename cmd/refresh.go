package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/anicka-net/ossuary/internal/contract"
	"github.com/anicka-net/ossuary/schema"
)

// refreshCmd re-scores stale cache entries with a bounded worker pool.
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-score packages whose cached score is stale.",
	Long: `Re-score every package whose current score is older than --max-age days.

Runs up to --workers scoring tasks concurrently; individual failures are
reported and skipped.

Examples:
  ossuary refresh --max-age 7
  ossuary refresh --max-age 3 --ecosystem npm --workers 5`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetup,
	Run: func(cmd *cobra.Command, _ []string) {
		var eco schema.Ecosystem
		if raw := mustString(cmd, "ecosystem"); raw != "" {
			parsed, err := contract.ParseEcosystem(raw)
			if err != nil {
				contract.LogFatal("Invalid ecosystem", err, ExitInput)
			}
			eco = parsed
		}

		maxAge := time.Duration(mustInt(cmd, "max-age")) * 24 * time.Hour
		refreshed, err := scorer.Refresh(rootCtx, eco, maxAge, mustInt(cmd, "workers"))
		if err != nil {
			contract.LogFatal("Refresh failed", err, exitCodeFor(err))
		}
		fmt.Fprintf(os.Stdout, "Refreshed %d packages.\n", refreshed)
	},
}
